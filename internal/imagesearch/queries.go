package imagesearch

import "strings"

// MaxAlternatives caps AlternativeQueries.
const MaxAlternatives = 5

// thesaurus is a small synonym table for words that show up in slide image
// descriptions. Entries are ordered by preference.
var thesaurus = map[string][]string{
	"camera":       {"photographic camera"},
	"photograph":   {"photo", "picture"},
	"picture":      {"image", "photo"},
	"image":        {"picture"},
	"diagram":      {"schematic", "chart"},
	"chart":        {"graph"},
	"graph":        {"chart"},
	"city":         {"metropolis", "urban area"},
	"cityscape":    {"skyline"},
	"car":          {"automobile"},
	"computer":     {"pc", "laptop"},
	"laptop":       {"notebook computer"},
	"phone":        {"smartphone"},
	"team":         {"group"},
	"meeting":      {"conference"},
	"office":       {"workplace"},
	"people":       {"crowd"},
	"person":       {"individual"},
	"doctor":       {"physician"},
	"house":        {"home"},
	"building":     {"architecture"},
	"forest":       {"woods", "woodland"},
	"ocean":        {"sea"},
	"sea":          {"ocean"},
	"mountain":     {"peak"},
	"river":        {"stream"},
	"sun":          {"sunlight"},
	"sunset":       {"dusk"},
	"modern":       {"contemporary"},
	"old":          {"vintage"},
	"vintage":      {"retro"},
	"minimalist":   {"minimal"},
	"abstract":     {"nonrepresentational"},
	"futuristic":   {"sci-fi"},
	"film":         {"movie"},
	"movie":        {"film"},
	"money":        {"currency", "cash"},
	"growth":       {"increase"},
	"data":         {"information"},
	"network":      {"web"},
	"factory":      {"plant", "manufacturing"},
	"robot":        {"automaton"},
	"school":       {"classroom"},
	"student":      {"pupil"},
	"lecturer":     {"speaker"},
	"food":         {"meal"},
	"farm":         {"farmland"},
	"energy":       {"power"},
	"solar":        {"photovoltaic"},
	"wind":         {"breeze"},
	"satellite":    {"orbiter"},
	"space":        {"outer space", "cosmos"},
	"earth":        {"globe", "planet"},
	"map":          {"atlas"},
	"road":         {"highway"},
	"bridge":       {"overpass"},
	"lab":          {"laboratory"},
	"laboratory":   {"lab"},
	"microscope":   {"magnifier"},
	"hospital":     {"clinic"},
	"security":     {"protection"},
	"lock":         {"padlock"},
	"cloud":        {"sky"},
	"server":       {"data center"},
	"presentation": {"slideshow"},
	"handshake":    {"agreement"},
	"light":        {"illumination"},
	"lens":         {"optics"},
	"digital":      {"electronic"},
	"laser":        {"beam"},
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "with": true,
	"by": true, "about": true, "as": true,
}

// AlternativeQueries returns up to MaxAlternatives fallback queries for q:
// synonym replacements, descriptive variations and shorter forms, in that
// order, with duplicates and the normalized query itself removed.
func AlternativeQueries(q string) []string {
	q = strings.Join(strings.Fields(strings.ToLower(q)), " ")
	if q == "" {
		return nil
	}
	words := strings.Fields(q)

	var all []string
	for i, w := range words {
		for _, syn := range thesaurus[w] {
			repl := append([]string(nil), words...)
			repl[i] = syn
			all = append(all, strings.Join(repl, " "))
		}
	}
	all = append(all, variations(q)...)
	all = append(all, shorterQueries(words)...)

	seen := map[string]bool{q: true}
	var out []string
	for _, a := range all {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
		if len(out) == MaxAlternatives {
			break
		}
	}
	return out
}

func variations(q string) []string {
	var out []string
	if !strings.Contains(q, "picture") && !strings.Contains(q, "image") && !strings.Contains(q, "photo") {
		out = append(out, q+" picture", q+" image", q+" photo")
	}
	switch {
	case strings.Contains(q, "diagram"):
		out = append(out, q+" illustration", q+" schematic", q+" visual")
	case strings.Contains(q, "chart"), strings.Contains(q, "graph"):
		out = append(out, q+" visualization", q+" data visualization", q+" infographic")
	}
	return out
}

func shorterQueries(words []string) []string {
	if len(words) <= 2 {
		return nil
	}
	var out []string
	var filtered []string
	for _, w := range words {
		if !stopwords[w] {
			filtered = append(filtered, w)
		}
	}
	if len(filtered) >= 2 && len(filtered) < len(words) {
		out = append(out, strings.Join(filtered, " "))
	}
	if len(words) >= 4 {
		mid := len(words) / 2
		out = append(out, strings.Join(words[:mid], " "), strings.Join(words[mid:], " "))
		if len(words) >= 6 {
			out = append(out, strings.Join(words[mid-1:mid+2], " "))
		}
	}
	if len(words) > 3 {
		out = append(out, strings.Join(words[:3], " "))
	}
	return out
}

package fetch

import (
	"errors"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// AllowLocalEnv disables the private-address check when set to "1". Tests
// against httptest servers rely on it.
const AllowLocalEnv = "DECKGEN_ALLOW_LOCAL"

// ErrBlocked is wrapped by every SSRF guard rejection.
var ErrBlocked = errors.New("SSRF blocked")

// lookupIP is swapped in tests.
var lookupIP = net.LookupIP

// Guard rejects URLs that resolve to loopback, private or link-local
// addresses and .onion hosts. It runs before each request and redirect;
// dialControl repeats the address check on the IP actually dialed.
func Guard(u *url.URL) error {
	if u == nil {
		return errors.New("invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("only http and https URLs are allowed")
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("invalid host")
	}
	if strings.HasSuffix(strings.ToLower(host), ".onion") {
		return blocked("onion domains are not allowed")
	}
	if os.Getenv(AllowLocalEnv) == "1" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return blocked("private or loopback address")
		}
		return nil
	}
	ips, err := lookupIP(host)
	if err != nil || len(ips) == 0 {
		return blocked("cannot resolve host")
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return blocked("private or loopback address")
		}
	}
	return nil
}

// dialControl is a net.Dialer Control hook. address is the resolved
// ip:port, so a host that re-resolves to a private address between Guard
// and the dial is still refused.
func dialControl(_, address string, _ syscall.RawConn) error {
	if os.Getenv(AllowLocalEnv) == "1" {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return blocked("invalid dial address")
	}
	ip := net.ParseIP(host)
	if ip == nil || isPrivateIP(ip) {
		return blocked("private or loopback address")
	}
	return nil
}

func blocked(reason string) error {
	return &blockedError{reason: reason}
}

type blockedError struct{ reason string }

func (e *blockedError) Error() string { return ErrBlocked.Error() + ": " + e.reason }
func (e *blockedError) Unwrap() error { return ErrBlocked }

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	if v4 := ip.To4(); v4 != nil {
		switch {
		case v4[0] == 0, v4[0] == 10, v4[0] == 127:
			return true
		case v4[0] == 100 && v4[1]&0xc0 == 64:
			return true
		case v4[0] == 172 && v4[1]&0xf0 == 16:
			return true
		case v4[0] == 192 && v4[1] == 168:
			return true
		case v4[0] == 169 && v4[1] == 254:
			return true
		}
		return false
	}
	if ip[0] == 0xfe && (ip[1]&0xc0) == 0x80 {
		return true
	}
	return ip[0]&0xfe == 0xfc
}

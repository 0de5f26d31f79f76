package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
)

// LatestName is the pointer file naming the most recent manifest.
const LatestName = "latest.json"

// ErrInvalid is returned when a stored manifest cannot be loaded safely.
var ErrInvalid = errors.New("manifest invalid")

type latestPointer struct {
	Version string `json:"version"`
	Path    string `json:"path"`
	SHA256  string `json:"sha256"`
}

// syncDirFunc fsyncs a directory after atomic renames. Tests override it.
var syncDirFunc = func(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }() //nolint:errcheck
	return d.Sync()
}

// Save writes m into dir as deckgen-<created>-<sha8>.json and points
// latest.json at it. Both writes are atomic and use 0600 permissions.
func Save(dir string, m *Manifest) (string, error) {
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("invalid manifest: %w", err)
	}
	if err := ensureSecureDir(dir); err != nil {
		return "", err
	}
	unlock, _, err := lockDir(dir)
	if err != nil {
		return "", err
	}
	defer unlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	shaHex := hex.EncodeToString(sum[:])

	base := fmt.Sprintf("deckgen-%s-%s.json", strings.ReplaceAll(m.CreatedAt, ":", ""), shaHex[:8])
	path := filepath.Join(dir, base)
	if err := writeFileAtomic(dir, path, data); err != nil {
		return "", err
	}
	ptr, err := json.MarshalIndent(latestPointer{Version: Version, Path: base, SHA256: shaHex}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(dir, filepath.Join(dir, LatestName), ptr); err != nil {
		return "", err
	}
	return path, nil
}

// LoadLatest reads the manifest latest.json points to and verifies its hash.
// Any problem yields ErrInvalid.
func LoadLatest(dir string) (*Manifest, error) {
	if err := ensureSecureDir(dir); err != nil {
		return nil, ErrInvalid
	}
	raw, err := os.ReadFile(filepath.Join(dir, LatestName))
	if err != nil {
		return nil, ErrInvalid
	}
	var ptr latestPointer
	if err := json.Unmarshal(raw, &ptr); err != nil {
		return nil, ErrInvalid
	}
	if ptr.Version != Version || !isBaseName(ptr.Path) {
		return nil, ErrInvalid
	}
	data, err := os.ReadFile(filepath.Join(dir, ptr.Path))
	if err != nil {
		return nil, ErrInvalid
	}
	sum := sha256.Sum256(data)
	if !strings.EqualFold(hex.EncodeToString(sum[:]), ptr.SHA256) {
		return nil, ErrInvalid
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ErrInvalid
	}
	if err := m.Validate(); err != nil {
		return nil, ErrInvalid
	}
	return &m, nil
}

func isBaseName(p string) bool {
	return p != "" && filepath.Base(p) == p && !strings.Contains(p, "..")
}

// writeFileAtomic writes data to a temp file in dir, fsyncs it, renames it
// to dst and fsyncs dir.
func writeFileAtomic(dir, dst string, data []byte) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()     //nolint:errcheck
		_ = os.Remove(name) //nolint:errcheck
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fail(err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name) //nolint:errcheck
		return err
	}
	if err := os.Rename(name, dst); err != nil {
		_ = os.Remove(name) //nolint:errcheck
		return err
	}
	return syncDirFunc(dir)
}

// ensureSecureDir rejects world-writable or foreign-owned directories on
// Unix. A missing directory is fine; it is created with 0700.
func ensureSecureDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty manifest dir")
	}
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return errors.New("manifest dir is not a directory")
	}
	if info.Mode().Perm()&0o002 != 0 {
		return errors.New("manifest dir is world-writable")
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok && st.Uid != uint32(os.Getuid()) {
		return errors.New("manifest dir is not owned by current user")
	}
	return nil
}

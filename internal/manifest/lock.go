package manifest

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const lockName = "manifest.lock"

// lockWait bounds how long Save waits for another writer. Tests shorten it.
var lockWait = 2 * time.Second

// lockDir takes an advisory lock on dir by creating manifest.lock with
// O_EXCL. While another process holds it, lockDir polls with 50-150ms
// jitter until lockWait elapses. A lock that cannot be taken in time is not
// an error: acquired is false, the returned unlock is a no-op and the caller
// proceeds with its atomic writes.
func lockDir(dir string) (unlock func(), acquired bool, err error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return func() {}, false, err
	}
	path := filepath.Join(dir, lockName)
	body := []byte(fmt.Sprintf("pid=%d token=%s ts=%s\n", os.Getpid(), uuid.NewString(), time.Now().UTC().Format(time.RFC3339Nano)))

	try := func() (bool, error) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return false, nil
			}
			return false, err
		}
		_, werr := f.Write(body)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(path)
			return false, errors.Join(werr, cerr)
		}
		return true, nil
	}
	release := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			_ = err
		}
	}

	deadline := time.Now().Add(lockWait)
	for {
		ok, err := try()
		if err != nil {
			return func() {}, false, err
		}
		if ok {
			return release, true, nil
		}
		if !time.Now().Before(deadline) {
			return func() {}, false, nil
		}
		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}

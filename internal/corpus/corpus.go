// Package corpus manages a directory of fuzz corpus entries.
//
// Each entry is one encoded value in the engine's byte form, stored as a
// numbered .bin file. Writes go through an atomic rename so readers never
// observe partial entries, and an exclusive directory lock keeps two
// mutation runs from interleaving writes.
package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// entryExt is the corpus entry file extension.
const entryExt = ".bin"

// lockFileName guards the corpus directory.
const lockFileName = ".lock"

// LockTimeout is the timeout for acquiring the corpus lock.
const LockTimeout = 5 * time.Second

// lockRetryInterval is the poll interval while waiting for the lock.
const lockRetryInterval = 50 * time.Millisecond

// dirPerms and filePerms match what the entry tooling creates.
const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// Corpus errors.
var (
	ErrLockTimeout = errors.New("corpus: lock timeout")
	ErrClosed      = errors.New("corpus: closed")
)

// Dir is an open, locked corpus directory.
type Dir struct {
	path string
	lock *os.File
}

// Open creates the directory if needed and acquires its exclusive lock.
func Open(path string) (*Dir, error) {
	if err := os.MkdirAll(path, dirPerms); err != nil {
		return nil, fmt.Errorf("corpus: creating %s: %w", path, err)
	}

	lock, err := acquireLock(filepath.Join(path, lockFileName), LockTimeout)
	if err != nil {
		return nil, err
	}

	return &Dir{path: path, lock: lock}, nil
}

// acquireLock takes an exclusive flock on the lock file, polling until the
// timeout expires.
func acquireLock(lockPath string, timeout time.Duration) (*os.File, error) {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerms) //nolint:gosec // path is from caller
	if err != nil {
		return nil, fmt.Errorf("corpus: opening lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)

	for {
		err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return file, nil
		}

		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = file.Close()

			return nil, fmt.Errorf("corpus: flock: %w", err)
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, lockPath)
		}

		time.Sleep(lockRetryInterval)
	}
}

// Close releases the directory lock.
func (d *Dir) Close() error {
	if d.lock == nil {
		return ErrClosed
	}

	_ = unix.Flock(int(d.lock.Fd()), unix.LOCK_UN)

	err := d.lock.Close()
	d.lock = nil

	return err
}

// Path returns the corpus directory path.
func (d *Dir) Path() string {
	return d.path
}

// Entries returns the sorted names of all corpus entries.
func (d *Dir) Entries() ([]string, error) {
	dirents, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("corpus: reading %s: %w", d.path, err)
	}

	var names []string

	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), entryExt) {
			continue
		}

		names = append(names, de.Name())
	}

	sort.Strings(names)

	return names, nil
}

// Read returns the bytes of one entry.
func (d *Dir) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.path, name)) //nolint:gosec // name is a corpus entry
	if err != nil {
		return nil, fmt.Errorf("corpus: reading entry %s: %w", name, err)
	}

	return data, nil
}

// Write stores an entry atomically.
func (d *Dir) Write(name string, data []byte) error {
	path := filepath.Join(d.path, name)

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("corpus: writing entry %s: %w", name, err)
	}

	return nil
}

// NextName returns the next unused numbered entry name (e.g. "000017.bin").
func (d *Dir) NextName() (string, error) {
	names, err := d.Entries()
	if err != nil {
		return "", err
	}

	next := 0

	for _, name := range names {
		var n int
		if _, err := fmt.Sscanf(name, "%06d"+entryExt, &n); err == nil && n >= next {
			next = n + 1
		}
	}

	return fmt.Sprintf("%06d%s", next, entryExt), nil
}

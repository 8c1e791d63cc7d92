package paging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	snapshotExt  = ".snap"
	lockFileName = ".lock"
)

var errDirLocked = errors.New("directory is locked by another process")

// SnapshotStore writes encoded snapshots as files in a directory
// The directory is held under an advisory lock for the lifetime of the store
type SnapshotStore struct {
	dir         string
	compression CompressionType
	lock        *os.File
	nextSeq     int
	mutex       sync.Mutex
}

// NewSnapshotStore opens (creating if needed) a snapshot directory
func NewSnapshotStore(dir string, compression CompressionType) (*SnapshotStore, error) {
	const op = "NewSnapshotStore"

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	lock, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := lockFile(lock); err != nil {
		lock.Close()
		if errors.Is(err, errDirLocked) {
			return nil, NewSimError(ErrCodeStoreLocked, op, fmt.Sprintf("snapshot directory %s is in use", dir), err)
		}
		return nil, fmt.Errorf("failed to lock snapshot directory: %w", err)
	}

	s := &SnapshotStore{
		dir:         dir,
		compression: compression,
		lock:        lock,
		nextSeq:     1,
	}

	names, err := s.List()
	if err != nil {
		s.Close()
		return nil, err
	}
	// Continue after the highest sequence on disk; gaps from deleted files are never refilled
	for _, name := range names {
		if seq := snapshotSeq(name); seq >= s.nextSeq {
			s.nextSeq = seq + 1
		}
	}

	return s, nil
}

// Dir returns the snapshot directory
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// Save encodes snap and writes it atomically, returning the file name
func (s *SnapshotStore) Save(snap *Snapshot) (string, error) {
	const op = "SnapshotStore.Save"

	if !validNamePart(snap.SessionID) {
		return "", NewSimError(ErrCodeInvalidInput, op, fmt.Sprintf("invalid session id %q", snap.SessionID), nil)
	}
	if !validNamePart(snap.Reason) {
		return "", NewSimError(ErrCodeInvalidInput, op, fmt.Sprintf("invalid snapshot reason %q", snap.Reason), nil)
	}

	data, err := EncodeSnapshot(snap, s.compression)
	if err != nil {
		return "", err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	name := fmt.Sprintf("%06d-%s-%s%s", s.nextSeq, snap.SessionID, snap.Reason, snapshotExt)
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	if err := f.Sync(); err != nil { // Ensure data is written to disk
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to sync snapshot %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to publish snapshot %s: %w", name, err)
	}

	s.nextSeq++
	return name, nil
}

// Load reads and decodes a snapshot by file name
func (s *SnapshotStore) Load(name string) (*Snapshot, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, snapshotExt) {
		return nil, ErrSnapshotNotFound("SnapshotStore.Load", name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound("SnapshotStore.Load", name)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}

	return DecodeSnapshot(data)
}

// List returns snapshot file names in the order they were written
func (s *SnapshotStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), snapshotExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close releases the directory lock
func (s *SnapshotStore) Close() error {
	if s.lock == nil {
		return nil
	}
	unlockErr := unlockFile(s.lock)
	closeErr := s.lock.Close()
	s.lock = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

// validNamePart accepts non-empty strings of ASCII letters, digits, '_' and '-'
// so a file name built from them always stays inside the store directory
func validNamePart(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// snapshotSeq parses the numeric prefix of a snapshot file name, or returns 0
func snapshotSeq(name string) int {
	prefix, _, ok := strings.Cut(name, "-")
	if !ok {
		return 0
	}
	seq, err := strconv.Atoi(prefix)
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}

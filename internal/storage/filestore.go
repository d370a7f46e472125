package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// File names used by FileStore.
const (
	PagesDirName      = "pages"
	RevisionLogName   = "revisions.log"
	revisionEntrySize = 8 + PageRefSize + 4
	pageFileSuffix    = ".page"
	fileStoreDirPerm  = 0755
	fileStoreFilePerm = 0644
)

// FileStore errors.
var (
	ErrStoreClosed        = errors.New("page store is closed")
	ErrCorruptRevisionLog = errors.New("revision log corrupted")
)

// revisionLog is the file behind the revision log.
type revisionLog interface {
	io.Writer
	io.Seeker
	Sync() error
	Truncate(size int64) error
	Close() error
}

// FileStore is a PageStore keeping one file per page under pages/ and an
// append-only revision log.
//
// Layout:
//
//	<dir>/pages/ab/abcdef....page
//	<dir>/revisions.log   (revision uint64 | ref [32]byte | crc32 uint32)*
type FileStore struct {
	dir       string
	log       revisionLog
	revisions []PageRef
	closed    bool
	mu        sync.RWMutex
}

// OpenFileStore opens or creates a store rooted at dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, PagesDirName), fileStoreDirPerm); err != nil {
		return nil, err
	}

	log, err := os.OpenFile(filepath.Join(dir, RevisionLogName), os.O_CREATE|os.O_RDWR, fileStoreFilePerm)
	if err != nil {
		return nil, err
	}

	revisions, err := readRevisionLog(log)
	if err != nil {
		log.Close()
		return nil, err
	}

	// Drop a torn trailing entry left by an interrupted commit.
	if err := log.Truncate(int64(len(revisions) * revisionEntrySize)); err != nil {
		log.Close()
		return nil, err
	}

	if _, err := log.Seek(0, io.SeekEnd); err != nil {
		log.Close()
		return nil, err
	}

	return &FileStore{
		dir:       dir,
		log:       log,
		revisions: revisions,
	}, nil
}

// readRevisionLog reads every entry of the log. A torn trailing entry is
// ignored; a checksum or sequence mismatch is reported as corruption.
func readRevisionLog(r io.Reader) ([]PageRef, error) {
	var revisions []PageRef
	entry := make([]byte, revisionEntrySize)

	for {
		if _, err := io.ReadFull(r, entry); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return revisions, nil
			}
			return nil, err
		}

		sum := binary.LittleEndian.Uint32(entry[revisionEntrySize-4:])
		if crc32.ChecksumIEEE(entry[:revisionEntrySize-4]) != sum {
			return nil, fmt.Errorf("%w: entry %d checksum mismatch", ErrCorruptRevisionLog, len(revisions))
		}

		revision := binary.LittleEndian.Uint64(entry[0:8])
		if revision != uint64(len(revisions)) {
			return nil, fmt.Errorf("%w: expected revision %d, found %d", ErrCorruptRevisionLog, len(revisions), revision)
		}

		var ref PageRef
		copy(ref[:], entry[8:8+PageRefSize])
		revisions = append(revisions, ref)
	}
}

// pagePath returns the file holding ref.
func (s *FileStore) pagePath(ref PageRef) string {
	name := ref.String()
	return filepath.Join(s.dir, PagesDirName, name[:2], name+pageFileSuffix)
}

// Load reads the page file for ref.
func (s *FileStore) Load(ref PageRef) ([]byte, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return nil, ErrStoreClosed
	}

	data, err := os.ReadFile(s.pagePath(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return data, nil
}

// Store writes data to its page file using tmp + rename so readers never
// see a partial page.
func (s *FileStore) Store(data []byte) (PageRef, error) {
	ref := RefOf(data)

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return ref, ErrStoreClosed
	}

	path := s.pagePath(ref)
	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), fileStoreDirPerm); err != nil {
		return ref, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "page-*.tmp")
	if err != nil {
		return ref, err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return ref, err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return ref, err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return ref, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return ref, err
	}

	return ref, nil
}

// LatestRevision returns the newest committed revision, or -1 if none.
func (s *FileStore) LatestRevision() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return -1, ErrStoreClosed
	}
	return len(s.revisions) - 1, nil
}

// Commit appends and syncs a revision log entry.
func (s *FileStore) Commit(revision int, root PageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if revision != len(s.revisions) {
		return ErrRevisionConflict
	}
	if _, err := os.Stat(s.pagePath(root)); err != nil {
		return ErrPageNotFound
	}

	entry := make([]byte, revisionEntrySize)
	binary.LittleEndian.PutUint64(entry[0:8], uint64(revision))
	copy(entry[8:8+PageRefSize], root[:])
	binary.LittleEndian.PutUint32(entry[revisionEntrySize-4:], crc32.ChecksumIEEE(entry[:revisionEntrySize-4]))

	if _, err := s.log.Write(entry); err != nil {
		return s.rewind(err)
	}
	if err := s.log.Sync(); err != nil {
		return s.rewind(err)
	}

	s.revisions = append(s.revisions, root)
	return nil
}

// rewind cuts the log back to the last committed entry after a failed
// append, so a later commit does not land behind partial bytes.
func (s *FileStore) rewind(cause error) error {
	size := int64(len(s.revisions) * revisionEntrySize)
	if err := s.log.Truncate(size); err != nil {
		return fmt.Errorf("%w (rewind failed: %v)", cause, err)
	}
	if _, err := s.log.Seek(size, io.SeekStart); err != nil {
		return fmt.Errorf("%w (rewind failed: %v)", cause, err)
	}
	return cause
}

// Revisions returns a copy of the revision log.
func (s *FileStore) Revisions() ([]PageRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	out := make([]PageRef, len(s.revisions))
	copy(out, s.revisions)
	return out, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Close closes the revision log. Closing twice is a no-op.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.log.Close()
}

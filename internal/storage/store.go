// Package storage keeps generated documents on local disk between the
// request that produced them and the download that fetches them.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/observability"

	"github.com/google/uuid"
)

// fileSuffix is appended to every session id to form the file name
const fileSuffix = "_tailored_resume.docx"

// ErrNotFound is returned when no document exists for a session id
var ErrNotFound = stderrors.New("session not found")

// Stats describes the store's current contents
type Stats struct {
	Dir           string        `json:"dir"`
	Documents     int           `json:"documents"`
	Bytes         int64         `json:"bytes"`
	TTL           time.Duration `json:"ttl"`
	SweptTotal    int64         `json:"sweptTotal"`
	LastSweepUnix int64         `json:"lastSweepUnix,omitempty"`
}

// Store saves generated documents under uuid session ids
type Store struct {
	dir           string
	ttl           time.Duration
	sweepInterval time.Duration
	metrics       *observability.Metrics
	logger        *errors.Logger

	mu        sync.Mutex
	swept     int64
	lastSweep time.Time

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewStore creates the storage directory and starts the TTL sweeper when
// cfg.TTL is positive.
func NewStore(cfg config.StorageConfig, metrics *observability.Metrics, logger *errors.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to create storage directory", err).
			WithContext("dir", cfg.Dir)
	}

	s := &Store{
		dir:           cfg.Dir,
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		metrics:       metrics,
		logger:        logger,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}

	if s.ttl > 0 && s.sweepInterval > 0 {
		go s.sweepLoop()
	} else {
		close(s.doneChan)
	}
	return s, nil
}

// Save writes data under a new session id and returns the id
func (s *Store) Save(data []byte) (string, error) {
	id := uuid.NewString()
	path := s.path(id)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeDocumentWriteFailed, "Failed to save document", err).
			WithContext("session_id", id)
	}

	s.logger.Debug("Document saved", "session_id", id, "bytes", len(data))
	return id, nil
}

// Open returns the document for id and its modification time. The caller
// closes the reader. Ids that are not uuids are rejected before touching
// the file system.
func (s *Store) Open(id string) (io.ReadCloser, time.Time, error) {
	if err := ValidateID(id); err != nil {
		return nil, time.Time{}, err
	}

	f, err := os.Open(s.path(id))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, errors.NewIOError(errors.ErrCodeSessionNotFound, "Session not found", ErrNotFound).
				WithContext("session_id", id)
		}
		return nil, time.Time{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to open document", err).
			WithContext("session_id", id)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, time.Time{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to stat document", err)
	}
	return f, info.ModTime(), nil
}

// Delete removes the document for id. Deleting a missing document is not
// an error.
func (s *Store) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewIOError(errors.ErrCodeDocumentWriteFailed, "Failed to delete document", err).
			WithContext("session_id", id)
	}
	return nil
}

// ValidateID rejects anything that is not a canonical uuid
func ValidateID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != strings.ToLower(id) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid session id", err).
			WithContext("session_id", id)
	}
	return nil
}

// Stats returns counts for the documents currently stored
func (s *Store) Stats() (Stats, error) {
	stats := Stats{Dir: s.dir, TTL: s.ttl}

	err := s.walk(func(_ string, info fs.FileInfo) {
		stats.Documents++
		stats.Bytes += info.Size()
	})
	if err != nil {
		return stats, err
	}

	s.mu.Lock()
	stats.SweptTotal = s.swept
	if !s.lastSweep.IsZero() {
		stats.LastSweepUnix = s.lastSweep.Unix()
	}
	s.mu.Unlock()
	return stats, nil
}

// Sweep removes documents older than the TTL and returns how many it removed
func (s *Store) Sweep(now time.Time) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	removed := 0
	cutoff := now.Add(-s.ttl)
	err := s.walk(func(path string, info fs.FileInfo) {
		if info.ModTime().After(cutoff) {
			return
		}
		if err := os.Remove(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			s.logger.LogError(err, "Failed to remove expired document", "path", path)
			return
		}
		removed++
	})

	s.mu.Lock()
	s.swept += int64(removed)
	s.lastSweep = now
	s.mu.Unlock()

	s.metrics.RecordSessionsSwept(context.Background(), removed)
	if removed > 0 {
		s.logger.Info("Expired documents removed", "count", removed, "ttl", s.ttl)
	}
	return removed, err
}

// Close stops the sweeper and waits for it to exit
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.doneChan
	return nil
}

func (s *Store) sweepLoop() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if _, err := s.Sweep(now); err != nil {
				s.logger.LogError(err, "Storage sweep failed")
			}
		case <-s.stopChan:
			return
		}
	}
}

// walk calls fn for every stored document
func (s *Store) walk(fn func(path string, info fs.FileInfo)) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to list storage directory", err).
			WithContext("dir", s.dir)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fn(filepath.Join(s.dir, entry.Name()), info)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%s", strings.ToLower(id), fileSuffix))
}

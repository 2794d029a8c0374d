// Package artifact tracks the media files produced by captures.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

var log = logging.MustGetLogger("artifact")

// ErrInvalid is returned when an artifact is missing or empty
var ErrInvalid = errors.New("artifact missing or empty")

// Store names, validates and releases artifact files
type Store struct {
	dir          string
	retainVideos bool
	artifacts    sync.Map // artifactID -> *models.Artifact
	mu           sync.Mutex
}

// NewStore creates the artifact directory if it doesn't exist
func NewStore(dir string, retainVideos bool) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	return &Store{
		dir:          abs,
		retainVideos: retainVideos,
	}, nil
}

// Dir returns the absolute artifact directory
func (s *Store) Dir() string {
	return s.dir
}

// New reserves a unique file for a capture. The file itself is created by the producer.
func (s *Store) New(kind models.MediaKind, label string) *models.Artifact {
	id := uuid.New().String()
	a := &models.Artifact{
		ID:        id,
		Label:     label,
		Kind:      kind,
		Path:      filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", label, id, kind.Extension())),
		CreatedAt: time.Now(),
	}
	s.artifacts.Store(id, a)
	return a
}

// Write stores data as the artifact's content
func (s *Store) Write(a *models.Artifact, data []byte) error {
	if err := os.WriteFile(a.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", a.ID, err)
	}
	a.Size = int64(len(data))
	return nil
}

// Validate checks that the artifact exists on disk with non-zero size and records its size
func (s *Store) Validate(a *models.Artifact) error {
	info, err := os.Stat(a.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrInvalid, filepath.Base(a.Path))
		}
		return fmt.Errorf("failed to stat artifact: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, filepath.Base(a.Path))
	}

	a.Size = info.Size()
	return nil
}

// Get retrieves a tracked artifact by ID
func (s *Store) Get(id string) (*models.Artifact, error) {
	value, ok := s.artifacts.Load(id)
	if !ok {
		return nil, fmt.Errorf("artifact not found")
	}
	return value.(*models.Artifact), nil
}

// Release stops tracking the artifact and removes its file unless the retention
// policy keeps it. Images are always removed.
func (s *Store) Release(a *models.Artifact) error {
	s.artifacts.Delete(a.ID)

	if a.Kind == models.KindVideo && s.retainVideos {
		log.Debugf("Retaining %s", a.Path)
		return nil
	}

	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact %s: %w", a.ID, err)
	}
	return nil
}

// Count returns the number of tracked artifacts
func (s *Store) Count() int {
	n := 0
	s.artifacts.Range(func(key, value interface{}) bool {
		n++
		return true
	})
	return n
}

// StartJanitor periodically removes untracked files older than maxAge
func (s *Store) StartJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("Started artifact janitor for %s (max age %v)", s.dir, maxAge)

	for {
		select {
		case <-ctx.Done():
			log.Infof("Artifact janitor stopped for %s", s.dir)
			return
		case <-ticker.C:
			s.Sweep(maxAge)
		}
	}
}

// Sweep removes untracked artifact files older than maxAge and returns how many it deleted
func (s *Store) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracked := make(map[string]bool)
	s.artifacts.Range(func(key, value interface{}) bool {
		tracked[value.(*models.Artifact).Path] = true
		return true
	})

	files, err := filepath.Glob(filepath.Join(s.dir, "*-*.*"))
	if err != nil {
		log.Errorf("Error reading artifact directory: %v", err)
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, file := range files {
		if tracked[file] {
			continue
		}
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				log.Warningf("Failed to delete stale artifact %s: %v", file, err)
			} else {
				deleted++
			}
		}
	}

	if deleted > 0 {
		log.Infof("Cleaned up %d stale artifacts from %s", deleted, s.dir)
	}
	return deleted
}

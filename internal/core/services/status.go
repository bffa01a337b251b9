package services

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// StatusService reports index health: whether an index is loaded, its
// build metadata, and whether the catalog file changed since the build.
type StatusService struct {
	handle      *IndexHandle
	catalogPath string

	watcher  *fsnotify.Watcher
	onChange func()
	done     chan struct{}
}

// NewStatusService creates a new status service.
func NewStatusService(handle *IndexHandle, catalogPath string) *StatusService {
	return &StatusService{
		handle:      handle,
		catalogPath: catalogPath,
	}
}

// Status reports the current index state. The catalog is considered
// stale when its file was modified after the loaded index was built.
func (s *StatusService) Status(ctx context.Context) domain.IndexStatus {
	var status domain.IndexStatus

	index := s.handle.Load()
	if index == nil {
		return status
	}

	status.Loaded = true
	status.Metadata = index.Metadata()

	if info, err := os.Stat(s.catalogPath); err == nil {
		status.CatalogStale = info.ModTime().After(status.Metadata.BuiltAt)
	}

	return status
}

// Watch starts notifying onChange whenever the catalog file changes, so
// callers can re-query Status without polling. Call Close to stop.
func (s *StatusService) Watch(onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors often replace the file, which would
	// drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(s.catalogPath)); err != nil {
		watcher.Close()
		return err
	}

	s.watcher = watcher
	s.onChange = onChange
	s.done = make(chan struct{})

	go s.watchLoop()
	return nil
}

// Close stops watching the catalog file.
func (s *StatusService) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	return err
}

func (s *StatusService) watchLoop() {
	defer close(s.done)

	target := filepath.Clean(s.catalogPath)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("Catalog changed on disk: %s", event.Op)
			if s.onChange != nil {
				s.onChange()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Catalog watcher error: %v", err)
		}
	}
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"course-advisor/internal/domain"
	"course-advisor/internal/infra/metrics"
	"course-advisor/internal/usecase"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultDebounce     = 2 * time.Second
	jobTimeout          = 5 * time.Minute
	initialBackoff      = 1 * time.Second
	maxBackoff          = 5 * time.Minute
)

// FileLoader turns one corpus file into source documents.
type FileLoader interface {
	LoadFile(path string) ([]domain.SourceDocument, error)
}

// IndexWorker watches the corpus folder and re-indexes files that are
// created, changed or removed. Bursts of events for one file are debounced.
type IndexWorker struct {
	dir          string
	loader       FileLoader
	indexUsecase usecase.IndexDocumentsUsecase
	supported    func(path string) bool
	debounce     time.Duration
	logger       *slog.Logger

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	pending  map[string]time.Time
	backoff  map[string]time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

func NewIndexWorker(
	dir string,
	loader FileLoader,
	indexUsecase usecase.IndexDocumentsUsecase,
	supported func(path string) bool,
	debounce time.Duration,
	logger *slog.Logger,
) *IndexWorker {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &IndexWorker{
		dir:          dir,
		loader:       loader,
		indexUsecase: indexUsecase,
		supported:    supported,
		debounce:     debounce,
		logger:       logger,
		pending:      make(map[string]time.Time),
		backoff:      make(map[string]time.Duration),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start begins watching the folder. The folder must exist.
func (w *IndexWorker) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.watcher = watcher
	w.logger.Info("index_worker_started", slog.String("dir", w.dir), slog.Duration("debounce", w.debounce))
	go w.run()
	return nil
}

// Stop ends the watch loop and waits for an in-flight re-index to finish.
func (w *IndexWorker) Stop() {
	w.logger.Info("index_worker_stopping")
	close(w.stopChan)
	if w.watcher != nil {
		_ = w.watcher.Close()
		<-w.done
	}
}

func (w *IndexWorker) run() {
	defer close(w.done)
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, time.Now())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("index_worker_watch_error", slog.String("error", err.Error()))
		case now := <-ticker.C:
			w.processDue(now)
		}
	}
}

func (w *IndexWorker) handleEvent(event fsnotify.Event, now time.Time) {
	if !w.supported(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = now.Add(w.debounce)
	w.mu.Unlock()
}

func (w *IndexWorker) processDue(now time.Time) {
	w.mu.Lock()
	var due []string
	for path, at := range w.pending {
		if !now.Before(at) {
			due = append(due, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range due {
		if err := w.processPath(path); err != nil {
			w.mu.Lock()
			next := w.nextBackoff(w.backoff[path])
			w.backoff[path] = next
			w.pending[path] = now.Add(next)
			w.mu.Unlock()
			w.logger.Warn("index_worker_backing_off",
				slog.String("file", filepath.Base(path)),
				slog.Duration("backoff", next),
				slog.String("error", err.Error()))
			continue
		}
		w.mu.Lock()
		delete(w.backoff, path)
		w.mu.Unlock()
	}
}

func (w *IndexWorker) processPath(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	name := filepath.Base(path)
	var docs []domain.SourceDocument
	if _, err := os.Stat(path); err == nil {
		docs, err = w.loader.LoadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	out, err := w.indexUsecase.Reindex(ctx, name, docs)
	if err != nil {
		return err
	}
	metrics.RecordIndexed("watch", out.Chunks)
	if len(docs) == 0 {
		w.logger.Info("index_worker_source_removed", slog.String("file", name))
	} else {
		w.logger.Info("index_worker_source_reindexed", slog.String("file", name), slog.Int("chunks", out.Chunks))
	}
	return nil
}

func (w *IndexWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

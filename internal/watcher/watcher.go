package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/hua1232/AI-video-translate-lear/internal/audio"
	"github.com/hua1232/AI-video-translate-lear/internal/logging"
)

const (
	LockFileName        = ".vidtrans.lock"
	DefaultPollInterval = time.Second
	queueSize           = 256
)

var ErrAlreadyRunning = errors.New("another vidtrans instance is already watching this folder")

// Handler processes one settled video file.
type Handler func(ctx context.Context, path string) error

type Options struct {
	PollInterval time.Duration // size must hold still this long before a file is handled
}

// Watcher feeds video files dropped into a folder to a handler, one at a
// time, in arrival order. Files already present at start are picked up first.
type Watcher struct {
	dir      string
	handler  Handler
	logger   *logging.Logger
	opts     Options
	fsw      *fsnotify.Watcher
	lock     *flock.Flock
	lockPath string

	mu      sync.Mutex
	pending map[string]struct{}
}

// New locks dir for this process and starts watching it. It returns
// ErrAlreadyRunning when another process holds the lock.
func New(dir string, handler Handler, logger *logging.Logger, opts Options) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	lockPath := filepath.Join(dir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &Watcher{
		dir:      dir,
		handler:  handler,
		logger:   logger,
		opts:     opts,
		fsw:      fsw,
		lock:     lock,
		lockPath: lockPath,
		pending:  make(map[string]struct{}),
	}, nil
}

// Run blocks until ctx is cancelled or the watcher fails. The file being
// processed when ctx is cancelled sees the cancellation through its context.
func (w *Watcher) Run(ctx context.Context) error {
	queue := make(chan string, queueSize)

	var wg sync.WaitGroup
	wg.Go(func() { w.work(ctx, queue) })
	defer wg.Wait()
	defer close(queue)

	w.logger.Infow("Watching folder", "dir", w.dir, "extensions", audio.VideoExtensions())

	existing, err := w.scan()
	if err != nil {
		w.logger.Warnw("Failed to scan existing files", "dir", w.dir, "error", err)
	}
	for _, path := range existing {
		w.logger.Infow("Queued existing video", "path", path)
		if !w.enqueue(ctx, queue, path) {
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Infow("Watcher stopping")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !audio.IsVideoFile(event.Name) {
				w.logger.Debugw("Ignoring non-video file", "path", event.Name)
				continue
			}
			w.logger.Infow("New video detected", "path", event.Name)
			if !w.enqueue(ctx, queue, event.Name) {
				return nil
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Errorw("Watcher error", "error", err)
		}
	}
}

// Close stops watching and releases the folder lock.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	if unlockErr := w.lock.Unlock(); unlockErr != nil {
		err = errors.Join(err, fmt.Errorf("release lock: %w", unlockErr))
	}
	return err
}

// enqueue drops duplicates of a path that is still waiting or in progress.
// It returns false once ctx is done.
func (w *Watcher) enqueue(ctx context.Context, queue chan<- string, path string) bool {
	w.mu.Lock()
	if _, dup := w.pending[path]; dup {
		w.mu.Unlock()
		return true
	}
	w.pending[path] = struct{}{}
	w.mu.Unlock()

	select {
	case queue <- path:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *Watcher) done(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

func (w *Watcher) work(ctx context.Context, queue <-chan string) {
	for path := range queue {
		if ctx.Err() != nil {
			return
		}
		w.handle(ctx, path)
		w.done(path)
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorw("Panic while processing video", "path", path, "panic", r)
		}
	}()

	if err := waitStable(ctx, path, w.opts.PollInterval); err != nil {
		if ctx.Err() == nil {
			w.logger.Warnw("Skipping video", "path", path, "error", err)
		}
		return
	}
	if err := w.handler(ctx, path); err != nil {
		w.logger.Errorw("Failed to process video", "path", path, "error", err)
	}
}

// scan lists video files already in the folder, oldest first.
func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}

	type found struct {
		path    string
		modTime time.Time
	}
	var files []found
	for _, entry := range entries {
		if entry.IsDir() || !audio.IsVideoFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, found{filepath.Join(w.dir, entry.Name()), info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// waitStable returns once the file's size is unchanged across one interval.
func waitStable(ctx context.Context, path string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", filepath.Base(path))
		}
		if info.Size() == last {
			return nil
		}
		last = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

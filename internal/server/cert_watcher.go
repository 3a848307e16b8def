package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"resumescreener/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// fileStamp identifies one version of a file on disk.
type fileStamp struct {
	modTime time.Time
	size    int64
}

// CertWatcher calls reload after the certificate or key file changes on
// disk. Bursts of events (editors, cert-manager renames) collapse into one
// reload after the debounce delay.
type CertWatcher struct {
	files    []string
	debounce time.Duration
	reload   func()
	logger   *errors.Logger

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	pending *time.Timer
	done    chan struct{}
	stamps  map[string]fileStamp
}

// NewCertWatcher creates a watcher for certFile and keyFile. A zero
// debounce means one second.
func NewCertWatcher(certFile, keyFile string, debounce time.Duration, reload func(), logger *errors.Logger) *CertWatcher {
	if debounce <= 0 {
		debounce = time.Second
	}
	files := slices.DeleteFunc([]string{certFile, keyFile}, func(f string) bool { return f == "" })
	return &CertWatcher{
		files:    files,
		debounce: debounce,
		reload:   reload,
		logger:   logger,
		stamps:   make(map[string]fileStamp),
	}
}

// Start begins watching. The parent directories are watched too so that
// files replaced by rename are still noticed.
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.done != nil {
		return fmt.Errorf("certificate watcher is already running")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := make(map[string]bool)
	for _, file := range cw.files {
		cw.stamps[file] = stampOf(file)

		if err := fs.Add(file); err != nil && !os.IsNotExist(err) {
			cw.logger.Warn("Failed to watch certificate file", "file", file, "error", err)
		}
		dir := filepath.Dir(file)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fs.Add(dir); err != nil {
			cw.logger.Warn("Failed to watch certificate directory", "directory", dir, "error", err)
		}
	}

	cw.fs = fs
	cw.done = make(chan struct{})
	go cw.loop(fs, cw.done)

	cw.logger.Info("Certificate file watcher started", "files", cw.files, "debounce", cw.debounce)
	return nil
}

// Stop ends the watch. It is a no-op when the watcher is not running.
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.done == nil {
		return nil
	}
	close(cw.done)
	cw.done = nil
	if cw.pending != nil {
		cw.pending.Stop()
		cw.pending = nil
	}

	err := cw.fs.Close()
	cw.fs = nil
	if err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	cw.logger.Info("Certificate file watcher stopped")
	return nil
}

// IsRunning reports whether Start has been called without a matching Stop.
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.done != nil
}

// GetWatchedFiles returns the certificate files being watched.
func (cw *CertWatcher) GetWatchedFiles() []string {
	return slices.Clone(cw.files)
}

func (cw *CertWatcher) loop(fs *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-fs.Events:
			if !ok {
				return
			}
			if cw.relevant(event) {
				cw.schedule()
			}
		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			cw.logger.LogError(err, "Certificate file watcher error")
		}
	}
}

func (cw *CertWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return slices.ContainsFunc(cw.files, func(file string) bool {
		return event.Name == file || filepath.Base(file) == name
	})
}

func (cw *CertWatcher) schedule() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.done == nil {
		return
	}
	if cw.pending != nil {
		cw.pending.Stop()
	}
	cw.pending = time.AfterFunc(cw.debounce, cw.fire)
}

// fire reloads when any watched file differs from the last seen version.
func (cw *CertWatcher) fire() {
	cw.mu.Lock()
	if cw.done == nil {
		cw.mu.Unlock()
		return
	}
	changed := false
	for _, file := range cw.files {
		stamp := stampOf(file)
		if stamp != cw.stamps[file] {
			cw.stamps[file] = stamp
			changed = true
		}
	}
	cw.mu.Unlock()

	if changed {
		cw.logger.Info("Certificate files changed, reloading")
		cw.reload()
	}
}

// stampOf returns the zero stamp for a missing file.
func stampOf(file string) fileStamp {
	info, err := os.Stat(file)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"resumeforge/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher calls onChange after any of a set of files is written,
// created or renamed. Bursts of events within the debounce delay collapse
// into one callback.
type FileWatcher struct {
	mu sync.Mutex

	files         []string
	lastSeen      map[string]fileState
	debounceDelay time.Duration
	debounceTimer *time.Timer

	fsWatcher *fsnotify.Watcher
	stopChan  chan struct{}
	fireChan  chan struct{}
	doneChan  chan struct{}

	onChange func()
	logger   *errors.Logger
	running  bool
}

type fileState struct {
	modTime time.Time
	size    int64
}

func stateOf(info os.FileInfo) fileState {
	return fileState{modTime: info.ModTime(), size: info.Size()}
}

// NewFileWatcher creates a watcher for files. It does nothing until Start.
func NewFileWatcher(files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *FileWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	abs := make([]string, 0, len(files))
	for _, f := range files {
		if p, err := filepath.Abs(f); err == nil {
			abs = append(abs, p)
		} else {
			abs = append(abs, f)
		}
	}

	return &FileWatcher{
		files:         abs,
		lastSeen:      make(map[string]fileState),
		debounceDelay: debounceDelay,
		fireChan:      make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching. Each file's directory is watched as well so that
// editors replacing the file by rename are noticed.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("file watcher is already running")
	}
	if len(fw.files) == 0 {
		return fmt.Errorf("file watcher has no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := make([]string, 0, len(fw.files))
	for _, f := range fw.files {
		if stat, err := os.Stat(f); err == nil {
			fw.lastSeen[f] = stateOf(stat)
		}
		if dir := filepath.Dir(f); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	fw.fsWatcher = watcher
	fw.stopChan = make(chan struct{})
	fw.doneChan = make(chan struct{})
	fw.running = true
	go fw.watchLoop()

	fw.logger.Info("File watcher started", "files", fw.files, "debounce_delay", fw.debounceDelay)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	close(fw.stopChan)
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	done := fw.doneChan
	err := fw.fsWatcher.Close()
	fw.mu.Unlock()

	<-done
	fw.logger.Info("File watcher stopped")
	return err
}

func (fw *FileWatcher) watchLoop() {
	defer close(fw.doneChan)

	for {
		select {
		case event, ok := <-fw.fsWatcher.Events:
			if !ok {
				return
			}
			if fw.isWatched(event) {
				fw.scheduleFire()
			}

		case err, ok := <-fw.fsWatcher.Errors:
			if !ok {
				return
			}
			fw.logger.LogError(err, "File watcher error")

		case <-fw.fireChan:
			if fw.anyChanged() {
				fw.logger.Info("Watched files changed")
				fw.onChange()
			}

		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) isWatched(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		name = event.Name
	}
	return slices.Contains(fw.files, name)
}

// scheduleFire restarts the debounce timer
func (fw *FileWatcher) scheduleFire() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return
	}
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debounceDelay, func() {
		select {
		case fw.fireChan <- struct{}{}:
		default:
		}
	})
}

func (fw *FileWatcher) anyChanged() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	changed := false
	for _, f := range fw.files {
		stat, err := os.Stat(f)
		if err != nil {
			if _, seen := fw.lastSeen[f]; seen {
				delete(fw.lastSeen, f)
				changed = true
			}
			continue
		}
		if last, seen := fw.lastSeen[f]; !seen || last != stateOf(stat) {
			fw.lastSeen[f] = stateOf(stat)
			changed = true
		}
	}
	return changed
}

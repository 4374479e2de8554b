package config

import (
	"os"
	"sync"
	"time"
)

// Live holds the current configuration for readers on other goroutines and
// reloads it from disk when the file changes.
type Live struct {
	mu      sync.RWMutex
	cfg     Config
	path    string
	modTime time.Time
	version uint64
}

// NewLive wraps an already loaded configuration. path may be empty.
func NewLive(cfg Config, path string) *Live {
	l := &Live{cfg: cfg, path: path}
	if path != "" {
		if fi, err := os.Stat(path); err == nil {
			l.modTime = fi.ModTime()
		}
	}
	return l
}

// Get returns the current configuration.
func (l *Live) Get() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Version increases on every successful reload.
func (l *Live) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// ReloadIfChanged reloads the file when its modification time moved. It reports
// whether a new configuration was installed. A file that fails to load leaves the
// current configuration in place.
func (l *Live) ReloadIfChanged() (bool, []string, error) {
	if l.path == "" {
		return false, nil, nil
	}
	fi, err := os.Stat(l.path)
	if err != nil {
		return false, nil, err
	}
	l.mu.RLock()
	same := fi.ModTime().Equal(l.modTime)
	l.mu.RUnlock()
	if same {
		return false, nil, nil
	}

	cfg, warnings, err := Load(l.path)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modTime = fi.ModTime()
	if err != nil {
		return false, nil, err
	}
	l.cfg = cfg
	l.version++
	return true, warnings, nil
}

// Package config provides configuration watching and hot-reload functionality
package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ConfigChangeCallback is called when the configuration changes.
type ConfigChangeCallback func(oldConfig, newConfig *Config)

// Watcher watches a configuration file for changes and reloads it.
type Watcher struct {
	// Configuration file path
	configFile string

	// Configuration loader
	loader *Loader

	// Current configuration
	config   *Config
	configMu sync.RWMutex

	// File system watcher
	fsWatcher *fsnotify.Watcher

	// Change callbacks
	callbacks   []ConfigChangeCallback
	callbacksMu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for configFile and loads the initial
// configuration through loader.
func NewWatcher(configFile string, loader *Loader) (*Watcher, error) {
	if _, err := formatForFile(configFile); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file system watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		configFile: configFile,
		loader:     loader,
		fsWatcher:  fsWatcher,
		ctx:        ctx,
		cancel:     cancel,
	}

	config, err := loader.LoadFromFile(configFile)
	if err != nil {
		fsWatcher.Close()
		cancel()
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}
	w.config = config

	return w, nil
}

// Start begins watching the configuration file.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.configFile); err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	w.wg.Add(1)
	go w.watchLoop()

	return nil
}

// Stop stops watching the configuration file.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.configMu.RLock()
	defer w.configMu.RUnlock()
	return w.config
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(cb ConfigChangeCallback) {
	w.callbacksMu.Lock()
	defer w.callbacksMu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// watchLoop processes file system events. Editors rewrite files with bursts
// of events, so reloads are debounced.
func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	var debounce *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Errorf("config watcher error for %s", w.configFile)
		}
	}
}

// reload loads the file and notifies callbacks on change. A file that fails
// to parse keeps the previous configuration in effect.
func (w *Watcher) reload() {
	newConfig, err := w.loader.LoadFromFile(w.configFile)
	if err != nil {
		logrus.WithError(err).Errorf("config reload failed for %s, keeping previous config", w.configFile)
		return
	}

	w.configMu.Lock()
	oldConfig := w.config
	if reflect.DeepEqual(oldConfig, newConfig) {
		w.configMu.Unlock()
		return
	}
	w.config = newConfig
	w.configMu.Unlock()

	w.callbacksMu.RLock()
	callbacks := append([]ConfigChangeCallback(nil), w.callbacks...)
	w.callbacksMu.RUnlock()

	for _, cb := range callbacks {
		cb(oldConfig, newConfig)
	}
}

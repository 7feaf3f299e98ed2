package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeromicro/go-zero/core/logx"
	"gopkg.in/yaml.v2"
)

type blacklistFile struct {
	Creators []string `yaml:"creators"`
	Mints    []string `yaml:"mints"`
}

// Blacklist holds creator and mint addresses that are never bought.
// Backed by an optional YAML file that is hot-reloaded on change; an
// empty Blacklist (no file configured) rejects nothing.
type Blacklist struct {
	mu       sync.RWMutex
	path     string
	creators map[string]struct{}
	mints    map[string]struct{}
}

func NewBlacklist(path string) (*Blacklist, error) {
	b := &Blacklist{
		path:     path,
		creators: make(map[string]struct{}),
		mints:    make(map[string]struct{}),
	}
	if path == "" {
		return b, nil
	}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Blacklist) Reload() error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return err
	}
	var f blacklistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	creators := make(map[string]struct{}, len(f.Creators))
	for _, c := range f.Creators {
		creators[c] = struct{}{}
	}
	mints := make(map[string]struct{}, len(f.Mints))
	for _, m := range f.Mints {
		mints[m] = struct{}{}
	}

	b.mu.Lock()
	b.creators = creators
	b.mints = mints
	b.mu.Unlock()

	logx.Infof("blacklist loaded: %d creators, %d mints", len(creators), len(mints))
	return nil
}

func (b *Blacklist) HasCreator(addr string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.creators[addr]
	return ok
}

func (b *Blacklist) HasMint(addr string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.mints[addr]
	return ok
}

// Watch reloads the backing file whenever it changes. Blocks until
// ctx is cancelled; call in its own goroutine. No-op without a file.
func (b *Blacklist) Watch(ctx context.Context) error {
	if b.path == "" {
		return nil
	}

	absPath, err := filepath.Abs(b.path)
	if err != nil {
		return err
	}
	fileName := filepath.Base(absPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// watch the directory: editors replace files on save
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	logx.Infof("watching blacklist file %s", absPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) == 0 {
				continue
			}

			// renames may land before the new file is on disk
			time.Sleep(200 * time.Millisecond)
			if _, err := os.Stat(absPath); os.IsNotExist(err) {
				continue
			}
			if err := b.Reload(); err != nil {
				logx.Errorf("blacklist reload failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logx.Errorf("blacklist watcher error: %v", err)
		}
	}
}

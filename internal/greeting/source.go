package greeting

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Source hands out the current greeting. A file-backed source can be reloaded
// while the server runs; sessions already in progress keep the greeting they
// started with.
type Source struct {
	path    string
	current atomic.Pointer[Greeting]
}

// NewSource returns a source for the document at path, or the built-in
// greeting when path is empty.
func NewSource(path string) (*Source, error) {
	s := &Source{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Static returns a source that always serves g.
func Static(g *Greeting) *Source {
	s := &Source{}
	s.current.Store(g)
	return s
}

// Current returns the greeting new sessions should use.
func (s *Source) Current() *Greeting {
	return s.current.Load()
}

// Path returns the backing file, empty for built-in or static sources.
func (s *Source) Path() string {
	return s.path
}

// Reload re-reads the backing document. On failure the previous greeting
// stays in place.
func (s *Source) Reload() error {
	var (
		g   *Greeting
		err error
	)
	if s.path == "" {
		g, err = Default()
	} else {
		g, err = Load(s.path)
	}
	if err != nil {
		return err
	}
	s.current.Store(g)
	return nil
}

// Watch reloads the document whenever its file is written or replaced, until
// ctx is cancelled. The parent directory is watched so editors that save via
// rename are picked up.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("watch greeting: no file to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	abs, err := filepath.Abs(s.path)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("resolve greeting path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer func() {
			if closeErr := w.Close(); closeErr != nil {
				slog.Debug("Failed to close greeting watcher", "error", closeErr)
			}
		}()
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Reload(); err != nil {
					slog.Warn("Greeting reload failed, keeping previous content", "path", s.path, "error", err)
					continue
				}
				slog.Info("Greeting reloaded", "path", s.path, "title", s.Current().Title)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("Greeting watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

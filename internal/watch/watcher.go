package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ant-design/antd-tools/internal/logfields"
)

// Watcher recompiles sources as they change and removes the output of
// deleted sources.
type Watcher struct {
	Compiler *Compiler
	// Debounce coalesces bursts of events for the same file.
	Debounce time.Duration
	// OnChange, when set, is called after each batch is handled.
	OnChange func(compiled, removed []string)
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.Compiler.Root); err != nil {
		return err
	}
	slog.Info("Watching TypeScript sources", logfields.Path(w.Compiler.Root))

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]fsnotify.Op{}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						slog.Warn("Failed to watch directory", logfields.Path(event.Name), logfields.Error(err))
					}
					continue
				}
			}
			if !IsSource(event.Name) {
				continue
			}
			pending[event.Name] |= event.Op
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", logfields.Error(err))
		case <-timer.C:
			w.flush(pending)
			pending = map[string]fsnotify.Op{}
		}
	}
}

func (w *Watcher) flush(pending map[string]fsnotify.Op) {
	var compiled, removed []string
	for path := range pending {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			out := Sibling(path)
			if err := os.Remove(out); err == nil {
				removed = append(removed, out)
				slog.Info("Removed", logfields.File(out))
			}
			continue
		}
		if err := w.Compiler.CompileFile(path); err != nil {
			slog.Error("Compile failed", logfields.File(path), logfields.Error(err))
			continue
		}
		compiled = append(compiled, path)
		slog.Info("Compiled", logfields.File(path))
	}
	if w.OnChange != nil {
		w.OnChange(compiled, removed)
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

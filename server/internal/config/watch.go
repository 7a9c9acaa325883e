package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the file must stay quiet before a reload.
// Editors commonly emit several Write/Create events for one save.
const defaultDebounce = 250 * time.Millisecond

// Changed returns the top-level sections that differ between prev and next,
// in file order. A nil prev counts as every section changed.
func Changed(prev, next *Config) []string {
	all := prev == nil
	if all {
		prev = &Config{}
	}
	sections := []struct {
		name       string
		prev, next interface{}
	}{
		{"server", prev.Server, next.Server},
		{"log", prev.Log, next.Log},
		{"farm", prev.Farm, next.Farm},
		{"generator", prev.Generator, next.Generator},
		{"baselines", prev.Baselines, next.Baselines},
		{"indicators", prev.Indicators, next.Indicators},
		{"alerts", prev.Alerts, next.Alerts},
	}

	var out []string
	for _, s := range sections {
		if all || !reflect.DeepEqual(s.prev, s.next) {
			out = append(out, s.name)
		}
	}
	return out
}

// Watch monitors path for changes and calls onChange with the newly loaded
// Config and the sections that differ from the previous one. current is the
// config already in use. It runs until ctx is cancelled.
//
// Bursts of events are coalesced into one reload. A reload that fails
// (invalid YAML, an out-of-range threshold) is logged and the previous config
// remains active; a reload that changes nothing does not call onChange.
func Watch(ctx context.Context, path string, current *Config, onChange func(next *Config, changed []string)) error {
	return watch(ctx, path, current, defaultDebounce, onChange)
}

func watch(ctx context.Context, path string, current *Config, debounce time.Duration, onChange func(*Config, []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory rather than the file: an atomic save replaces the
	// inode and a file watch would go silent.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	name := filepath.Base(path)

	slog.Info("config: watching for changes", "path", path, "debounce", debounce)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(debounce)

		case <-pending:
			pending = nil

			next, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}
			changed := Changed(current, next)
			if len(changed) == 0 {
				slog.Debug("config: file rewritten without changes", "path", path)
				continue
			}

			slog.Info("config: reloaded", "path", path, "sections", changed)
			current = next
			onChange(next, changed)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// Package theme decides between the light and dark colour schemes.
//
// A stored choice wins, then the system preference, then light. The inline
// InitScript applies the same rule in the browser before first paint.
package theme

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Theme is a colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// DarkClass is toggled on the document root.
const DarkClass = "dark"

// StorageKey is the key the browser script reads from localStorage.
const StorageKey = "theme"

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == Light || t == Dark
}

// Parse converts "light" or "dark" to a Theme.
func Parse(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown theme %q", s)
	}
	return t, nil
}

// Store persists the user's explicit choice.
type Store interface {
	// Get returns the stored value and whether one exists.
	Get() (string, bool)
	Set(t Theme) error
}

// SystemPreference reports whether the system prefers a dark scheme.
type SystemPreference func() bool

// ClassTarget is the element the dark class is toggled on.
type ClassTarget interface {
	AddClass(names ...string)
	RemoveClass(names ...string)
}

// Preference resolves the theme: a valid stored value, else the system
// preference, else Light. Either argument may be nil.
func Preference(store Store, system SystemPreference) Theme {
	if store != nil {
		if v, ok := store.Get(); ok {
			if t := Theme(v); t.Valid() {
				return t
			}
		}
	}
	if system != nil && system() {
		return Dark
	}
	return Light
}

// Apply toggles the dark class on root.
func Apply(root ClassTarget, t Theme) {
	if root == nil {
		return
	}
	if t == Dark {
		root.AddClass(DarkClass)
	} else {
		root.RemoveClass(DarkClass)
	}
}

// Initialize applies the resolved preference to root and returns it.
func Initialize(root ClassTarget, store Store, system SystemPreference) Theme {
	t := Preference(store, system)
	Apply(root, t)
	return t
}

// Watch follows system preference changes (true means dark) until ctx ends
// or changes is closed. Changes are applied only while nothing is stored.
func Watch(ctx context.Context, root ClassTarget, store Store, changes <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case dark, ok := <-changes:
			if !ok {
				return
			}
			if store != nil {
				if _, stored := store.Get(); stored {
					continue
				}
			}
			if dark {
				Apply(root, Dark)
			} else {
				Apply(root, Light)
			}
		}
	}
}

// MemoryStore keeps the choice in memory.
type MemoryStore struct {
	mu    sync.Mutex
	value string
	set   bool
}

// Get implements Store.
func (m *MemoryStore) Get() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.set
}

// Set implements Store.
func (m *MemoryStore) Set(t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = string(t), true
	return nil
}

// FileStore keeps the choice in a small YAML file.
type FileStore struct {
	Path string
}

type fileState struct {
	Theme string `yaml:"theme"`
}

// Get implements Store. A missing or unreadable file means nothing stored.
func (f FileStore) Get() (string, bool) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", false
	}
	var st fileState
	if err := yaml.Unmarshal(data, &st); err != nil || st.Theme == "" {
		return "", false
	}
	return st.Theme, true
}

// Set implements Store.
func (f FileStore) Set(t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}
	data, err := yaml.Marshal(fileState{Theme: string(t)})
	if err != nil {
		return fmt.Errorf("encoding theme: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("creating theme directory: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing theme file: %w", err)
	}
	return nil
}

// InitScript runs inline in <head> so the dark class is set before the first
// paint.
var InitScript = InitScriptFor(StorageKey)

// InitScriptFor is InitScript reading the choice from a custom storage key.
func InitScriptFor(key string) string {
	return `(function() {
  var stored = localStorage.getItem(` + strconv.Quote(key) + `);
  var prefersDark = window.matchMedia('(prefers-color-scheme: dark)').matches;
  if (stored === 'dark' || (!stored && prefersDark)) {
    document.documentElement.classList.add('dark');
  }
})();`
}

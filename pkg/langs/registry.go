package langs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nullsector/judged/pkg/judgeerr"
	"github.com/nullsector/judged/pkg/log"
)

// Registry is the immutable language_id -> plugin map built once at
// startup by scanning a plugins directory. It satisfies
// pkg/metrics.RegistrySource.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// LoadRegistry scans root for entries that are directories containing
// both spec.toml and a rootfs archive, loading each as a Plugin.
func LoadRegistry(root string) (*Registry, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("langs: reading plugin root %s: %w", root, err)
	}

	plugins := make(map[string]*Plugin)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "spec.toml")); err != nil {
			continue
		}

		plugin, err := Load(dir)
		if err != nil {
			log.Errorf(fmt.Sprintf("failed to load plugin from %s", dir), err)
			continue
		}
		if _, exists := plugins[plugin.ID]; exists {
			return nil, fmt.Errorf("langs: duplicate plugin id %s", plugin.ID)
		}
		plugins[plugin.ID] = plugin
		log.Info(fmt.Sprintf("loaded plugin %s (%s)", plugin.ID, plugin.spec.Name))
	}

	return &Registry{plugins: plugins}, nil
}

// Lookup resolves a language id to its Plugin, or a LangNotFound
// BadRequest error surfaced verbatim by the RPC layer.
func (r *Registry) Lookup(languageID string) (*Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[languageID]
	if !ok {
		return nil, judgeerr.LangNotFound(languageID)
	}
	return p, nil
}

// Len reports the number of loaded plugins, satisfying
// pkg/metrics.RegistrySource.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// List returns the public Info of every loaded plugin, for
// JudgerInfo.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Describe())
	}
	return out
}

package toggles

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Toggle is one persisted feature switch. Its file holds a single-field
// JSON object, e.g. {"aiEnabled": true}; the field name doubles as the
// toggle's label in logs. A missing or unreadable file means the default:
// enabled.
type Toggle struct {
	mu    sync.Mutex
	name  string
	path  string
	value bool
}

func New(name, path string) (*Toggle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	t := &Toggle{name: name, path: path, value: true}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read toggle %s: %w", name, err)
	}
	if len(data) == 0 {
		return t, nil
	}
	var record map[string]bool
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("⚠️ toggle %s store malformed, keeping default (on): %v", name, err)
		return t, nil
	}
	if v, ok := record[name]; ok {
		t.value = v
	} else {
		log.Printf("⚠️ toggle %s store has no %q field, keeping default (on)", name, name)
	}
	return t, nil
}

func (t *Toggle) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Flip negates the toggle, writes it to disk before returning, and logs
// the transition. Returns the new value.
func (t *Toggle) Flip() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.value
	t.value = !t.value
	if err := t.saveLocked(); err != nil {
		t.value = old
		return old, err
	}
	log.Printf("🔀 toggle %s: %v → %v", t.name, old, t.value)
	return t.value, nil
}

func (t *Toggle) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Toggle) saveLocked() error {
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open write: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]bool{t.name: t.value}); err != nil {
		return fmt.Errorf("encode toggle %s: %w", t.name, err)
	}
	return nil
}

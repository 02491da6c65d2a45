package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileRepository stores the conversation map as one pretty-printed JSON
// document, rewritten wholesale on every save. A file that fails to parse
// is quarantined (renamed with a timestamp suffix) and the history starts
// empty.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) Load() (map[int64][]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[int64][]Message), nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(data) == 0 {
		return make(map[int64][]Message), nil
	}
	var chats map[int64][]Message
	if err := json.Unmarshal(data, &chats); err != nil {
		quarantined := r.quarantine()
		log.Printf("⚠️ history file corrupted, quarantined as %s: %v", quarantined, err)
		return make(map[int64][]Message), nil
	}
	now := time.Now().UnixMilli()
	for id, msgs := range chats {
		chats[id] = sanitize(msgs, now)
	}
	return chats, nil
}

func (r *FileRepository) Save(chats map[int64][]Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clean := make(map[int64][]Message, len(chats))
	for id, msgs := range chats {
		clean[id] = sanitize(msgs, 0)
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
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
	if err := enc.Encode(clean); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return nil
}

// quarantine moves the unreadable file aside so a later save starts fresh.
// Returns the new name (best effort; the original path on rename failure).
func (r *FileRepository) quarantine() string {
	dst := fmt.Sprintf("%s.corrupt-%s", r.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(r.path, dst); err != nil {
		log.Printf("⚠️ failed to quarantine history file: %v", err)
		return r.path
	}
	return dst
}

// sanitize drops entries missing role or content and, when now is non-zero,
// backfills absent timestamps. Existing timestamps are never altered.
func sanitize(msgs []Message, now int64) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.Valid() {
			continue
		}
		if m.Timestamp == 0 && now != 0 {
			m.Timestamp = now
		}
		out = append(out, m)
	}
	return out
}

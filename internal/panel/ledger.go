package panel

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Ledger is the append-only record of every account the bot ever
// provisioned, one JSON array on disk.
type Ledger struct {
	mu       sync.Mutex
	path     string
	accounts []Account
}

// NewLedger loads the ledger from path, creating the file if needed.
// A malformed file is logged and treated as empty.
func NewLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	l := &Ledger{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(data) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l.accounts); err != nil {
		log.Printf("⚠️ panel ledger malformed, starting empty: %v", err)
		l.accounts = nil
	}
	return l, nil
}

// Append records a freshly provisioned account and writes the ledger to
// disk before returning.
func (l *Ledger) Append(acc Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = append(l.accounts, acc)
	if err := l.saveLocked(); err != nil {
		l.accounts = l.accounts[:len(l.accounts)-1]
		return err
	}
	return nil
}

func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.accounts)
}

func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *Ledger) saveLocked() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
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
	records := l.accounts
	if records == nil {
		records = []Account{}
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return nil
}

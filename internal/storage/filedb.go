// Package storage persists every user's declaration record in a single
// JSON document, rewritten wholesale after each successful mutation.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"declaration-bot/internal/domain"
)

type FileStore struct {
	mu      sync.Mutex
	path    string
	records map[domain.UserID]domain.Record
	log     *zap.Logger
}

// Open reads the backing document, initializing and persisting an empty
// collection when the file does not exist yet. Any I/O or decode failure
// here is fatal to the caller: the bot cannot run without a usable store.
func Open(path string, log *zap.Logger) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	s := &FileStore{
		path:    path,
		records: map[domain.UserID]domain.Record{},
		log:     log,
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case len(data) > 0:
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return s, nil
}

// flushLocked rewrites the whole document. Caller holds mu (or is the
// only reference, during Open). Write goes through a temp file and rename
// so a crash mid-write cannot truncate the previous state.
func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Get returns a copy of the user's record, lazily creating and persisting
// a default one for an unknown user. It never fails: a persist error on
// lazy creation is logged and the fresh record is still returned.
func (s *FileStore) Get(uid domain.UserID) domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[uid]
	if !ok {
		rec = domain.NewRecord()
		s.records[uid] = rec
		if err := s.flushLocked(); err != nil {
			s.log.Error("persist new record", zap.String("user", string(uid)), zap.Error(err))
		}
	}
	return rec.Clone()
}

// Mutate applies fn to the user's record and rewrites the document before
// returning. This is the only write path. When fn fails nothing changes;
// when the write fails the in-memory record is rolled back so memory and
// disk never disagree.
func (s *FileStore) Mutate(uid domain.UserID, fn func(*domain.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.records[uid]
	next := domain.NewRecord()
	if existed {
		next = prev.Clone()
	}
	if err := fn(&next); err != nil {
		return err
	}
	s.records[uid] = next
	if err := s.flushLocked(); err != nil {
		if existed {
			s.records[uid] = prev
		} else {
			delete(s.records, uid)
		}
		s.log.Error("persist records", zap.String("user", string(uid)), zap.Error(err))
		return fmt.Errorf("persist records: %w", err)
	}
	return nil
}

// HumanReadable renders the record as the reply to an info request.
func (s *FileStore) HumanReadable(uid domain.UserID) string {
	rec := s.Get(uid)
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", orUnset(rec.Name))
	fmt.Fprintf(&b, "Email: %s\n", orUnset(rec.Email))
	fmt.Fprintf(&b, "IBAN: %s\n", orUnset(rec.IBAN))
	fmt.Fprintf(&b, "Send copy to board: %v\n", rec.SendToBoard)
	if len(rec.LineItems) == 0 {
		b.WriteString("Items: none\n")
	} else {
		fmt.Fprintf(&b, "Items (total %s):\n", rec.Total().StringFixed(2))
		for _, it := range rec.LineItems {
			fmt.Fprintf(&b, "  - %s: %s\n", it.Description, it.Amount.StringFixed(2))
		}
	}
	if len(rec.Attachments) == 0 {
		b.WriteString("Attachments: none")
	} else {
		fmt.Fprintf(&b, "Attachments (%d):", len(rec.Attachments))
		for _, url := range rec.Attachments {
			fmt.Fprintf(&b, "\n  - %s", url)
		}
	}
	return b.String()
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

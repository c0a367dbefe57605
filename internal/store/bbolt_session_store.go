package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"nexus/internal/types"
)

var (
	bucketSessions = []byte("sessions")
	bucketMessages = []byte("messages")
)

type BboltSessionStore struct {
	db  *bolt.DB
	mu  sync.Mutex
	now func() time.Time
}

func NewBboltSessionStore(path string) (*BboltSessionStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("session db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltSessionStore{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSessions); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMessages); err != nil {
			return err
		}
		return nil
	})
}

func (s *BboltSessionStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// List returns sessions newest first, without their messages.
func (s *BboltSessionStore) List(ctx context.Context, limit, offset int) ([]*types.ChatSession, error) {
	records := make([]*sessionRecord, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var rec sessionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	records = page(records, limit, offset)
	out := make([]*types.ChatSession, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toSession(nil))
	}
	return out, nil
}

// Get returns the session with its full message history.
func (s *BboltSessionStore) Get(ctx context.Context, id string) (*types.ChatSession, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	var out *types.ChatSession
	err = s.db.View(func(tx *bolt.Tx) error {
		rec, err := loadSession(tx, id)
		if err != nil {
			return err
		}
		messages, err := loadMessages(tx, id)
		if err != nil {
			return err
		}
		out = rec.toSession(messages)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BboltSessionStore) Create(ctx context.Context, id, title string) (*types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec := &sessionRecord{ID: id, Title: strings.TrimSpace(title), CreatedAt: now, UpdatedAt: now}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return errors.New("sessions bucket missing")
		}
		key := []byte(id)
		if b.Get(key) != nil {
			return fmt.Errorf("session %s already exists", id)
		}
		return b.Put(key, raw)
	}); err != nil {
		return nil, err
	}
	return rec.toSession(nil), nil
}

func (s *BboltSessionStore) Rename(ctx context.Context, id, title string) (*types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	var out *types.ChatSession
	err = s.db.Update(func(tx *bolt.Tx) error {
		rec, err := loadSession(tx, id)
		if err != nil {
			return err
		}
		rec.Title = strings.TrimSpace(title)
		rec.UpdatedAt = s.now()
		if err := putSession(tx, rec); err != nil {
			return err
		}
		messages, err := loadMessages(tx, id)
		if err != nil {
			return err
		}
		out = rec.toSession(messages)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the session together with its messages.
func (s *BboltSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		messages := tx.Bucket(bucketMessages)
		if sessions == nil || messages == nil {
			return errors.New("session buckets missing")
		}
		key := []byte(id)
		if sessions.Get(key) == nil {
			return ErrSessionNotFound
		}
		if err := sessions.Delete(key); err != nil {
			return err
		}
		if messages.Bucket(key) != nil {
			return messages.DeleteBucket(key)
		}
		return nil
	})
}

// AppendMessage stores msg at the end of its session's history and bumps the
// session's updated time. ChatID must name an existing session.
func (s *BboltSessionStore) AppendMessage(ctx context.Context, msg *types.ChatMessage) (*types.ChatMessage, error) {
	if msg == nil {
		return nil, errors.New("message is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chatID, err := normalizeID(msg.ChatID.String())
	if err != nil {
		return nil, err
	}
	if !msg.Role.Valid() {
		return nil, fmt.Errorf("invalid message role %q", msg.Role)
	}
	now := s.now()
	rec := &messageRecord{
		ID:        strings.TrimSpace(msg.ID.String()),
		ChatID:    chatID,
		Role:      msg.Role,
		Content:   msg.Content,
		Model:     msg.Model,
		CreatedAt: now,
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		session, err := loadSession(tx, chatID)
		if err != nil {
			return err
		}
		root := tx.Bucket(bucketMessages)
		if root == nil {
			return errors.New("messages bucket missing")
		}
		b, err := root.CreateBucketIfNotExists([]byte(chatID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := b.Put(sequenceKey(seq), raw); err != nil {
			return err
		}
		session.UpdatedAt = now
		return putSession(tx, session)
	})
	if err != nil {
		return nil, err
	}
	return rec.toMessage(), nil
}

func loadSession(tx *bolt.Tx, id string) (*sessionRecord, error) {
	b := tx.Bucket(bucketSessions)
	if b == nil {
		return nil, ErrSessionNotFound
	}
	raw := b.Get([]byte(id))
	if len(raw) == 0 {
		return nil, ErrSessionNotFound
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func putSession(tx *bolt.Tx, rec *sessionRecord) error {
	b := tx.Bucket(bucketSessions)
	if b == nil {
		return errors.New("sessions bucket missing")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.Put([]byte(rec.ID), raw)
}

// loadMessages returns the session's messages in insertion order; bbolt keeps
// keys sorted and sequence keys are big-endian.
func loadMessages(tx *bolt.Tx, id string) ([]*types.ChatMessage, error) {
	out := make([]*types.ChatMessage, 0)
	root := tx.Bucket(bucketMessages)
	if root == nil {
		return out, nil
	}
	b := root.Bucket([]byte(id))
	if b == nil {
		return out, nil
	}
	err := b.ForEach(func(_, v []byte) error {
		var rec messageRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		out = append(out, rec.toMessage())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

var _ SessionStore = (*BboltSessionStore)(nil)

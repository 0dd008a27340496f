package store

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/digitalscyther/ai-cv-creator/interview"
)

// MemoryStore keeps conversations in memory, for tests and local runs
// without a database. Conversations are deep-copied on the way in and out so
// callers never share mutable state with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64][]byte)}
}

func (s *MemoryStore) Create(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	raw, err := sonic.Marshal(interview.NewConversation(id))
	if err != nil {
		return 0, err
	}
	s.byID[id] = raw
	return id, nil
}

func (s *MemoryStore) Load(ctx context.Context, id int64) (*interview.Conversation, error) {
	s.mu.RLock()
	raw, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var conv interview.Conversation
	if err := sonic.Unmarshal(raw, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *MemoryStore) Save(ctx context.Context, conv *interview.Conversation) error {
	raw, err := sonic.Marshal(conv)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.byID[conv.ID] = raw
	if conv.ID > s.nextID {
		s.nextID = conv.ID
	}
	s.mu.Unlock()
	return nil
}

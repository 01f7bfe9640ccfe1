package boards

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned by Get when no board is configured for a channel.
	ErrNotFound = errors.New("board not found")
	// ErrInvalidChannel is returned when a board would be built from a non-text channel.
	ErrInvalidChannel = errors.New("channels must be guild text channels")
)

// ChannelPair is the persisted configuration of one request board.
// RequestsChannelID is the unique key.
type ChannelPair struct {
	RequestsChannelID string `json:"requests_channel" bson:"requests_channel"`
	ArchiveChannelID  string `json:"archive_channel" bson:"archive_channel"`
	ManagerRoleID     string `json:"manager_role" bson:"manager_role"`
}

// Validate checks that every id of the pair is set.
func (p ChannelPair) Validate() error {
	switch {
	case p.RequestsChannelID == "":
		return fmt.Errorf("requests channel is required")
	case p.ArchiveChannelID == "":
		return fmt.Errorf("archive channel is required")
	case p.ManagerRoleID == "":
		return fmt.Errorf("manager role is required")
	}
	return nil
}

// Store persists request boards keyed by request channel.
//
// Upsert replaces any existing pair for the same key and never surfaces a
// conflict: concurrent writers leave exactly one record holding the last
// writer's value. Delete of a missing key succeeds.
type Store interface {
	Get(ctx context.Context, requestsChannelID string) (*ChannelPair, error)
	Upsert(ctx context.Context, pair ChannelPair) error
	Delete(ctx context.Context, requestsChannelID string) error
	List(ctx context.Context) ([]ChannelPair, error)
}

// Pinger is implemented by stores that can report backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// InMemoryStore is a threadsafe in-memory store for tests and local runs
type InMemoryStore struct {
	mu    sync.RWMutex
	pairs map[string]ChannelPair
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{pairs: make(map[string]ChannelPair)}
}

func (s *InMemoryStore) Get(ctx context.Context, requestsChannelID string) (*ChannelPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pairs[requestsChannelID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) Upsert(ctx context.Context, pair ChannelPair) error {
	if err := pair.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[pair.RequestsChannelID] = pair
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, requestsChannelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pairs, requestsChannelID)
	return nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]ChannelPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChannelPair, 0, len(s.pairs))
	for _, p := range s.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestsChannelID < out[j].RequestsChannelID })
	return out, nil
}

func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

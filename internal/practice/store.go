package practice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// StateStore keeps one wizard state per practice id. Load returns (nil, nil)
// for unknown or expired ids.
type StateStore interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, s State) error
	Delete(ctx context.Context, id string) error
}

type envelope struct {
	Step Step            `json:"step"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes a state with its step tag
func Encode(s State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s state: %w", s.Step(), err)
	}
	return json.Marshal(envelope{Step: s.Step(), Data: data})
}

// Decode restores a state produced by Encode
func Decode(b []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	var (
		s   State
		err error
	)
	switch env.Step {
	case StepSelectTeacher:
		s = SelectTeacher{}
	case StepEnterName:
		var v EnterName
		err = json.Unmarshal(env.Data, &v)
		s = v
	case StepSelectWordSet:
		var v SelectWordSet
		err = json.Unmarshal(env.Data, &v)
		s = v
	case StepAnswering:
		var v Answering
		err = json.Unmarshal(env.Data, &v)
		s = v
	case StepComplete:
		var v Complete
		err = json.Unmarshal(env.Data, &v)
		s = v
	default:
		return nil, fmt.Errorf("unknown wizard step %q", env.Step)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s state: %w", env.Step, err)
	}
	return s, nil
}

// MemoryStore is a process-local StateStore for single-instance deployments
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates a store whose entries expire ttl after their last save
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	if ok && m.now().After(entry.expiresAt) {
		delete(m.entries, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return Decode(entry.data)
}

func (m *MemoryStore) Save(_ context.Context, id string, s State) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[id] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Cleanup removes expired entries and returns how many were dropped
func (m *MemoryStore) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored states, expired or not
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

package mcp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"baobab/src/github"
)

// CursorStore keeps unconsumed search pages between tool calls.
type CursorStore interface {
	// Put saves page and returns the cursor ID that retrieves it.
	Put(page *github.Page) string
	// Take removes and returns the page for a cursor. A cursor can be taken once.
	Take(cursorID string) (*github.Page, bool)
}

// Cursor limits. Pages behind abandoned cursors are dropped after CursorTTL,
// and the oldest cursor is evicted once MaxCursors are outstanding.
const (
	CursorTTL  = 30 * time.Minute
	MaxCursors = 256
)

type parkedPage struct {
	page     *github.Page
	parkedAt time.Time
}

// InMemoryStore is a thread-safe in-memory implementation of CursorStore.
type InMemoryStore struct {
	mu    sync.Mutex
	pages map[string]parkedPage
	ttl   time.Duration
	max   int
	now   func() time.Time
}

// NewInMemoryStore creates a new in-memory cursor store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		pages: make(map[string]parkedPage),
		ttl:   CursorTTL,
		max:   MaxCursors,
		now:   time.Now,
	}
}

func (s *InMemoryStore) Put(page *github.Page) string {
	id := generateCursorID()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	for len(s.pages) >= s.max {
		s.evictOldestLocked()
	}

	s.pages[id] = parkedPage{page: page, parkedAt: now}
	return id
}

func (s *InMemoryStore) Take(cursorID string) (*github.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parked, ok := s.pages[cursorID]
	if !ok {
		return nil, false
	}
	delete(s.pages, cursorID)

	if s.expired(parked, s.now()) {
		return nil, false
	}
	return parked.page, true
}

// Len reports how many cursors are outstanding.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

func (s *InMemoryStore) expired(p parkedPage, now time.Time) bool {
	return now.Sub(p.parkedAt) > s.ttl
}

func (s *InMemoryStore) pruneLocked(now time.Time) {
	for id, parked := range s.pages {
		if s.expired(parked, now) {
			delete(s.pages, id)
		}
	}
}

func (s *InMemoryStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, parked := range s.pages {
		if oldestID == "" || parked.parkedAt.Before(oldest) {
			oldestID, oldest = id, parked.parkedAt
		}
	}
	delete(s.pages, oldestID)
}

// generateCursorID creates a unique cursor identifier.
// Format: cur-YYYYMMDDTHHmmss-XXXXXXXX
func generateCursorID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	randomBytes := make([]byte, 4)
	rand.Read(randomBytes)
	return fmt.Sprintf("cur-%s-%s", timestamp, hex.EncodeToString(randomBytes))
}

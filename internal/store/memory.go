// Package store provides the in-memory user and call-log stores. Both are
// process-local and lost on restart; durable persistence sits behind a
// separate service boundary.
package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/sabihealth/advisory-service/internal/domain"
)

// ErrNotFound reports a lookup for an id that was never stored.
var ErrNotFound = errors.New("not found")

// Users is a concurrency-safe in-memory user registry.
type Users struct {
	mu    sync.RWMutex
	users map[string]domain.User
	order []string // preserves registration order for listings
}

// NewUsers creates an empty user store.
func NewUsers() *Users {
	return &Users{users: make(map[string]domain.User)}
}

// Create registers a user, assigning a fresh id when none is set, and
// returns the stored record.
func (s *Users) Create(u domain.User) domain.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; !exists {
		s.order = append(s.order, u.ID)
	}
	s.users[u.ID] = u
	return u
}

// Get returns the user with the given id.
func (s *Users) Get(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// List returns all users in registration order.
func (s *Users) List() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id])
	}
	return out
}

// IDs returns a snapshot of all user ids. Sweeps iterate this snapshot, so
// users registered mid-sweep are picked up on the next one.
func (s *Users) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// CallLogs is a concurrency-safe append-only call log. The only permitted
// mutation after append is setting an entry's response.
type CallLogs struct {
	mu   sync.RWMutex
	logs []domain.CallLog
	byID map[string]int
}

// NewCallLogs creates an empty call-log store.
func NewCallLogs() *CallLogs {
	return &CallLogs{byID: make(map[string]int)}
}

// Append adds a completed evaluation's log entry.
func (s *CallLogs) Append(log domain.CallLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[log.ID] = len(s.logs)
	s.logs = append(s.logs, log)
}

// Get returns the log entry with the given id.
func (s *CallLogs) Get(id string) (domain.CallLog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.CallLog{}, false
	}
	return s.logs[i], true
}

// SetResponse records the user's acknowledgment for a call. Repeated calls
// overwrite the field; this is a rare, human-paced action.
func (s *CallLogs) SetResponse(id, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.logs[i].Response = &response
	return nil
}

// List returns a snapshot of all log entries in append order.
func (s *CallLogs) List() []domain.CallLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CallLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// Len returns the number of log entries.
func (s *CallLogs) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

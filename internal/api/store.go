package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soaringjerry/devlevel/internal/services"
)

type memoryStore struct {
	mu          sync.RWMutex
	users       map[string]*services.User
	userByEmail map[string]string
	entries     map[string]*services.Entry
	reflections map[string]*services.Reflection
	experiments map[string]*services.Experiment
}

// NewMemoryStore returns a process-local Store, used for development and tests.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       map[string]*services.User{},
		userByEmail: map[string]string{},
		entries:     map[string]*services.Entry{},
		reflections: map[string]*services.Reflection{},
		experiments: map[string]*services.Experiment{},
	}
}

func (s *memoryStore) Close() error { return nil }

func copyUser(u *services.User) *services.User {
	c := *u
	c.PassHash = append([]byte(nil), u.PassHash...)
	return &c
}

func copyEntry(e *services.Entry) *services.Entry {
	c := *e
	if e.Difficulty != nil {
		v := *e.Difficulty
		c.Difficulty = &v
	}
	if e.AutonomyScore != nil {
		v := *e.AutonomyScore
		c.AutonomyScore = &v
	}
	return &c
}

func copyReflection(r *services.Reflection) *services.Reflection {
	c := *r
	if r.AutonomyAverage != nil {
		v := *r.AutonomyAverage
		c.AutonomyAverage = &v
	}
	return &c
}

func copyExperiment(exp *services.Experiment) *services.Experiment {
	c := *exp
	c.ComplianceLog = make([]services.ComplianceRecord, len(exp.ComplianceLog))
	copy(c.ComplianceLog, exp.ComplianceLog)
	return &c
}

// Users

func (s *memoryStore) AddUser(_ context.Context, u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userByEmail[u.Email]; ok {
		return services.NewConflictError("email exists")
	}
	s.users[u.ID] = copyUser(u)
	s.userByEmail[u.Email] = u.ID
	return nil
}

func (s *memoryStore) FindUserByEmail(_ context.Context, email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userByEmail[email]
	if !ok {
		return nil, nil
	}
	return copyUser(s.users[id]), nil
}

func (s *memoryStore) GetUser(_ context.Context, id string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

// Entries

func (s *memoryStore) InsertEntry(_ context.Context, e *services.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = copyEntry(e)
	return nil
}

func (s *memoryStore) GetEntry(_ context.Context, userID, id string) (*services.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	return copyEntry(e), nil
}

func (s *memoryStore) UpdateEntry(_ context.Context, e *services.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[e.ID]
	if !ok || cur.UserID != e.UserID {
		return services.NewNotFoundError("entry not found")
	}
	s.entries[e.ID] = copyEntry(e)
	return nil
}

func (s *memoryStore) DeleteEntry(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

// ListEntries returns newest first; ties keep creation order reversed.
func (s *memoryStore) ListEntries(_ context.Context, userID string, q services.EntryQuery) ([]*services.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Entry{}
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if q.From != nil && e.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && e.Date.After(*q.To) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Reflections

func (s *memoryStore) InsertReflection(_ context.Context, r *services.Reflection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.reflections {
		if cur.UserID == r.UserID && cur.WeekStart.Equal(r.WeekStart) {
			return services.NewConflictError("reflection already exists for this week")
		}
	}
	s.reflections[r.ID] = copyReflection(r)
	return nil
}

func (s *memoryStore) GetReflectionByWeek(_ context.Context, userID string, weekStart time.Time) (*services.Reflection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reflections {
		if r.UserID == userID && r.WeekStart.Equal(weekStart) {
			return copyReflection(r), nil
		}
	}
	return nil, nil
}

func (s *memoryStore) UpdateReflection(_ context.Context, r *services.Reflection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.reflections[r.ID]
	if !ok || cur.UserID != r.UserID {
		return services.NewNotFoundError("reflection not found")
	}
	s.reflections[r.ID] = copyReflection(r)
	return nil
}

func (s *memoryStore) ListReflections(_ context.Context, userID string, limit int) ([]*services.Reflection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Reflection{}
	for _, r := range s.reflections {
		if r.UserID == userID {
			out = append(out, copyReflection(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Experiments

func (s *memoryStore) InsertExperiment(_ context.Context, exp *services.Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.experiments[exp.ID] = copyExperiment(exp)
	return nil
}

func (s *memoryStore) GetExperiment(_ context.Context, userID, id string) (*services.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.experiments[id]
	if !ok || exp.UserID != userID {
		return nil, nil
	}
	return copyExperiment(exp), nil
}

// UpdateExperiment keeps the stored compliance log; only LogCompliance writes it.
func (s *memoryStore) UpdateExperiment(_ context.Context, exp *services.Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.experiments[exp.ID]
	if !ok || cur.UserID != exp.UserID {
		return services.NewNotFoundError("experiment not found")
	}
	next := copyExperiment(exp)
	next.ComplianceLog = cur.ComplianceLog
	s.experiments[exp.ID] = next
	return nil
}

func (s *memoryStore) DeleteExperiment(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.experiments[id]
	if !ok || exp.UserID != userID {
		return false, nil
	}
	delete(s.experiments, id)
	return true, nil
}

func (s *memoryStore) ListExperiments(_ context.Context, userID string) ([]*services.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Experiment{}
	for _, exp := range s.experiments {
		if exp.UserID == userID {
			out = append(out, copyExperiment(exp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) UpsertComplianceRecord(_ context.Context, userID, experimentID string, rec services.ComplianceRecord, updatedAt time.Time) (*services.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.experiments[experimentID]
	if !ok || exp.UserID != userID {
		return nil, nil
	}
	exp.ComplianceLog = services.UpsertComplianceRecord(exp.ComplianceLog, rec)
	exp.UpdatedAt = updatedAt
	return copyExperiment(exp), nil
}

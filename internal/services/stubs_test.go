package services

import (
	"context"
	"sort"
	"time"
)

type entryStubStore struct {
	entries map[string]*Entry
	lastQ   EntryQuery
}

func newEntryStubStore() *entryStubStore {
	return &entryStubStore{entries: map[string]*Entry{}}
}

func (s *entryStubStore) InsertEntry(_ context.Context, e *Entry) error {
	copy := *e
	s.entries[e.ID] = &copy
	return nil
}

func (s *entryStubStore) GetEntry(_ context.Context, userID, id string) (*Entry, error) {
	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	copy := *e
	return &copy, nil
}

func (s *entryStubStore) UpdateEntry(_ context.Context, e *Entry) error {
	copy := *e
	s.entries[e.ID] = &copy
	return nil
}

func (s *entryStubStore) DeleteEntry(_ context.Context, userID, id string) (bool, error) {
	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

func (s *entryStubStore) ListEntries(_ context.Context, userID string, q EntryQuery) ([]*Entry, error) {
	s.lastQ = q
	var out []*Entry
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
		copy := *e
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type reflectionStubStore struct {
	items []*Reflection
}

func (s *reflectionStubStore) InsertReflection(_ context.Context, r *Reflection) error {
	for _, it := range s.items {
		if it.UserID == r.UserID && it.WeekStart.Equal(r.WeekStart) {
			return NewConflictError("reflection already exists for this week")
		}
	}
	copy := *r
	s.items = append(s.items, &copy)
	return nil
}

func (s *reflectionStubStore) GetReflectionByWeek(_ context.Context, userID string, week time.Time) (*Reflection, error) {
	for _, it := range s.items {
		if it.UserID == userID && it.WeekStart.Equal(week) {
			copy := *it
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *reflectionStubStore) UpdateReflection(_ context.Context, r *Reflection) error {
	for i, it := range s.items {
		if it.ID == r.ID {
			copy := *r
			s.items[i] = &copy
		}
	}
	return nil
}

func (s *reflectionStubStore) ListReflections(_ context.Context, userID string, limit int) ([]*Reflection, error) {
	var out []*Reflection
	for _, it := range s.items {
		if it.UserID == userID {
			copy := *it
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type experimentStubStore struct {
	items map[string]*Experiment
}

func newExperimentStubStore() *experimentStubStore {
	return &experimentStubStore{items: map[string]*Experiment{}}
}

func (s *experimentStubStore) InsertExperiment(_ context.Context, exp *Experiment) error {
	copy := *exp
	s.items[exp.ID] = &copy
	return nil
}

func (s *experimentStubStore) GetExperiment(_ context.Context, userID, id string) (*Experiment, error) {
	exp, ok := s.items[id]
	if !ok || exp.UserID != userID {
		return nil, nil
	}
	copy := *exp
	return &copy, nil
}

func (s *experimentStubStore) UpdateExperiment(_ context.Context, exp *Experiment) error {
	copy := *exp
	s.items[exp.ID] = &copy
	return nil
}

func (s *experimentStubStore) DeleteExperiment(_ context.Context, userID, id string) (bool, error) {
	exp, ok := s.items[id]
	if !ok || exp.UserID != userID {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *experimentStubStore) ListExperiments(_ context.Context, userID string) ([]*Experiment, error) {
	var out []*Experiment
	for _, exp := range s.items {
		if exp.UserID == userID {
			copy := *exp
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *experimentStubStore) UpsertComplianceRecord(_ context.Context, userID, id string, rec ComplianceRecord, updatedAt time.Time) (*Experiment, error) {
	exp, ok := s.items[id]
	if !ok || exp.UserID != userID {
		return nil, nil
	}
	exp.ComplianceLog = UpsertComplianceRecord(exp.ComplianceLog, rec)
	exp.UpdatedAt = updatedAt
	copy := *exp
	return &copy, nil
}

package services

import (
	"context"
	"time"
)

// ReflectionStore must refuse a second reflection for the same user and week
// with a conflict error.
type ReflectionStore interface {
	InsertReflection(ctx context.Context, r *Reflection) error
	GetReflectionByWeek(ctx context.Context, userID string, weekStart time.Time) (*Reflection, error)
	UpdateReflection(ctx context.Context, r *Reflection) error
	ListReflections(ctx context.Context, userID string, limit int) ([]*Reflection, error)
}

type ReflectionService struct {
	store        ReflectionStore
	loc          *time.Location
	now          func() time.Time
	idGen        func() string
	defaultLimit int
}

type ReflectionInput struct {
	WeekStartDate    string   `json:"week_start_date"`
	WhatDidILearn    string   `json:"what_did_i_learn"`
	WhereDidIImprove string   `json:"where_did_i_improve"`
	MainChallenge    string   `json:"main_challenge"`
	AutonomyAverage  *float64 `json:"autonomy_average"`
}

// ReflectionPatch updates only the fields that are present; a null
// AutonomyAverage clears it.
type ReflectionPatch struct {
	WhatDidILearn    *string           `json:"what_did_i_learn"`
	WhereDidIImprove *string           `json:"where_did_i_improve"`
	MainChallenge    *string           `json:"main_challenge"`
	AutonomyAverage  Nullable[float64] `json:"autonomy_average"`
}

func NewReflectionService(store ReflectionStore, loc *time.Location, defaultLimit int) *ReflectionService {
	if loc == nil {
		loc = time.UTC
	}
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &ReflectionService{
		store:        store,
		loc:          loc,
		now:          func() time.Time { return time.Now().UTC() },
		idGen:        newID,
		defaultLimit: defaultLimit,
	}
}

// Create stores the reflection under the Monday of the given date's week.
// A reflection already present for that week is a conflict, never a duplicate.
func (s *ReflectionService) Create(ctx context.Context, userID string, in ReflectionInput) (*Reflection, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if in.WeekStartDate == "" {
		return nil, NewInvalidError("week_start_date required")
	}
	week, err := s.parseWeek(in.WeekStartDate)
	if err != nil {
		return nil, err
	}
	if err := validateScore(in.AutonomyAverage, "autonomy_average must be between 0 and 10"); err != nil {
		return nil, err
	}
	existing, err := s.store.GetReflectionByWeek(ctx, userID, week)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("reflection already exists for this week")
	}
	now := s.now()
	r := &Reflection{
		ID:               s.idGen(),
		UserID:           userID,
		WeekStart:        week,
		WhatDidILearn:    in.WhatDidILearn,
		WhereDidIImprove: in.WhereDidIImprove,
		MainChallenge:    in.MainChallenge,
		AutonomyAverage:  in.AutonomyAverage,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.InsertReflection(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReflectionService) GetByWeek(ctx context.Context, userID, date string) (*Reflection, error) {
	week, err := s.parseWeek(date)
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetReflectionByWeek(ctx, userID, week)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, NewNotFoundError("reflection not found")
	}
	return r, nil
}

func (s *ReflectionService) Update(ctx context.Context, userID, date string, patch ReflectionPatch) (*Reflection, error) {
	r, err := s.GetByWeek(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if err := validateScore(patch.AutonomyAverage.Value, "autonomy_average must be between 0 and 10"); err != nil {
		return nil, err
	}
	if patch.WhatDidILearn != nil {
		r.WhatDidILearn = *patch.WhatDidILearn
	}
	if patch.WhereDidIImprove != nil {
		r.WhereDidIImprove = *patch.WhereDidIImprove
	}
	if patch.MainChallenge != nil {
		r.MainChallenge = *patch.MainChallenge
	}
	if patch.AutonomyAverage.Set {
		r.AutonomyAverage = patch.AutonomyAverage.Value
	}
	r.UpdatedAt = s.now()
	if err := s.store.UpdateReflection(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns the newest weeks first.
func (s *ReflectionService) List(ctx context.Context, userID string, limit int) ([]*Reflection, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return s.store.ListReflections(ctx, userID, limit)
}

func (s *ReflectionService) parseWeek(date string) (time.Time, error) {
	d, err := ParseDay(date, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return WeekStart(d), nil
}

package services

import (
	"context"
	"strings"
	"time"
)

type EntryStore interface {
	InsertEntry(ctx context.Context, e *Entry) error
	GetEntry(ctx context.Context, userID, id string) (*Entry, error)
	UpdateEntry(ctx context.Context, e *Entry) error
	DeleteEntry(ctx context.Context, userID, id string) (bool, error)
	ListEntries(ctx context.Context, userID string, q EntryQuery) ([]*Entry, error)
}

type EntryService struct {
	store        EntryStore
	loc          *time.Location
	now          func() time.Time
	idGen        func() string
	defaultLimit int
	maxLimit     int
}

type EntryInput struct {
	Date                    string    `json:"date"`
	Kind                    EntryKind `json:"entry_type"`
	ProjectName             string    `json:"project_name"`
	Description             string    `json:"description"`
	Learned                 string    `json:"learned"`
	Difficulty              *int      `json:"difficulty"`
	AutonomyScore           *float64  `json:"autonomy_score"`
	DeepWorkBlockCompleted  bool      `json:"deep_work_block_completed"`
	InterruptionManagedWell bool      `json:"interruption_managed_well"`
}

// EntryPatch updates only the fields that are present. Difficulty and
// AutonomyScore are cleared by an explicit null.
type EntryPatch struct {
	Date                    *string           `json:"date"`
	Kind                    *EntryKind        `json:"entry_type"`
	ProjectName             *string           `json:"project_name"`
	Description             *string           `json:"description"`
	Learned                 *string           `json:"learned"`
	Difficulty              Nullable[int]     `json:"difficulty"`
	AutonomyScore           Nullable[float64] `json:"autonomy_score"`
	DeepWorkBlockCompleted  *bool             `json:"deep_work_block_completed"`
	InterruptionManagedWell *bool             `json:"interruption_managed_well"`
}

type EntryListOptions struct {
	From  string
	To    string
	Limit int
}

func NewEntryService(store EntryStore, loc *time.Location, defaultLimit, maxLimit int) *EntryService {
	if loc == nil {
		loc = time.UTC
	}
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &EntryService{
		store:        store,
		loc:          loc,
		now:          func() time.Time { return time.Now().UTC() },
		idGen:        newID,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

func (s *EntryService) Create(ctx context.Context, userID string, in EntryInput) (*Entry, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if strings.TrimSpace(in.Date) == "" {
		return nil, NewInvalidError("date required")
	}
	date, err := ParseDay(in.Date, s.loc)
	if err != nil {
		return nil, err
	}
	if err := validateEntryFields(in.Kind, in.Difficulty, in.AutonomyScore); err != nil {
		return nil, err
	}
	now := s.now()
	e := &Entry{
		ID:                      s.idGen(),
		UserID:                  userID,
		Date:                    date,
		Kind:                    in.Kind,
		ProjectName:             strings.TrimSpace(in.ProjectName),
		Description:             in.Description,
		Learned:                 in.Learned,
		Difficulty:              in.Difficulty,
		AutonomyScore:           in.AutonomyScore,
		DeepWorkBlockCompleted:  in.DeepWorkBlockCompleted,
		InterruptionManagedWell: in.InterruptionManagedWell,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.store.InsertEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns the newest entries first. Without a limit the configured
// default cap applies; larger limits are clamped to the maximum.
func (s *EntryService) List(ctx context.Context, userID string, opts EntryListOptions) ([]*Entry, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	q := EntryQuery{Limit: opts.Limit}
	if q.Limit <= 0 {
		q.Limit = s.defaultLimit
	}
	if q.Limit > s.maxLimit {
		q.Limit = s.maxLimit
	}
	if opts.From != "" {
		from, err := ParseDay(opts.From, s.loc)
		if err != nil {
			return nil, err
		}
		q.From = &from
	}
	if opts.To != "" {
		to, err := ParseDay(opts.To, s.loc)
		if err != nil {
			return nil, err
		}
		q.To = &to
	}
	return s.store.ListEntries(ctx, userID, q)
}

func (s *EntryService) Get(ctx context.Context, userID, id string) (*Entry, error) {
	e, err := s.store.GetEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, NewNotFoundError("entry not found")
	}
	return e, nil
}

func (s *EntryService) Update(ctx context.Context, userID, id string, patch EntryPatch) (*Entry, error) {
	e, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Date != nil {
		date, err := ParseDay(*patch.Date, s.loc)
		if err != nil {
			return nil, err
		}
		e.Date = date
	}
	if patch.Kind != nil {
		e.Kind = *patch.Kind
	}
	if patch.ProjectName != nil {
		e.ProjectName = strings.TrimSpace(*patch.ProjectName)
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Learned != nil {
		e.Learned = *patch.Learned
	}
	if patch.Difficulty.Set {
		e.Difficulty = patch.Difficulty.Value
	}
	if patch.AutonomyScore.Set {
		e.AutonomyScore = patch.AutonomyScore.Value
	}
	if patch.DeepWorkBlockCompleted != nil {
		e.DeepWorkBlockCompleted = *patch.DeepWorkBlockCompleted
	}
	if patch.InterruptionManagedWell != nil {
		e.InterruptionManagedWell = *patch.InterruptionManagedWell
	}
	if err := validateEntryFields(e.Kind, e.Difficulty, e.AutonomyScore); err != nil {
		return nil, err
	}
	e.UpdatedAt = s.now()
	if err := s.store.UpdateEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EntryService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.store.DeleteEntry(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("entry not found")
	}
	return nil
}

func validateEntryFields(kind EntryKind, difficulty *int, autonomy *float64) error {
	if !kind.Valid() {
		return NewInvalidError("entry_type must be project, incident or study")
	}
	if difficulty != nil && (*difficulty < 1 || *difficulty > 5) {
		return NewInvalidError("difficulty must be between 1 and 5")
	}
	if err := validateScore(autonomy, "autonomy_score must be between 0 and 10"); err != nil {
		return err
	}
	return nil
}

func validateScore(v *float64, msg string) error {
	if v != nil && (*v < 0 || *v > 10) {
		return NewInvalidError(msg)
	}
	return nil
}

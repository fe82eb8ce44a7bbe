package services

import (
	"context"
	"strings"
	"time"
)

// ExperimentStore is scoped by user on every call. UpsertComplianceRecord
// replaces any record of the same day, keeps the log sorted and sets the
// experiment's UpdatedAt to updatedAt; it returns nil when the experiment does
// not exist for userID.
type ExperimentStore interface {
	InsertExperiment(ctx context.Context, exp *Experiment) error
	GetExperiment(ctx context.Context, userID, id string) (*Experiment, error)
	UpdateExperiment(ctx context.Context, exp *Experiment) error
	DeleteExperiment(ctx context.Context, userID, id string) (bool, error)
	ListExperiments(ctx context.Context, userID string) ([]*Experiment, error)
	UpsertComplianceRecord(ctx context.Context, userID, experimentID string, rec ComplianceRecord, updatedAt time.Time) (*Experiment, error)
}

// EntryLister is the read side of the entry store used by aggregations.
type EntryLister interface {
	ListEntries(ctx context.Context, userID string, q EntryQuery) ([]*Entry, error)
}

type ExperimentService struct {
	store   ExperimentStore
	entries EntryLister
	rules   PointRules
	loc     *time.Location
	now     func() time.Time
	idGen   func() string
}

type ExperimentInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	TargetMetric string `json:"target_metric"`
}

type ExperimentPatch struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	TargetMetric *string `json:"target_metric"`
}

type ComplianceInput struct {
	Date      string   `json:"date"`
	Completed *bool    `json:"completed"`
	Value     *float64 `json:"value"`
}

func NewExperimentService(store ExperimentStore, entries EntryLister, rules PointRules, loc *time.Location) *ExperimentService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExperimentService{
		store:   store,
		entries: entries,
		rules:   rules,
		loc:     loc,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   newID,
	}
}

func (s *ExperimentService) Create(ctx context.Context, userID string, in ExperimentInput) (*Experiment, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewInvalidError("name required")
	}
	metric := strings.TrimSpace(in.TargetMetric)
	if metric == "" {
		return nil, NewInvalidError("target_metric required")
	}
	start, end, err := s.parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	exp := &Experiment{
		ID:            s.idGen(),
		UserID:        userID,
		Name:          name,
		Description:   in.Description,
		StartDate:     start,
		EndDate:       end,
		TargetMetric:  metric,
		ComplianceLog: []ComplianceRecord{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.InsertExperiment(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *ExperimentService) List(ctx context.Context, userID string) ([]*Experiment, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	return s.store.ListExperiments(ctx, userID)
}

func (s *ExperimentService) Get(ctx context.Context, userID, id string) (*Experiment, error) {
	exp, err := s.store.GetExperiment(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, NewNotFoundError("experiment not found")
	}
	return exp, nil
}

func (s *ExperimentService) Update(ctx context.Context, userID, id string, patch ExperimentPatch) (*Experiment, error) {
	exp, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, NewInvalidError("name required")
		}
		exp.Name = name
	}
	if patch.TargetMetric != nil {
		metric := strings.TrimSpace(*patch.TargetMetric)
		if metric == "" {
			return nil, NewInvalidError("target_metric required")
		}
		exp.TargetMetric = metric
	}
	if patch.Description != nil {
		exp.Description = *patch.Description
	}
	startRaw := exp.StartDate.Format(DayLayout)
	endRaw := exp.EndDate.Format(DayLayout)
	if patch.StartDate != nil {
		startRaw = *patch.StartDate
	}
	if patch.EndDate != nil {
		endRaw = *patch.EndDate
	}
	start, end, err := s.parseRange(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	exp.StartDate, exp.EndDate = start, end
	exp.UpdatedAt = s.now()
	if err := s.store.UpdateExperiment(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *ExperimentService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.store.DeleteExperiment(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("experiment not found")
	}
	return nil
}

// LogCompliance records the day's outcome, replacing an earlier record for
// the same day.
func (s *ExperimentService) LogCompliance(ctx context.Context, userID, id string, in ComplianceInput) (*Experiment, error) {
	if in.Date == "" {
		return nil, NewInvalidError("date required")
	}
	if in.Completed == nil {
		return nil, NewInvalidError("completed required")
	}
	d, err := ParseDay(in.Date, s.loc)
	if err != nil {
		return nil, err
	}
	rec := ComplianceRecord{Date: d, Completed: *in.Completed, Value: in.Value}
	exp, err := s.store.UpsertComplianceRecord(ctx, userID, id, rec, s.now())
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, NewNotFoundError("experiment not found")
	}
	return exp, nil
}

// Correlation re-reads the experiment and the entries of its date range and
// joins them by ISO week.
func (s *ExperimentService) Correlation(ctx context.Context, userID, id string) (*Correlation, error) {
	exp, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	from, to := exp.StartDate, exp.EndDate
	entries, err := s.entries.ListEntries(ctx, userID, EntryQuery{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return BuildCorrelation(exp, entries, s.rules), nil
}

func (s *ExperimentService) parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, NewInvalidError("start_date and end_date required")
	}
	start, err := ParseDay(startRaw, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDay(endRaw, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, NewInvalidError("end_date must not be before start_date")
	}
	return start, end, nil
}

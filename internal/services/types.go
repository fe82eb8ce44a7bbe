package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntryKind classifies a daily entry.
type EntryKind string

const (
	KindProject  EntryKind = "project"
	KindIncident EntryKind = "incident"
	KindStudy    EntryKind = "study"
)

// EntryKinds lists every kind in display order.
var EntryKinds = []EntryKind{KindProject, KindIncident, KindStudy}

func (k EntryKind) Valid() bool {
	switch k {
	case KindProject, KindIncident, KindStudy:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is one logged activity. Date is always a calendar day (see DayOf);
// points are never stored, they are derived on read.
type Entry struct {
	ID                      string    `json:"id"`
	UserID                  string    `json:"user_id"`
	Date                    time.Time `json:"date"`
	Kind                    EntryKind `json:"entry_type"`
	ProjectName             string    `json:"project_name,omitempty"`
	Description             string    `json:"description,omitempty"`
	Learned                 string    `json:"learned,omitempty"`
	Difficulty              *int      `json:"difficulty,omitempty"`
	AutonomyScore           *float64  `json:"autonomy_score,omitempty"`
	DeepWorkBlockCompleted  bool      `json:"deep_work_block_completed"`
	InterruptionManagedWell bool      `json:"interruption_managed_well"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// EntryQuery bounds a listing. Zero From/To means unbounded, Limit <= 0 means no cap.
type EntryQuery struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Reflection is the weekly retrospective, unique per (user, week start).
type Reflection struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	WeekStart        time.Time `json:"week_start_date"`
	WhatDidILearn    string    `json:"what_did_i_learn,omitempty"`
	WhereDidIImprove string    `json:"where_did_i_improve,omitempty"`
	MainChallenge    string    `json:"main_challenge,omitempty"`
	AutonomyAverage  *float64  `json:"autonomy_average,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ComplianceRecord marks whether the experiment's habit was followed on Date.
type ComplianceRecord struct {
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	Value     *float64  `json:"value,omitempty"`
}

// Experiment is a time-boxed habit trial. ComplianceLog holds at most one
// record per day, sorted ascending.
type Experiment struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	TargetMetric  string             `json:"target_metric"`
	ComplianceLog []ComplianceRecord `json:"compliance_log"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

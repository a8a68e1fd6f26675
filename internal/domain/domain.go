package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a lost optimistic version check on update.
	ErrConflict = errors.New("version conflict")
)

type Status string

const (
	StatusNew        Status = "new"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus accepts the wire names of the workflow states.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNew, StatusAssigned, StatusInProgress, StatusCompleted:
		return st, nil
	}
	return "", errors.New("invalid status " + s)
}

// DeriveStatus computes the workflow state from the assignment and timestamp
// fields. Completion wins over start, start over assignment.
func DeriveStatus(assignedTo *string, startedAt, completedAt *time.Time) Status {
	switch {
	case completedAt != nil:
		return StatusCompleted
	case startedAt != nil:
		return StatusInProgress
	case assignedTo != nil:
		return StatusAssigned
	default:
		return StatusNew
	}
}

type TranslationState string

const (
	TranslationTranslated  TranslationState = "translated"
	TranslationPassthrough TranslationState = "passthrough"
	TranslationFailed      TranslationState = "failed"
)

type FaultReport struct {
	ID               string           `json:"id"`
	AssetID          *string          `json:"asset_id,omitempty"`
	Title            string           `json:"title"`
	OriginalText     string           `json:"original_text"`
	OriginalLanguage Language         `json:"original_language"`
	TranslatedText   string           `json:"translated_text"`
	TargetLanguage   Language         `json:"target_language"`
	Translation      TranslationState `json:"translation"`
	Priority         Priority         `json:"priority"`
	AssignedTo       *string          `json:"assigned_to,omitempty"`
	StartedAt        *time.Time       `json:"started_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CompletedBy      *string          `json:"completed_by,omitempty"`
	RepairStatus     bool             `json:"repair_status"`
	ImageRef         string           `json:"image_ref,omitempty"`
	ReporterID       string           `json:"reporter_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Version          int64            `json:"version"`
}

func (r FaultReport) Status() Status {
	return DeriveStatus(r.AssignedTo, r.StartedAt, r.CompletedAt)
}

// Open reports whether the report still needs work.
func (r FaultReport) Open() bool {
	return r.CompletedAt == nil
}

// ReportFilter narrows report listings. Zero values mean "any".
type ReportFilter struct {
	Status            Status
	AssignedTo        string
	AssetID           string
	OpenOnly          bool
	TranslationFailed bool
	Limit             int
}

// Matches applies the filter in memory; stores use it for the derived status.
func (f ReportFilter) Matches(r FaultReport) bool {
	if f.Status != "" && r.Status() != f.Status {
		return false
	}
	if f.AssignedTo != "" && (r.AssignedTo == nil || *r.AssignedTo != f.AssignedTo) {
		return false
	}
	if f.AssetID != "" && (r.AssetID == nil || *r.AssetID != f.AssetID) {
		return false
	}
	if f.OpenOnly && !r.Open() {
		return false
	}
	if f.TranslationFailed && r.Translation != TranslationFailed {
		return false
	}
	return true
}

type Event struct {
	ID         int64     `json:"id"`
	TS         time.Time `json:"ts"`
	Type       string    `json:"type"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	Payload    string    `json:"payload_json"`
}

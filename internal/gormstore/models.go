package gormstore

import (
	"time"

	"vprepair/internal/domain"
)

type reportRow struct {
	ID               string     `gorm:"primaryKey;size:64"`
	AssetID          *string    `gorm:"size:64;index"`
	Title            string     `gorm:"size:200"`
	OriginalText     string
	OriginalLanguage string     `gorm:"size:16"`
	TranslatedText   string
	TargetLanguage   string     `gorm:"size:16"`
	Translation      string     `gorm:"size:16;index"`
	Priority         int        `gorm:"default:2"`
	AssignedTo       *string    `gorm:"type:text;index:idx_fault_reports_assigned"`
	StartedAt        *time.Time
	CompletedAt      *time.Time `gorm:"index:idx_fault_reports_assigned"`
	CompletedBy      *string    `gorm:"type:text"`
	RepairStatus     bool
	ImageRef         string     `gorm:"type:text"`
	ReporterID       string     `gorm:"type:text"`
	CreatedAt        time.Time  `gorm:"index"`
	UpdatedAt        time.Time
	Version          int64      `gorm:"default:1"`
}

func (reportRow) TableName() string { return "fault_reports" }

type assetRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	VPID      string `gorm:"column:vpid;type:text;uniqueIndex"`
	Name      string `gorm:"type:text"`
	Category  string `gorm:"type:text"`
	Location  string `gorm:"type:text"`
	CreatedAt time.Time
}

func (assetRow) TableName() string { return "assets" }

type eventRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	TS          time.Time `gorm:"column:ts"`
	Type        string    `gorm:"size:64"`
	EntityKind  string    `gorm:"size:32;index:idx_events_entity"`
	EntityID    *string   `gorm:"size:64;index:idx_events_entity"`
	ActorID     string    `gorm:"type:text"`
	PayloadJSON string    `gorm:"column:payload_json"`
}

func (eventRow) TableName() string { return "events" }

func toReportRow(r domain.FaultReport) reportRow {
	return reportRow{
		ID:               r.ID,
		AssetID:          r.AssetID,
		Title:            r.Title,
		OriginalText:     r.OriginalText,
		OriginalLanguage: string(r.OriginalLanguage),
		TranslatedText:   r.TranslatedText,
		TargetLanguage:   string(r.TargetLanguage),
		Translation:      string(r.Translation),
		Priority:         int(r.Priority),
		AssignedTo:       r.AssignedTo,
		StartedAt:        utcPtr(r.StartedAt),
		CompletedAt:      utcPtr(r.CompletedAt),
		CompletedBy:      r.CompletedBy,
		RepairStatus:     r.RepairStatus,
		ImageRef:         r.ImageRef,
		ReporterID:       r.ReporterID,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
		Version:          r.Version,
	}
}

func (row reportRow) toDomain() domain.FaultReport {
	return domain.FaultReport{
		ID:               row.ID,
		AssetID:          row.AssetID,
		Title:            row.Title,
		OriginalText:     row.OriginalText,
		OriginalLanguage: domain.Language(row.OriginalLanguage),
		TranslatedText:   row.TranslatedText,
		TargetLanguage:   domain.Language(row.TargetLanguage),
		Translation:      domain.TranslationState(row.Translation),
		Priority:         domain.Priority(row.Priority),
		AssignedTo:       row.AssignedTo,
		StartedAt:        utcPtr(row.StartedAt),
		CompletedAt:      utcPtr(row.CompletedAt),
		CompletedBy:      row.CompletedBy,
		RepairStatus:     row.RepairStatus,
		ImageRef:         row.ImageRef,
		ReporterID:       row.ReporterID,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
		Version:          row.Version,
	}
}

func toAssetRow(a domain.Asset) assetRow {
	return assetRow{ID: a.ID, VPID: a.VPID, Name: a.Name, Category: a.Category, Location: a.Location, CreatedAt: a.CreatedAt.UTC()}
}

func (row assetRow) toDomain() domain.Asset {
	return domain.Asset{ID: row.ID, VPID: row.VPID, Name: row.Name, Category: row.Category, Location: row.Location, CreatedAt: row.CreatedAt.UTC()}
}

func (row eventRow) toDomain() domain.Event {
	e := domain.Event{ID: row.ID, TS: row.TS.UTC(), Type: row.Type, EntityKind: row.EntityKind, ActorID: row.ActorID, Payload: row.PayloadJSON}
	if row.EntityID != nil {
		e.EntityID = *row.EntityID
	}
	return e
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

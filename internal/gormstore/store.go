// Package gormstore keeps reports, assets and events in PostgreSQL.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"vprepair/internal/domain"
	"vprepair/internal/events"
)

type Store struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Open connects to PostgreSQL and creates missing tables.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(60 * time.Minute)
	if err := db.AutoMigrate(&assetRow{}, &reportRow{}, &eventRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{DB: db, Now: time.Now}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func (s *Store) appendEvent(tx *gorm.DB, rec events.Record) error {
	payload, err := rec.Marshal()
	if err != nil {
		return err
	}
	row := eventRow{TS: s.now(), Type: rec.Type, EntityKind: rec.EntityKind, ActorID: rec.ActorID, PayloadJSON: payload}
	if row.ActorID == "" {
		row.ActorID = "system"
	}
	if rec.EntityID != "" {
		id := rec.EntityID
		row.EntityID = &id
	}
	return tx.Create(&row).Error
}

func (s *Store) CreateReport(ctx context.Context, r domain.FaultReport, evt events.Record) (domain.FaultReport, error) {
	if r.Version == 0 {
		r.Version = 1
	}
	row := toReportRow(r)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		return s.appendEvent(tx, evt)
	})
	return r, err
}

func (s *Store) GetReport(ctx context.Context, id string) (domain.FaultReport, error) {
	var row reportRow
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.FaultReport{}, notFound(err)
	}
	return row.toDomain(), nil
}

// UpdateReport locks the row, checks the version and writes every mutable
// column in one transaction.
func (s *Store) UpdateReport(ctx context.Context, r domain.FaultReport, evt events.Record) (domain.FaultReport, error) {
	expected := r.Version
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current reportRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", r.ID).Error; err != nil {
			return notFound(err)
		}
		if current.Version != expected {
			return domain.ErrConflict
		}
		row := toReportRow(r)
		res := tx.Model(&reportRow{}).Where("id = ? AND version = ?", r.ID, expected).Updates(map[string]any{
			"asset_id":        row.AssetID,
			"title":           row.Title,
			"translated_text": row.TranslatedText,
			"target_language": row.TargetLanguage,
			"translation":     row.Translation,
			"priority":        row.Priority,
			"assigned_to":     row.AssignedTo,
			"started_at":      row.StartedAt,
			"completed_at":    row.CompletedAt,
			"completed_by":    row.CompletedBy,
			"repair_status":   row.RepairStatus,
			"image_ref":       row.ImageRef,
			"updated_at":      row.UpdatedAt,
			"version":         gorm.Expr("version + 1"),
		})
		if res.Error != nil {
			return fmt.Errorf("update report: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}
		return s.appendEvent(tx, evt)
	})
	if err != nil {
		return r, err
	}
	r.Version = expected + 1
	return r, nil
}

// applyFilter mirrors domain.ReportFilter in SQL.
func applyFilter(q *gorm.DB, f domain.ReportFilter) (*gorm.DB, error) {
	switch f.Status {
	case "":
	case domain.StatusNew:
		q = q.Where("assigned_to IS NULL AND started_at IS NULL AND completed_at IS NULL")
	case domain.StatusAssigned:
		q = q.Where("assigned_to IS NOT NULL AND started_at IS NULL AND completed_at IS NULL")
	case domain.StatusInProgress:
		q = q.Where("started_at IS NOT NULL AND completed_at IS NULL")
	case domain.StatusCompleted:
		q = q.Where("completed_at IS NOT NULL")
	default:
		return nil, fmt.Errorf("invalid status filter %q", f.Status)
	}
	if f.AssignedTo != "" {
		q = q.Where("assigned_to = ?", f.AssignedTo)
	}
	if f.AssetID != "" {
		q = q.Where("asset_id = ?", f.AssetID)
	}
	if f.OpenOnly {
		q = q.Where("completed_at IS NULL")
	}
	if f.TranslationFailed {
		q = q.Where("translation = ?", string(domain.TranslationFailed))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q, nil
}

func (s *Store) ListReports(ctx context.Context, f domain.ReportFilter) ([]domain.FaultReport, error) {
	q, err := applyFilter(s.DB.WithContext(ctx).Model(&reportRow{}), f)
	if err != nil {
		return nil, err
	}
	var rows []reportRow
	if err := q.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FaultReport, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) CountReportsByStatus(ctx context.Context) (map[domain.Status]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	err := s.DB.WithContext(ctx).Model(&reportRow{}).Select(`CASE
  WHEN completed_at IS NOT NULL THEN 'completed'
  WHEN started_at IS NOT NULL THEN 'in_progress'
  WHEN assigned_to IS NOT NULL THEN 'assigned'
  ELSE 'new' END AS status, COUNT(*) AS n`).Group("1").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := map[domain.Status]int{}
	for _, r := range rows {
		counts[domain.Status(r.Status)] = r.N
	}
	return counts, nil
}

func (s *Store) ListEvents(ctx context.Context, limit int, entityKind, entityID string) ([]domain.Event, error) {
	q := s.DB.WithContext(ctx).Model(&eventRow{})
	if entityKind != "" {
		q = q.Where("entity_kind = ?", entityKind)
	}
	if entityID != "" {
		q = q.Where("entity_id = ?", entityID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []eventRow
	if err := q.Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) CreateAsset(ctx context.Context, a domain.Asset, evt events.Record) error {
	row := toAssetRow(a)
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}
		return s.appendEvent(tx, evt)
	})
}

func (s *Store) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	var row assetRow
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.Asset{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetAssetByVPID(ctx context.Context, vpid string) (domain.Asset, error) {
	var row assetRow
	if err := s.DB.WithContext(ctx).First(&row, "vpid = ?", vpid).Error; err != nil {
		return domain.Asset{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	var rows []assetRow
	if err := s.DB.WithContext(ctx).Order("vpid").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Asset, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

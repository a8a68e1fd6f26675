package gormstore

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"vprepair/internal/domain"
)

func TestReportRowRoundTrip(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, loc)
	started := created.Add(time.Hour)
	mech := "mech-1"
	asset := "asset-1"
	in := domain.FaultReport{
		ID: "r1", AssetID: &asset, Title: "Motor", OriginalText: "Der Motor ist kaputt", OriginalLanguage: domain.German,
		TranslatedText: "Motoren er i stykker", TargetLanguage: domain.Danish, Translation: domain.TranslationTranslated,
		Priority: domain.PriorityHigh, AssignedTo: &mech, StartedAt: &started, CreatedAt: created, UpdatedAt: started, Version: 3,
	}
	row := toReportRow(in)
	if row.CreatedAt.Location() != time.UTC || row.StartedAt.Location() != time.UTC {
		t.Fatalf("times not normalised to UTC")
	}
	out := row.toDomain()
	if out.Status() != domain.StatusInProgress || out.Priority != domain.PriorityHigh || *out.AssignedTo != mech {
		t.Fatalf("unexpected %+v", out)
	}
	if !out.CreatedAt.Equal(created) || !out.StartedAt.Equal(started) || out.CompletedAt != nil {
		t.Fatalf("timestamps changed: %+v", out)
	}
	if out.OriginalLanguage != domain.German || out.Version != 3 {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestEventRowEntityID(t *testing.T) {
	id := "r1"
	if e := (eventRow{EntityID: &id}).toDomain(); e.EntityID != "r1" {
		t.Fatalf("entity id = %q", e.EntityID)
	}
	if e := (eventRow{}).toDomain(); e.EntityID != "" {
		t.Fatalf("entity id = %q", e.EntityID)
	}
}

func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=vprepair", PreferSimpleProtocol: true}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry run: %v", err)
	}
	return db
}

func TestApplyFilterSQL(t *testing.T) {
	db := dryRun(t)
	q, err := applyFilter(db.Model(&reportRow{}), domain.ReportFilter{Status: domain.StatusAssigned, AssignedTo: "mech-1", TranslationFailed: true, Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	var rows []reportRow
	stmt := q.Find(&rows).Statement
	sql := stmt.SQL.String()
	for _, want := range []string{"assigned_to IS NOT NULL AND started_at IS NULL", "assigned_to = $1", "translation = $2", "LIMIT"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql %q missing %q", sql, want)
		}
	}
	if _, err := applyFilter(db, domain.ReportFilter{Status: "bogus"}); err == nil {
		t.Fatalf("expected invalid status error")
	}
}

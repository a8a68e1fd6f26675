package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vprepair/internal/db"
	"vprepair/internal/domain"
	"vprepair/internal/events"
	"vprepair/internal/migrate"
	"vprepair/internal/repo"
)

func newTestRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.Repo{DB: conn}
}

func sampleReport(id string, created time.Time) domain.FaultReport {
	return domain.FaultReport{
		ID:               id,
		Title:            "Motor",
		OriginalText:     "Der Motor ist kaputt",
		OriginalLanguage: domain.German,
		TranslatedText:   "Motoren er i stykker",
		TargetLanguage:   domain.Danish,
		Translation:      domain.TranslationTranslated,
		Priority:         domain.PriorityNormal,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func created(id string) events.Record {
	return events.Record{Type: events.ReportCreated, EntityKind: "report", EntityID: id, ActorID: "tester"}
}

func TestReportRoundTripAndVersioning(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	rep, err := r.CreateReport(ctx, sampleReport("rep-1", t0), created("rep-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rep.Version != 1 {
		t.Fatalf("expected version 1, got %d", rep.Version)
	}
	got, err := r.GetReport(ctx, "rep-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OriginalText != "Der Motor ist kaputt" || got.OriginalLanguage != domain.German || !got.CreatedAt.Equal(t0) {
		t.Fatalf("unexpected report %+v", got)
	}

	mech := "mech-1"
	got.AssignedTo = &mech
	got.UpdatedAt = t0.Add(time.Minute)
	updated, err := r.UpdateReport(ctx, got, events.Record{Type: events.ReportAssigned, EntityKind: "report", EntityID: "rep-1"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}

	// stale copy loses
	if _, err := r.UpdateReport(ctx, got, events.Record{Type: events.ReportAssigned, EntityKind: "report", EntityID: "rep-1"}); !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	missing := sampleReport("nope", t0)
	missing.Version = 1
	if _, err := r.UpdateReport(ctx, missing, events.Record{Type: events.ReportAssigned, EntityKind: "report"}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	evts, err := r.ListEvents(ctx, 0, "report", "rep-1")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evts) != 2 || evts[0].Type != events.ReportAssigned || evts[1].Type != events.ReportCreated {
		t.Fatalf("unexpected events %+v", evts)
	}
	if evts[1].ActorID != "tester" || evts[0].ActorID != "system" {
		t.Fatalf("unexpected actors %+v", evts)
	}
}

func TestGetReportNotFound(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.GetReport(context.Background(), "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListReportsByStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	mech := "mech-1"
	for i, id := range []string{"a", "b", "c"} {
		rep := sampleReport(id, t0.Add(time.Duration(i)*time.Second))
		if id != "a" {
			rep.AssignedTo = &mech
		}
		if id == "c" {
			started := t0.Add(time.Hour)
			rep.StartedAt = &started
			rep.Translation = domain.TranslationFailed
		}
		if _, err := r.CreateReport(ctx, rep, created(id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	all, err := r.ListReports(ctx, domain.ReportFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	for _, tc := range []struct {
		filter domain.ReportFilter
		want   []string
	}{
		{domain.ReportFilter{Status: domain.StatusNew}, []string{"a"}},
		{domain.ReportFilter{Status: domain.StatusAssigned}, []string{"b"}},
		{domain.ReportFilter{Status: domain.StatusInProgress}, []string{"c"}},
		{domain.ReportFilter{AssignedTo: mech}, []string{"c", "b"}},
		{domain.ReportFilter{TranslationFailed: true}, []string{"c"}},
		{domain.ReportFilter{Limit: 1}, []string{"c"}},
	} {
		got, err := r.ListReports(ctx, tc.filter)
		if err != nil {
			t.Fatalf("list %+v: %v", tc.filter, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("filter %+v: got %d reports, want %v", tc.filter, len(got), tc.want)
		}
		for i := range got {
			if got[i].ID != tc.want[i] {
				t.Fatalf("filter %+v: got %s at %d, want %s", tc.filter, got[i].ID, i, tc.want[i])
			}
		}
	}

	counts, err := r.CountReportsByStatus(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[domain.StatusNew] != 1 || counts[domain.StatusAssigned] != 1 || counts[domain.StatusInProgress] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestAssets(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := domain.Asset{ID: "asset-1", VPID: "VP-0042", Name: "Forklift", Category: "vehicle", CreatedAt: time.Now().UTC()}
	if err := r.CreateAsset(ctx, a, events.Record{Type: events.AssetCreated, EntityKind: "asset", EntityID: a.ID}); err != nil {
		t.Fatalf("create asset: %v", err)
	}
	got, err := r.GetAssetByVPID(ctx, "VP-0042")
	if err != nil || got.ID != "asset-1" || got.Location != "" {
		t.Fatalf("by vpid: %+v %v", got, err)
	}
	if _, err := r.GetAsset(ctx, "asset-2"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := r.CreateAsset(ctx, a, events.Record{Type: events.AssetCreated, EntityKind: "asset"}); err == nil {
		t.Fatalf("expected duplicate vpid to fail")
	}
	list, err := r.ListAssets(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list assets: %v %v", list, err)
	}
}

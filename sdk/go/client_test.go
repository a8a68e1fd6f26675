package vprepairsdk

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"vprepair/internal/config"
	"vprepair/internal/db"
	"vprepair/internal/domain"
	"vprepair/internal/engine"
	"vprepair/internal/migrate"
	"vprepair/internal/repo"
	"vprepair/internal/server"
	"vprepair/internal/translate"
)

func newTestAPI(t *testing.T) string {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	upper := translate.ProviderFunc{ProviderName: "offline", Fn: func(_ context.Context, text string, _, tgt domain.Language) (string, error) {
		return "[" + string(tgt) + "] " + text, nil
	}}
	e := engine.New(repo.Repo{DB: conn}, translate.NewRouter(domain.English, nil, upper), config.Default(), nil)
	handler, err := server.New(server.Config{Engine: e, BasePath: "/v1", Auth: server.AuthConfig{AllowActorHeader: true}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestClientReportLifecycle(t *testing.T) {
	base := newTestAPI(t)
	ctx := context.Background()
	reporter := New(base)
	supervisor := &Client{BaseURL: base, ActorID: "boss", ActorRoles: []string{"supervisor"}}
	mechanic := &Client{BaseURL: base, ActorID: "mech-1"}

	rep, res, err := reporter.SubmitReport(ctx, Submission{Description: "Bremse quietscht", SourceLanguage: "de", Priority: "high"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != "translated" || res.Route != "pivot" {
		t.Fatalf("unexpected result %+v", res)
	}
	if rep.Status != "new" || rep.Priority != "high" {
		t.Fatalf("unexpected report %+v", rep)
	}

	if _, err := supervisor.Assign(ctx, rep.ID, "mech-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	queue, err := mechanic.Queue(ctx, "mech-1")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != rep.ID {
		t.Fatalf("unexpected queue %+v", queue)
	}
	if _, err := mechanic.Start(ctx, rep.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := mechanic.Complete(ctx, rep.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != "completed" || done.CompletedBy == nil || *done.CompletedBy != "mech-1" {
		t.Fatalf("unexpected completed report %+v", done)
	}

	_, err = mechanic.Start(ctx, rep.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 409 || apiErr.Code != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %v", err)
	}

	evts, err := mechanic.ReportEvents(ctx, rep.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evts) != 4 || evts[0].Type != "report.completed" {
		t.Fatalf("unexpected events %+v", evts)
	}
}

func TestClientAssetsAndErrors(t *testing.T) {
	base := newTestAPI(t)
	ctx := context.Background()
	supervisor := &Client{BaseURL: base, ActorID: "boss", ActorRoles: []string{"supervisor"}}

	a, err := supervisor.CreateAsset(ctx, "VP-100", "Hydraulic press")
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	got, err := supervisor.GetAsset(ctx, a.QRPayload)
	if err != nil {
		t.Fatalf("get by qr: %v", err)
	}
	if got.ID != a.ID {
		t.Fatalf("expected %s, got %s", a.ID, got.ID)
	}

	_, err = New(base).CreateAsset(ctx, "VP-101", "Lathe")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
	_, err = supervisor.GetReport(ctx, "missing")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
		t.Fatalf("expected 404, got %v", err)
	}

	reps, err := supervisor.ListReports(ctx, ListOptions{OpenOnly: true, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reps) != 0 {
		t.Fatalf("expected no reports, got %d", len(reps))
	}
}

package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"vprepair/internal/config"
	"vprepair/internal/domain"
	"vprepair/internal/events"
	"vprepair/internal/logging"
	"vprepair/internal/translate"
)

// Store is the persistence boundary. UpdateReport must reject a report whose
// Version no longer matches the stored one with domain.ErrConflict.
type Store interface {
	CreateReport(ctx context.Context, r domain.FaultReport, evt events.Record) (domain.FaultReport, error)
	GetReport(ctx context.Context, id string) (domain.FaultReport, error)
	UpdateReport(ctx context.Context, r domain.FaultReport, evt events.Record) (domain.FaultReport, error)
	ListReports(ctx context.Context, f domain.ReportFilter) ([]domain.FaultReport, error)
	CountReportsByStatus(ctx context.Context) (map[domain.Status]int, error)
	ListEvents(ctx context.Context, limit int, entityKind, entityID string) ([]domain.Event, error)

	CreateAsset(ctx context.Context, a domain.Asset, evt events.Record) error
	GetAsset(ctx context.Context, id string) (domain.Asset, error)
	GetAssetByVPID(ctx context.Context, vpid string) (domain.Asset, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
}

type Engine struct {
	Store     Store
	Router    *translate.Router
	Target    domain.Language
	Languages []domain.Language
	Log       logrus.FieldLogger
	Now       func() time.Time

	// TranslateTimeout bounds each router call when positive.
	TranslateTimeout time.Duration

	locks *keyedLocks
}

func New(store Store, router *translate.Router, cfg *config.Config, log logrus.FieldLogger) Engine {
	e := Engine{
		Store:  store,
		Router: router,
		Target: domain.Danish,
		Log:    log,
		Now:    time.Now,
		locks:  newKeyedLocks(),
	}
	if cfg != nil {
		e.Target = domain.Language(cfg.Translation.Target)
		e.TranslateTimeout = cfg.Server.RequestTimeout
		for _, l := range cfg.Translation.Languages {
			if lang, err := domain.ParseLanguage(l); err == nil {
				e.Languages = append(e.Languages, lang)
			}
		}
	}
	return e
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e Engine) logger(op string) logrus.FieldLogger {
	log := e.Log
	if log == nil {
		log = logging.Discard()
	}
	return log.WithField("operation", op)
}

func (e Engine) target() domain.Language {
	if e.Target == "" {
		return domain.Danish
	}
	return e.Target
}

// lock serializes operations on a single report id. Engines built without
// New share nothing and skip in-process locking.
func (e Engine) lock(id string) func() {
	if e.locks == nil {
		return func() {}
	}
	return e.locks.Lock(id)
}

// Stats returns the number of reports in each workflow state.
func (e Engine) Stats(ctx context.Context) (map[domain.Status]int, error) {
	return e.Store.CountReportsByStatus(ctx)
}

// Events returns the newest events across all entities.
func (e Engine) Events(ctx context.Context, limit int) ([]domain.Event, error) {
	return e.Store.ListEvents(ctx, limit, "", "")
}

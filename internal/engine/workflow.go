package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"vprepair/internal/domain"
	"vprepair/internal/events"
)

// conflictRetries bounds re-reads after losing a version check to another
// process writing the same report.
const conflictRetries = 3

// mutate applies fn to the current report as one read-modify-write. fn sees
// the latest stored state, so a transition that lost a race is rejected by
// its own guard on the retry.
func (e Engine) mutate(ctx context.Context, id, op string, fn func(*domain.FaultReport) (events.Record, error)) (domain.FaultReport, error) {
	unlock := e.lock(id)
	defer unlock()
	log := e.logger(op).WithField("report_id", id)

	for attempt := 0; ; attempt++ {
		rep, err := e.Store.GetReport(ctx, id)
		if err != nil {
			return domain.FaultReport{}, err
		}
		evt, err := fn(&rep)
		if err != nil {
			var te *TransitionError
			if errors.As(err, &te) {
				log.WithField("status", te.From).Info("transition rejected")
			}
			return domain.FaultReport{}, err
		}
		rep.UpdatedAt = e.now()
		updated, err := e.Store.UpdateReport(ctx, rep, evt)
		if errors.Is(err, domain.ErrConflict) {
			if attempt < conflictRetries {
				log.WithField("attempt", attempt+1).Debug("version conflict, retrying")
				continue
			}
			return domain.FaultReport{}, e.lostRace(ctx, id, fn, log)
		}
		if err != nil {
			log.WithError(err).Error("update report")
			return domain.FaultReport{}, err
		}
		return updated, nil
	}
}

// lostRace runs fn against the latest stored report once more without
// writing. A transition another writer already made fails its guard there;
// otherwise the conflict is returned as is.
func (e Engine) lostRace(ctx context.Context, id string, fn func(*domain.FaultReport) (events.Record, error), log logrus.FieldLogger) error {
	rep, err := e.Store.GetReport(ctx, id)
	if err != nil {
		return err
	}
	if _, err := fn(&rep); err != nil {
		return err
	}
	log.Warn("gave up after repeated version conflicts")
	return domain.ErrConflict
}

func ensureReportTransition(op string, r domain.FaultReport) error {
	from := r.Status()
	switch op {
	case "assign":
		if from == domain.StatusNew {
			return nil
		}
	case "start":
		if from == domain.StatusAssigned {
			return nil
		}
	case "complete":
		if from == domain.StatusInProgress {
			return nil
		}
	}
	return &TransitionError{Op: op, ReportID: r.ID, From: from}
}

// Assign gives a new report to a mechanic.
func (e Engine) Assign(ctx context.Context, id, mechanicID, actorID string) (domain.FaultReport, error) {
	mechanicID = strings.TrimSpace(mechanicID)
	if mechanicID == "" {
		return domain.FaultReport{}, validationf("mechanic is required")
	}
	return e.mutate(ctx, id, "assign", func(r *domain.FaultReport) (events.Record, error) {
		if err := ensureReportTransition("assign", *r); err != nil {
			return events.Record{}, err
		}
		r.AssignedTo = &mechanicID
		return events.Record{Type: events.ReportAssigned, EntityKind: "report", EntityID: r.ID, ActorID: actorID,
			Payload: events.EventPayload{"assigned_to": mechanicID}}, nil
	})
}

// Start marks an assigned report as being worked on.
func (e Engine) Start(ctx context.Context, id, actorID string) (domain.FaultReport, error) {
	return e.mutate(ctx, id, "start", func(r *domain.FaultReport) (events.Record, error) {
		if err := ensureReportTransition("start", *r); err != nil {
			return events.Record{}, err
		}
		now := e.now()
		r.StartedAt = &now
		return events.Record{Type: events.ReportStarted, EntityKind: "report", EntityID: r.ID, ActorID: actorID,
			Payload: events.EventPayload{"started_at": now}}, nil
	})
}

// Complete closes an in-progress report. mechanicID defaults to the assignee.
func (e Engine) Complete(ctx context.Context, id, mechanicID string) (domain.FaultReport, error) {
	return e.mutate(ctx, id, "complete", func(r *domain.FaultReport) (events.Record, error) {
		if err := ensureReportTransition("complete", *r); err != nil {
			return events.Record{}, err
		}
		by := strings.TrimSpace(mechanicID)
		if by == "" && r.AssignedTo != nil {
			by = *r.AssignedTo
		}
		now := e.now()
		// completedAt must not precede startedAt even if the clock moved back
		if r.StartedAt != nil && now.Before(*r.StartedAt) {
			now = *r.StartedAt
		}
		r.CompletedAt = &now
		r.CompletedBy = &by
		r.RepairStatus = true
		return events.Record{Type: events.ReportCompleted, EntityKind: "report", EntityID: r.ID, ActorID: by,
			Payload: events.EventPayload{"completed_by": by, "completed_at": now}}, nil
	})
}

// SetPriority changes the priority in any workflow state.
func (e Engine) SetPriority(ctx context.Context, id, priority, actorID string) (domain.FaultReport, error) {
	p, err := domain.ParsePriority(priority)
	if err != nil {
		return domain.FaultReport{}, validationf("%v", err)
	}
	return e.mutate(ctx, id, "set_priority", func(r *domain.FaultReport) (events.Record, error) {
		old := r.Priority
		r.Priority = p
		return events.Record{Type: events.ReportPriorityChanged, EntityKind: "report", EntityID: r.ID, ActorID: actorID,
			Payload: events.EventPayload{"from": old.String(), "to": p.String()}}, nil
	})
}

func (e Engine) GetReport(ctx context.Context, id string) (domain.FaultReport, error) {
	return e.Store.GetReport(ctx, id)
}

func (e Engine) ListReports(ctx context.Context, f domain.ReportFilter) ([]domain.FaultReport, error) {
	return e.Store.ListReports(ctx, f)
}

// ReportEvents returns the history of one report, newest first.
func (e Engine) ReportEvents(ctx context.Context, id string) ([]domain.Event, error) {
	if _, err := e.Store.GetReport(ctx, id); err != nil {
		return nil, err
	}
	evts, err := e.Store.ListEvents(ctx, 0, "report", id)
	if err != nil {
		e.logger("report_events").WithFields(logrus.Fields{"report_id": id}).WithError(err).Error("list events")
	}
	return evts, err
}

package engine

import (
	"context"
	"sort"
	"strings"

	"vprepair/internal/domain"
)

// OpenReportsFor is the mechanic's work queue: their unfinished reports,
// most urgent first and oldest first within the same priority.
func (e Engine) OpenReportsFor(ctx context.Context, mechanicID string) ([]domain.FaultReport, error) {
	mechanicID = strings.TrimSpace(mechanicID)
	if mechanicID == "" {
		return nil, validationf("mechanic is required")
	}
	reps, err := e.Store.ListReports(ctx, domain.ReportFilter{AssignedTo: mechanicID, OpenOnly: true})
	if err != nil {
		return nil, err
	}
	OrderQueue(reps)
	return reps, nil
}

// OrderQueue sorts by urgency rank, then createdAt, then id. It ranks by
// Priority.Urgency and never by the numeric encoding.
func OrderQueue(reps []domain.FaultReport) {
	sort.SliceStable(reps, func(i, j int) bool {
		a, b := reps[i], reps[j]
		if ua, ub := a.Priority.Urgency(), b.Priority.Urgency(); ua != ub {
			return ua > ub
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

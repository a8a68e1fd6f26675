package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vprepair/internal/domain"
	"vprepair/internal/events"
)

const reportColumns = `id,asset_id,title,original_text,original_language,translated_text,target_language,translation,priority,assigned_to,started_at,completed_at,completed_by,repair_status,image_ref,reporter_id,created_at,updated_at,version`

func scanReport(row scanner) (domain.FaultReport, error) {
	var (
		rep                                          domain.FaultReport
		assetID, assignedTo, completedBy             sql.NullString
		startedAt, completedAt, imageRef, reporterID sql.NullString
		createdAt, updatedAt                         string
		origLang, targetLang, translation            string
		priority                                     int
		repairStatus                                 bool
	)
	err := row.Scan(&rep.ID, &assetID, &rep.Title, &rep.OriginalText, &origLang, &rep.TranslatedText, &targetLang, &translation,
		&priority, &assignedTo, &startedAt, &completedAt, &completedBy, &repairStatus, &imageRef, &reporterID, &createdAt, &updatedAt, &rep.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return rep, ErrNotFound
	}
	if err != nil {
		return rep, err
	}
	rep.OriginalLanguage = domain.Language(origLang)
	rep.TargetLanguage = domain.Language(targetLang)
	rep.Translation = domain.TranslationState(translation)
	rep.Priority = domain.Priority(priority)
	rep.RepairStatus = repairStatus
	if assetID.Valid {
		rep.AssetID = &assetID.String
	}
	if assignedTo.Valid {
		rep.AssignedTo = &assignedTo.String
	}
	if completedBy.Valid {
		rep.CompletedBy = &completedBy.String
	}
	if imageRef.Valid {
		rep.ImageRef = imageRef.String
	}
	if reporterID.Valid {
		rep.ReporterID = reporterID.String
	}
	if startedAt.Valid {
		ts, err := parseTime(startedAt.String)
		if err != nil {
			return rep, fmt.Errorf("started_at: %w", err)
		}
		rep.StartedAt = &ts
	}
	if completedAt.Valid {
		ts, err := parseTime(completedAt.String)
		if err != nil {
			return rep, fmt.Errorf("completed_at: %w", err)
		}
		rep.CompletedAt = &ts
	}
	if rep.CreatedAt, err = parseTime(createdAt); err != nil {
		return rep, fmt.Errorf("created_at: %w", err)
	}
	if rep.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return rep, fmt.Errorf("updated_at: %w", err)
	}
	return rep, nil
}

// CreateReport inserts a new report and its creation event.
func (r Repo) CreateReport(ctx context.Context, rep domain.FaultReport, evt events.Record) (domain.FaultReport, error) {
	if rep.Version == 0 {
		rep.Version = 1
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO fault_reports(`+reportColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			rep.ID, nullableStringPtr(rep.AssetID), rep.Title, rep.OriginalText, string(rep.OriginalLanguage), rep.TranslatedText,
			string(rep.TargetLanguage), string(rep.Translation), int(rep.Priority), nullableStringPtr(rep.AssignedTo),
			nullableTimePtr(rep.StartedAt), nullableTimePtr(rep.CompletedAt), nullableStringPtr(rep.CompletedBy), rep.RepairStatus,
			nullable(rep.ImageRef), nullable(rep.ReporterID), formatTime(rep.CreatedAt), formatTime(rep.UpdatedAt), rep.Version); err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		return r.Events.Append(ctx, tx, evt)
	})
	return rep, err
}

func (r Repo) GetReport(ctx context.Context, id string) (domain.FaultReport, error) {
	return scanReport(r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM fault_reports WHERE id=?`, id))
}

// UpdateReport writes rep if the stored version still equals rep.Version and
// returns the report with its bumped version. A lost race yields ErrConflict.
func (r Repo) UpdateReport(ctx context.Context, rep domain.FaultReport, evt events.Record) (domain.FaultReport, error) {
	expected := rep.Version
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE fault_reports SET asset_id=?, title=?, translated_text=?, target_language=?, translation=?, priority=?,
assigned_to=?, started_at=?, completed_at=?, completed_by=?, repair_status=?, image_ref=?, updated_at=?, version=version+1
WHERE id=? AND version=?`,
			nullableStringPtr(rep.AssetID), rep.Title, rep.TranslatedText, string(rep.TargetLanguage), string(rep.Translation), int(rep.Priority),
			nullableStringPtr(rep.AssignedTo), nullableTimePtr(rep.StartedAt), nullableTimePtr(rep.CompletedAt), nullableStringPtr(rep.CompletedBy),
			rep.RepairStatus, nullable(rep.ImageRef), formatTime(rep.UpdatedAt), rep.ID, expected)
		if err != nil {
			return fmt.Errorf("update report: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM fault_reports WHERE id=?`, rep.ID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			return ErrConflict
		}
		return r.Events.Append(ctx, tx, evt)
	})
	if err != nil {
		return rep, err
	}
	rep.Version = expected + 1
	return rep, nil
}

func statusClause(st domain.Status) (string, error) {
	switch st {
	case domain.StatusNew:
		return "assigned_to IS NULL AND started_at IS NULL AND completed_at IS NULL", nil
	case domain.StatusAssigned:
		return "assigned_to IS NOT NULL AND started_at IS NULL AND completed_at IS NULL", nil
	case domain.StatusInProgress:
		return "started_at IS NOT NULL AND completed_at IS NULL", nil
	case domain.StatusCompleted:
		return "completed_at IS NOT NULL", nil
	}
	return "", fmt.Errorf("invalid status filter %q", st)
}

// ListReports returns reports matching f, newest first.
func (r Repo) ListReports(ctx context.Context, f domain.ReportFilter) ([]domain.FaultReport, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		c, err := statusClause(f.Status)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	if f.AssignedTo != "" {
		clauses = append(clauses, "assigned_to=?")
		args = append(args, f.AssignedTo)
	}
	if f.AssetID != "" {
		clauses = append(clauses, "asset_id=?")
		args = append(args, f.AssetID)
	}
	if f.OpenOnly {
		clauses = append(clauses, "completed_at IS NULL")
	}
	if f.TranslationFailed {
		clauses = append(clauses, "translation=?")
		args = append(args, string(domain.TranslationFailed))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + reportColumns + ` FROM fault_reports ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.FaultReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rep)
	}
	return res, rows.Err()
}

// CountReportsByStatus returns the number of reports in each derived state.
func (r Repo) CountReportsByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT
  CASE
    WHEN completed_at IS NOT NULL THEN 'completed'
    WHEN started_at IS NOT NULL THEN 'in_progress'
    WHEN assigned_to IS NOT NULL THEN 'assigned'
    ELSE 'new'
  END AS status, COUNT(*) FROM fault_reports GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[domain.Status]int{}
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[domain.Status(st)] = n
	}
	return counts, rows.Err()
}

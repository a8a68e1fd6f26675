package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vprepair/internal/domain"
	"vprepair/internal/events"
)

const assetColumns = `id,vpid,name,COALESCE(category,''),COALESCE(location,''),created_at`

func scanAsset(row scanner) (domain.Asset, error) {
	var a domain.Asset
	var created string
	err := row.Scan(&a.ID, &a.VPID, &a.Name, &a.Category, &a.Location, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return a, fmt.Errorf("created_at: %w", err)
	}
	return a, nil
}

func (r Repo) CreateAsset(ctx context.Context, a domain.Asset, evt events.Record) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO assets(id,vpid,name,category,location,created_at) VALUES (?,?,?,?,?,?)`,
			a.ID, a.VPID, a.Name, nullable(a.Category), nullable(a.Location), formatTime(a.CreatedAt)); err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}
		return r.Events.Append(ctx, tx, evt)
	})
}

func (r Repo) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	return scanAsset(r.DB.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=?`, id))
}

func (r Repo) GetAssetByVPID(ctx context.Context, vpid string) (domain.Asset, error) {
	return scanAsset(r.DB.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE vpid=?`, vpid))
}

func (r Repo) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY vpid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

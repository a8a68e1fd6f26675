package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"vprepair/internal/domain"
	"vprepair/internal/events"
)

type AssetCreateOptions struct {
	VPID     string
	Name     string
	Category string
	Location string
	ActorID  string
}

func (e Engine) CreateAsset(ctx context.Context, opts AssetCreateOptions) (domain.Asset, error) {
	vpid := strings.TrimSpace(opts.VPID)
	if vpid == "" {
		return domain.Asset{}, validationf("vpid is required")
	}
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Asset{}, validationf("name is required")
	}
	if _, err := e.Store.GetAssetByVPID(ctx, vpid); err == nil {
		return domain.Asset{}, validationf("asset %s already exists", vpid)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Asset{}, err
	}
	a := domain.Asset{
		ID:        uuid.NewString(),
		VPID:      vpid,
		Name:      strings.TrimSpace(opts.Name),
		Category:  opts.Category,
		Location:  opts.Location,
		CreatedAt: e.now(),
	}
	err := e.Store.CreateAsset(ctx, a, events.Record{Type: events.AssetCreated, EntityKind: "asset", EntityID: a.ID, ActorID: opts.ActorID,
		Payload: events.EventPayload{"vpid": a.VPID}})
	if err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

func (e Engine) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	return e.Store.GetAsset(ctx, id)
}

func (e Engine) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	return e.Store.ListAssets(ctx)
}

// ResolveAsset accepts an asset id, a VPID or a scanned QR payload.
func (e Engine) ResolveAsset(ctx context.Context, ref string) (domain.Asset, error) {
	ref = strings.TrimSpace(ref)
	if vpid, ok := domain.ParseQRPayload(ref); ok {
		return e.Store.GetAssetByVPID(ctx, vpid)
	}
	a, err := e.Store.GetAsset(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return e.Store.GetAssetByVPID(ctx, ref)
	}
	return a, err
}

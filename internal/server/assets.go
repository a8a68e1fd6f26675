package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"vprepair/internal/engine"
)

func registerAssets(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-asset",
		Method:        http.MethodPost,
		Path:          "/assets",
		Summary:       "Register an asset",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body CreateAssetRequest `json:"body"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		p, err := requireSupervisor(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		a, err := e.CreateAsset(ctx, engine.AssetCreateOptions{
			VPID:     input.Body.VPID,
			Name:     input.Body.Name,
			Category: input.Body.Category,
			Location: input.Body.Location,
			ActorID:  p.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: assetResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-assets",
		Method:      http.MethodGet,
		Path:        "/assets",
		Summary:     "List assets",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []AssetResponse `json:"body"`
	}, error) {
		assets, err := e.ListAssets(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]AssetResponse, 0, len(assets))
		for _, a := range assets {
			out = append(out, assetResponse(a))
		}
		return &struct {
			Body []AssetResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/assets/{id}",
		Summary:     "Get asset by id, VPID or QR payload",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		a, err := e.ResolveAsset(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: assetResponse(a)}, nil
	})
}

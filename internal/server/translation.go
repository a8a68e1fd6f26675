package server

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"vprepair/internal/engine"
)

func registerTranslation(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "translate",
		Method:      http.MethodPost,
		Path:        "/translate",
		Summary:     "Preview a translation without storing anything",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body TranslateRequest `json:"body"`
	}) (*struct {
		Body TranslateResponse `json:"body"`
	}, error) {
		if _, err := requirePrincipal(ctx); err != nil {
			return nil, err
		}
		res, err := e.Translate(ctx, input.Body.Text, input.Body.SourceLanguage, input.Body.TargetLanguage)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TranslateResponse `json:"body"`
		}{Body: TranslateResponse{Text: res.Text, TranslationBrief: translationBrief(res)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "translation-models",
		Method:      http.MethodGet,
		Path:        "/translation/models",
		Summary:     "Installed language pairs",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ModelPair `json:"body"`
	}, error) {
		byProvider, err := e.Models(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := []ModelPair{}
		for provider, pairs := range byProvider {
			for _, p := range pairs {
				out = append(out, ModelPair{Provider: provider, Source: string(p.Source), Target: string(p.Target), Name: p.Name, Engine: p.Engine})
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Provider != out[j].Provider {
				return out[i].Provider < out[j].Provider
			}
			return out[i].Name < out[j].Name
		})
		return &struct {
			Body []ModelPair `json:"body"`
		}{Body: out}, nil
	})
}

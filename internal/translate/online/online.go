// Package online calls a LibreTranslate compatible HTTP endpoint.
package online

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"vprepair/internal/domain"
	"vprepair/internal/translate"
)

const Name = "online"

type Provider struct {
	URL    string
	APIKey string
	http   *resty.Client
}

func New(url, apiKey string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Provider{URL: url, APIKey: apiKey, http: resty.New().SetTimeout(timeout)}
}

func (p *Provider) Name() string { return Name }

type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

func (p *Provider) Translate(ctx context.Context, text string, source, target domain.Language) (string, error) {
	if p.URL == "" {
		return "", fmt.Errorf("%w: no url configured", translate.ErrServiceUnreachable)
	}
	var resp response
	r, err := p.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(request{Q: text, Source: string(source), Target: string(target), Format: "text", APIKey: p.APIKey}).
		SetResult(&resp).
		Post(p.URL)
	if err != nil {
		// a status code means the server answered and the body did not decode
		if r != nil && r.StatusCode() > 0 {
			return "", fmt.Errorf("%w: decode response: %v", translate.ErrServiceError, err)
		}
		return "", fmt.Errorf("%w: %v", translate.ErrServiceUnreachable, err)
	}
	if r.IsError() {
		return "", fmt.Errorf("%w: %s: %s", translate.ErrServiceError, r.Status(), strings.TrimSpace(r.String()))
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", translate.ErrServiceError, resp.Error)
	}
	return resp.TranslatedText, nil
}

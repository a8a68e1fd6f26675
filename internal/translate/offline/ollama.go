package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"vprepair/internal/domain"
	"vprepair/internal/translate"
)

const defaultOllamaURL = "http://127.0.0.1:11434"

// Ollama talks to a local Ollama runtime.
type Ollama struct {
	BaseURL string
	http    *resty.Client
}

func NewOllama(baseURL string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Ollama{BaseURL: strings.TrimRight(baseURL, "/"), http: resty.New().SetTimeout(timeout)}
}

const systemPrompt = `You are a translation engine for machine fault reports. Translate the user's text from %s to %s. Keep part numbers and codes unchanged. Reply with JSON {"translation": "..."} and nothing else.`

func (o *Ollama) Translate(ctx context.Context, model, text string, from, to domain.Language) (string, error) {
	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": fmt.Sprintf(systemPrompt, from.Name(), to.Name())},
			{"role": "user", "content": text},
		},
		"stream":  false,
		"format":  "json",
		"options": map[string]any{"temperature": 0},
	}
	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	r, err := o.http.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(body).SetResult(&resp).Post(o.BaseURL + "/api/chat")
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %v", translate.ErrServiceUnreachable, err)
	}
	if r.StatusCode() == 404 {
		return "", fmt.Errorf("%w: ollama model %s not pulled", translate.ErrModelUnavailable, model)
	}
	if r.IsError() {
		return "", fmt.Errorf("%w: ollama %s: %s", translate.ErrServiceError, r.Status(), r.String())
	}
	var out struct {
		Translation string `json:"translation"`
	}
	content := strings.TrimSpace(resp.Message.Content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", fmt.Errorf("%w: ollama reply is not JSON: %v", translate.ErrServiceError, err)
	}
	return out.Translation, nil
}

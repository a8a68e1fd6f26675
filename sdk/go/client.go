// Package vprepairsdk is a small client for the vprepair HTTP API.
package vprepairsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to a vprepair server. BaseURL includes the API base path,
// e.g. http://localhost:8080/v1.
type Client struct {
	BaseURL     string
	BearerToken string
	// ActorID is sent as X-Actor-Id when no token is set; the server must
	// allow actor headers.
	ActorID    string
	ActorRoles []string
	Timeout    time.Duration

	http *resty.Client
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, Timeout: 10 * time.Second}
}

// Report is the API report model.
type Report struct {
	ID               string     `json:"id"`
	AssetID          *string    `json:"asset_id,omitempty"`
	Title            string     `json:"title"`
	OriginalText     string     `json:"original_text"`
	OriginalLanguage string     `json:"original_language"`
	TranslatedText   string     `json:"translated_text"`
	TargetLanguage   string     `json:"target_language"`
	Translation      string     `json:"translation"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	AssignedTo       *string    `json:"assigned_to,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CompletedBy      *string    `json:"completed_by,omitempty"`
	RepairStatus     bool       `json:"repair_status"`
	ImageRef         string     `json:"image_ref,omitempty"`
	ReporterID       string     `json:"reporter_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int64      `json:"version"`
}

type Attempt struct {
	Provider string `json:"provider"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

type TranslationResult struct {
	Outcome   string    `json:"outcome"`
	Route     string    `json:"route,omitempty"`
	Providers []string  `json:"providers,omitempty"`
	Attempts  []Attempt `json:"attempts,omitempty"`
}

type Submission struct {
	AssetRef       string `json:"asset_ref,omitempty"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description"`
	SourceLanguage string `json:"source_language"`
	Priority       string `json:"priority,omitempty"`
	ImageRef       string `json:"image_ref,omitempty"`
}

type Asset struct {
	ID        string    `json:"id"`
	VPID      string    `json:"vpid"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Location  string    `json:"location,omitempty"`
	QRPayload string    `json:"qr_payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Event represents a log entry.
type Event struct {
	ID         int64     `json:"id"`
	TS         time.Time `json:"ts"`
	Type       string    `json:"type"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id"`
	Payload    string    `json:"payload_json"`
}

// ListOptions filters ListReports. Zero values are omitted.
type ListOptions struct {
	Status            string
	AssignedTo        string
	AssetID           string
	OpenOnly          bool
	TranslationFailed bool
	Limit             int
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SubmitReport files a report and returns it with the translation outcome.
func (c *Client) SubmitReport(ctx context.Context, sub Submission) (Report, TranslationResult, error) {
	var resp struct {
		Report Report            `json:"report"`
		Result TranslationResult `json:"translation_result"`
	}
	err := c.do(ctx, http.MethodPost, "reports", nil, sub, &resp)
	return resp.Report, resp.Result, err
}

func (c *Client) GetReport(ctx context.Context, id string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodGet, "reports/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) ListReports(ctx context.Context, opts ListOptions) ([]Report, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.AssignedTo != "" {
		q.Set("assigned_to", opts.AssignedTo)
	}
	if opts.AssetID != "" {
		q.Set("asset_id", opts.AssetID)
	}
	if opts.OpenOnly {
		q.Set("open", "true")
	}
	if opts.TranslationFailed {
		q.Set("translation_failed", "true")
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	var resp struct {
		Items []Report `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "reports", q, nil, &resp)
	return resp.Items, err
}

func (c *Client) Assign(ctx context.Context, id, mechanicID string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, "reports/"+url.PathEscape(id)+"/assign", nil, map[string]string{"mechanic_id": mechanicID}, &resp)
	return resp, err
}

func (c *Client) Start(ctx context.Context, id string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, "reports/"+url.PathEscape(id)+"/start", nil, nil, &resp)
	return resp, err
}

func (c *Client) Complete(ctx context.Context, id string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, "reports/"+url.PathEscape(id)+"/complete", nil, nil, &resp)
	return resp, err
}

func (c *Client) SetPriority(ctx context.Context, id, priority string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPut, "reports/"+url.PathEscape(id)+"/priority", nil, map[string]string{"priority": priority}, &resp)
	return resp, err
}

// Queue returns the open reports assigned to mechanicID, most urgent first.
func (c *Client) Queue(ctx context.Context, mechanicID string) ([]Report, error) {
	var resp struct {
		Items []Report `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "mechanics/"+url.PathEscape(mechanicID)+"/queue", nil, nil, &resp)
	return resp.Items, err
}

// ReportEvents returns the history of a report, newest first.
func (c *Client) ReportEvents(ctx context.Context, id string) ([]Event, error) {
	var resp []Event
	err := c.do(ctx, http.MethodGet, "reports/"+url.PathEscape(id)+"/events", nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateAsset(ctx context.Context, vpid, name string) (Asset, error) {
	var resp Asset
	err := c.do(ctx, http.MethodPost, "assets", nil, map[string]string{"vpid": vpid, "name": name}, &resp)
	return resp, err
}

// GetAsset accepts an asset id, a VPID or a QR payload.
func (c *Client) GetAsset(ctx context.Context, ref string) (Asset, error) {
	var resp Asset
	err := c.do(ctx, http.MethodGet, "assets/"+url.PathEscape(ref), nil, nil, &resp)
	return resp, err
}

func (c *Client) client() *resty.Client {
	if c.http == nil {
		c.http = resty.New().SetTimeout(c.Timeout)
	}
	return c.http
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	req := c.client().R().SetContext(ctx).SetHeader("Accept", "application/json")
	switch {
	case c.BearerToken != "":
		req.SetAuthToken(c.BearerToken)
	case c.ActorID != "":
		req.SetHeader("X-Actor-Id", c.ActorID)
		if len(c.ActorRoles) > 0 {
			req.SetHeader("X-Actor-Roles", strings.Join(c.ActorRoles, ","))
		}
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	var envelope errorEnvelope
	req.SetError(&envelope)
	resp, err := req.Execute(method, c.base()+"/"+strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return err
	}
	if resp.IsError() {
		msg := envelope.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return &APIError{StatusCode: resp.StatusCode(), Code: envelope.Error.Code, Message: msg}
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

package server

import (
	"time"

	"vprepair/internal/domain"
	"vprepair/internal/translate"
)

// Request payloads

type SubmitReportRequest struct {
	AssetRef       string `json:"asset_ref,omitempty" doc:"Asset id, VPID or scanned QR payload"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description"`
	SourceLanguage string `json:"source_language" example:"de"`
	Priority       string `json:"priority,omitempty" enum:"high,normal,low"`
	ImageRef       string `json:"image_ref,omitempty"`
}

type AssignRequest struct {
	MechanicID string `json:"mechanic_id"`
}

type PriorityRequest struct {
	Priority string `json:"priority" enum:"high,normal,low"`
}

type CreateAssetRequest struct {
	VPID     string `json:"vpid"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
}

type TranslateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// Response payloads

type ReportResponse struct {
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

type SubmitReportResponse struct {
	Report ReportResponse   `json:"report"`
	Result TranslationBrief `json:"translation_result"`
}

type TranslationBrief struct {
	Outcome   string              `json:"outcome"`
	Route     string              `json:"route,omitempty"`
	Providers []string            `json:"providers,omitempty"`
	Attempts  []translate.Attempt `json:"attempts,omitempty"`
}

type TranslateResponse struct {
	Text string `json:"text"`
	TranslationBrief
}

type ReportList struct {
	Items []ReportResponse `json:"items"`
}

type AssetResponse struct {
	ID        string    `json:"id"`
	VPID      string    `json:"vpid"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Location  string    `json:"location,omitempty"`
	QRPayload string    `json:"qr_payload"`
	CreatedAt time.Time `json:"created_at"`
}

type EventResponse struct {
	ID         int64     `json:"id"`
	TS         time.Time `json:"ts"`
	Type       string    `json:"type"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	Payload    string    `json:"payload_json"`
}

type ModelPair struct {
	Provider string `json:"provider"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Name     string `json:"name,omitempty"`
	Engine   string `json:"engine,omitempty"`
}

func reportResponse(r domain.FaultReport) ReportResponse {
	return ReportResponse{
		ID:               r.ID,
		AssetID:          r.AssetID,
		Title:            r.Title,
		OriginalText:     r.OriginalText,
		OriginalLanguage: string(r.OriginalLanguage),
		TranslatedText:   r.TranslatedText,
		TargetLanguage:   string(r.TargetLanguage),
		Translation:      string(r.Translation),
		Priority:         r.Priority.String(),
		Status:           string(r.Status()),
		AssignedTo:       r.AssignedTo,
		StartedAt:        r.StartedAt,
		CompletedAt:      r.CompletedAt,
		CompletedBy:      r.CompletedBy,
		RepairStatus:     r.RepairStatus,
		ImageRef:         r.ImageRef,
		ReporterID:       r.ReporterID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.Version,
	}
}

func reportList(reps []domain.FaultReport) ReportList {
	out := ReportList{Items: make([]ReportResponse, 0, len(reps))}
	for _, r := range reps {
		out.Items = append(out.Items, reportResponse(r))
	}
	return out
}

func translationBrief(res translate.Result) TranslationBrief {
	b := TranslationBrief{Outcome: string(res.Outcome), Route: string(res.Route), Providers: res.Providers}
	if res.Failure != nil {
		b.Attempts = res.Failure.Attempts
	}
	return b
}

func assetResponse(a domain.Asset) AssetResponse {
	return AssetResponse{
		ID:        a.ID,
		VPID:      a.VPID,
		Name:      a.Name,
		Category:  a.Category,
		Location:  a.Location,
		QRPayload: domain.QRPayload(a.VPID),
		CreatedAt: a.CreatedAt,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{ID: e.ID, TS: e.TS, Type: e.Type, EntityKind: e.EntityKind, EntityID: e.EntityID, ActorID: e.ActorID, Payload: e.Payload}
}

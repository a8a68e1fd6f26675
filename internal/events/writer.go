package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ReportCreated         = "report.created"
	ReportAssigned        = "report.assigned"
	ReportStarted         = "report.started"
	ReportCompleted       = "report.completed"
	ReportRetranslated    = "report.retranslated"
	ReportPriorityChanged = "report.priority.changed"
	AssetCreated          = "asset.created"
)

type EventPayload map[string]any

// Record is an event waiting to be written alongside the mutation it describes.
type Record struct {
	Type       string
	EntityKind string
	EntityID   string
	ActorID    string
	Payload    EventPayload
}

type Writer struct {
	Now func() time.Time
}

// Marshal renders the payload as stored in payload_json.
func (r Record) Marshal() (string, error) {
	payload := r.Payload
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal event payload: %w", err)
	}
	return string(data), nil
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, rec Record) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	data, err := rec.Marshal()
	if err != nil {
		return err
	}
	actor := rec.ActorID
	if actor == "" {
		actor = "system"
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		now().UTC().Format(time.RFC3339Nano), rec.Type, rec.EntityKind, nullable(rec.EntityID), actor, data)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

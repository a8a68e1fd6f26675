package domain

import (
	"strings"
	"time"
)

// Asset is the minimal machine reference a report can point at.
type Asset struct {
	ID        string    `json:"id"`
	VPID      string    `json:"vpid"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const qrPrefix = "VPID:"

// QRPayload is the text encoded on printed asset labels.
func QRPayload(vpid string) string {
	return qrPrefix + " " + vpid
}

// ParseQRPayload extracts the VPID from a scanned label. The second return
// is false when the input is not a label payload.
func ParseQRPayload(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(qrPrefix) || !strings.EqualFold(s[:len(qrPrefix)], qrPrefix) {
		return "", false
	}
	vpid := strings.TrimSpace(s[len(qrPrefix):])
	if vpid == "" {
		return "", false
	}
	return vpid, true
}

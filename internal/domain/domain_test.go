package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	mech := "mech-1"
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		assigned  *string
		started   *time.Time
		completed *time.Time
		want      Status
	}{
		{"new", nil, nil, nil, StatusNew},
		{"assigned", &mech, nil, nil, StatusAssigned},
		{"started", &mech, &now, nil, StatusInProgress},
		{"completed", &mech, &now, &now, StatusCompleted},
		{"completed wins", nil, nil, &now, StatusCompleted},
	}
	for _, tc := range cases {
		if got := DeriveStatus(tc.assigned, tc.started, tc.completed); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestPriorityUrgencyIgnoresEncoding(t *testing.T) {
	if !(PriorityHigh.Urgency() > PriorityNormal.Urgency() && PriorityNormal.Urgency() > PriorityLow.Urgency()) {
		t.Fatalf("urgency order broken")
	}
	if int(PriorityHigh) > int(PriorityLow) {
		t.Fatalf("expected high to keep the smaller numeric encoding")
	}
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{"": PriorityNormal, "HIGH": PriorityHigh, "3": PriorityLow, "normal": PriorityNormal} {
		got, err := ParsePriority(in)
		if err != nil || got != want {
			t.Errorf("ParsePriority(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
}

func TestParseLanguage(t *testing.T) {
	got, err := ParseLanguage("de-AT")
	if err != nil || got != German {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := ParseLanguage("xx"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
	RegisterLanguage("sv", "Svenska")
	if l, err := ParseLanguage("SV"); err != nil || l.Name() != "Svenska" {
		t.Fatalf("registered language not accepted: %v", err)
	}
}

func TestParseQRPayload(t *testing.T) {
	vpid, ok := ParseQRPayload("  vpid: 4711 ")
	if !ok || vpid != "4711" {
		t.Fatalf("got %q %v", vpid, ok)
	}
	if _, ok := ParseQRPayload("4711"); ok {
		t.Fatalf("plain id must not parse as payload")
	}
	if got, _ := ParseQRPayload(QRPayload("A-1")); got != "A-1" {
		t.Fatalf("round trip failed: %q", got)
	}
}

func TestReportFilterMatches(t *testing.T) {
	mech := "m1"
	now := time.Now()
	r := FaultReport{AssignedTo: &mech, Translation: TranslationFailed}
	if !(ReportFilter{AssignedTo: "m1", OpenOnly: true, TranslationFailed: true}).Matches(r) {
		t.Fatalf("expected match")
	}
	r.StartedAt, r.CompletedAt = &now, &now
	if (ReportFilter{OpenOnly: true}).Matches(r) {
		t.Fatalf("completed report must not be open")
	}
	if !(ReportFilter{Status: StatusCompleted}).Matches(r) {
		t.Fatalf("expected completed status match")
	}
}

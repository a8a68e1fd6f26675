package translate_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"vprepair/internal/domain"
	"vprepair/internal/translate"
)

// table maps "src>tgt:text" to the translated output.
func tableProvider(name string, table map[string]string, calls *[]string) translate.Provider {
	return translate.ProviderFunc{ProviderName: name, Fn: func(ctx context.Context, text string, src, tgt domain.Language) (string, error) {
		key := fmt.Sprintf("%s>%s:%s", src, tgt, text)
		if calls != nil {
			*calls = append(*calls, name+" "+key)
		}
		out, ok := table[key]
		if !ok {
			return "", fmt.Errorf("%w: %s>%s", translate.ErrModelUnavailable, src, tgt)
		}
		return out, nil
	}}
}

func failing(name string, err error) translate.Provider {
	return translate.ProviderFunc{ProviderName: name, Fn: func(context.Context, string, domain.Language, domain.Language) (string, error) {
		return "", err
	}}
}

func echo(name string) translate.Provider {
	return translate.ProviderFunc{ProviderName: name, Fn: func(_ context.Context, text string, _, _ domain.Language) (string, error) {
		return text, nil
	}}
}

func TestPassthroughWhenSameLanguage(t *testing.T) {
	var calls []string
	r := translate.NewRouter(domain.English, nil, tableProvider("offline", nil, &calls))
	res := r.Translate(context.Background(), "Motoren er i stykker", domain.Danish, domain.Danish)
	if res.Outcome != translate.OutcomePassthrough || res.Text != "Motoren er i stykker" || !res.OK() {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(calls) != 0 {
		t.Fatalf("providers must not be called, got %v", calls)
	}
}

func TestDirectRouteFromEnglish(t *testing.T) {
	var calls []string
	r := translate.NewRouter(domain.English, nil, tableProvider("offline", map[string]string{
		"en>da:The engine is broken": "Motoren er i stykker",
	}, &calls))
	res := r.Translate(context.Background(), "The engine is broken", domain.English, domain.Danish)
	if res.Outcome != translate.OutcomeTranslated || res.Route != translate.RouteDirect || res.Text != "Motoren er i stykker" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(calls) != 1 {
		t.Fatalf("expected a single hop, got %v", calls)
	}
}

func TestPivotRouteThroughEnglish(t *testing.T) {
	var calls []string
	r := translate.NewRouter(domain.English, nil, tableProvider("offline", map[string]string{
		"de>en:Der Motor ist kaputt": "The engine is broken",
		"en>da:The engine is broken": "Motoren er i stykker",
	}, &calls))
	res := r.Translate(context.Background(), "Der Motor ist kaputt", domain.German, domain.Danish)
	if res.Outcome != translate.OutcomeTranslated || res.Route != translate.RoutePivot {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Text != "Motoren er i stykker" {
		t.Fatalf("intermediate text leaked: %q", res.Text)
	}
	want := []string{"offline de>en:Der Motor ist kaputt", "offline en>da:The engine is broken"}
	if strings.Join(calls, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestFallbackToSecondProvider(t *testing.T) {
	online := tableProvider("online", map[string]string{
		"pl>en:Silnik jest zepsuty":  "The engine is broken",
		"en>da:The engine is broken": "Motoren er i stykker",
	}, nil)
	r := translate.NewRouter(domain.English, nil, failing("offline", translate.ErrModelUnavailable), online)
	res := r.Translate(context.Background(), "Silnik jest zepsuty", domain.Polish, domain.Danish)
	if res.Outcome != translate.OutcomeTranslated || res.Text != "Motoren er i stykker" {
		t.Fatalf("unexpected result %+v", res)
	}
	if strings.Join(res.Providers, ",") != "online,online" {
		t.Fatalf("providers = %v", res.Providers)
	}
}

func TestNoOpTranslationIsFailure(t *testing.T) {
	r := translate.NewRouter(domain.English, nil, echo("offline"), echo("online"))
	res := r.Translate(context.Background(), "The engine is broken", domain.English, domain.Danish)
	if res.Outcome != translate.OutcomeFailed {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Text == "The engine is broken" || !translate.IsFailureMarker(res.Text) {
		t.Fatalf("untranslated text presented as success: %q", res.Text)
	}
	if len(res.Failure.Attempts) != 2 || res.Failure.Attempts[0].Kind != "noop_translation" {
		t.Fatalf("unexpected attempts %+v", res.Failure.Attempts)
	}
}

func TestTotalFailureWrapsOriginal(t *testing.T) {
	r := translate.NewRouter(domain.English, nil,
		failing("offline", translate.ErrModelUnavailable),
		failing("online", fmt.Errorf("%w: connection refused", translate.ErrServiceUnreachable)))
	res := r.Translate(context.Background(), "Der Motor ist kaputt", domain.German, domain.Danish)
	if res.OK() || res.Failure == nil {
		t.Fatalf("expected failure, got %+v", res)
	}
	orig, lang, ok := translate.Unwrap(res.Text)
	if !ok || orig != "Der Motor ist kaputt" || lang != domain.German {
		t.Fatalf("marker does not preserve original: %q", res.Text)
	}
	kinds := []string{res.Failure.Attempts[0].Kind, res.Failure.Attempts[1].Kind}
	if kinds[0] != "model_unavailable" || kinds[1] != "service_unreachable" {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestEmptyOutputIsFailure(t *testing.T) {
	empty := translate.ProviderFunc{ProviderName: "online", Fn: func(context.Context, string, domain.Language, domain.Language) (string, error) {
		return "  ", nil
	}}
	res := translate.NewRouter(domain.English, nil, empty).Translate(context.Background(), "hello", domain.English, domain.Danish)
	if res.OK() || res.Failure.Attempts[0].Kind != "empty_translation" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDeadlineCountsAsUnreachable(t *testing.T) {
	slow := translate.ProviderFunc{ProviderName: "online", Fn: func(ctx context.Context, _ string, _, _ domain.Language) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res := translate.NewRouter(domain.English, nil, slow).Translate(ctx, "hello", domain.English, domain.Danish)
	if res.OK() {
		t.Fatalf("expected failure")
	}
	if res.Failure.Attempts[0].Kind != "service_unreachable" {
		t.Fatalf("kind = %s", res.Failure.Attempts[0].Kind)
	}
}

func TestFailureMarkerHelpers(t *testing.T) {
	if translate.IsFailureMarker("Motoren er i stykker") {
		t.Fatalf("plain text is not a marker")
	}
	m := translate.WrapFailed(domain.Polish, "Silnik")
	if !translate.IsFailureMarker(m) {
		t.Fatalf("expected marker: %q", m)
	}
	if !errors.Is(&translate.ProviderError{Err: translate.ErrServiceError}, translate.ErrServiceError) {
		t.Fatalf("provider error must unwrap")
	}
}

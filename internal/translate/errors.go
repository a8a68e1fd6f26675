package translate

import (
	"context"
	"errors"
	"fmt"

	"vprepair/internal/domain"
)

var (
	ErrModelUnavailable    = errors.New("translation model unavailable")
	ErrServiceUnreachable  = errors.New("translation service unreachable")
	ErrServiceError        = errors.New("translation service error")
	ErrNoOpTranslation     = errors.New("no-op translation detected")
	ErrEmptyTranslation    = errors.New("empty translation")
	ErrUnsupportedLanguage = domain.ErrUnsupportedLanguage
)

// ProviderError is a failed call to a single provider for one hop.
type ProviderError struct {
	Provider string
	Source   domain.Language
	Target   domain.Language
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s->%s: %v", e.Provider, e.Source, e.Target, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Kind names the failure class of err for logs and API payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrServiceUnreachable), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "service_unreachable"
	case errors.Is(err, ErrServiceError):
		return "service_error"
	case errors.Is(err, ErrNoOpTranslation):
		return "noop_translation"
	case errors.Is(err, ErrEmptyTranslation):
		return "empty_translation"
	case errors.Is(err, ErrUnsupportedLanguage):
		return "unsupported_language"
	default:
		return "unknown"
	}
}

// classify normalises an arbitrary provider error. Context expiry counts as
// the service being unreachable.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrModelUnavailable) || errors.Is(err, ErrServiceUnreachable) ||
		errors.Is(err, ErrServiceError) || errors.Is(err, ErrUnsupportedLanguage) ||
		errors.Is(err, ErrNoOpTranslation) || errors.Is(err, ErrEmptyTranslation) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
	}
	return fmt.Errorf("%w: %v", ErrServiceError, err)
}

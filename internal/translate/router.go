package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"vprepair/internal/domain"
	"vprepair/internal/logging"
)

type Outcome string

const (
	OutcomeTranslated  Outcome = "translated"
	OutcomePassthrough Outcome = "passthrough"
	OutcomeFailed      Outcome = "failed"
)

// State maps the outcome onto the stored translation state.
func (o Outcome) State() domain.TranslationState {
	switch o {
	case OutcomeTranslated:
		return domain.TranslationTranslated
	case OutcomePassthrough:
		return domain.TranslationPassthrough
	default:
		return domain.TranslationFailed
	}
}

type RouteKind string

const (
	RoutePassthrough RouteKind = "passthrough"
	RouteDirect      RouteKind = "direct"
	RoutePivot       RouteKind = "pivot"
)

// Attempt records one provider call for one hop.
type Attempt struct {
	Provider string          `json:"provider"`
	Source   domain.Language `json:"source"`
	Target   domain.Language `json:"target"`
	Kind     string          `json:"kind"`
	Error    string          `json:"error"`
}

type Failure struct {
	Source   domain.Language `json:"source"`
	Target   domain.Language `json:"target"`
	Attempts []Attempt       `json:"attempts"`
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	parts := make([]string, 0, len(f.Attempts))
	for _, a := range f.Attempts {
		parts = append(parts, fmt.Sprintf("%s %s->%s: %s", a.Provider, a.Source, a.Target, a.Kind))
	}
	return "translation failed: " + strings.Join(parts, "; ")
}

// Result is the outcome of one Router.Translate call. Text is the target
// language text, the unchanged input for passthrough, or a failure marker.
type Result struct {
	Text      string    `json:"text"`
	Outcome   Outcome   `json:"outcome"`
	Route     RouteKind `json:"route"`
	Providers []string  `json:"providers,omitempty"`
	Failure   *Failure  `json:"failure,omitempty"`
}

func (r Result) OK() bool { return r.Outcome != OutcomeFailed }

// Router picks a route for a language pair and walks the provider chain
// for every hop. It holds no per-call state.
type Router struct {
	Providers []Provider
	Pivot     domain.Language
	Log       logrus.FieldLogger
}

func NewRouter(pivot domain.Language, log logrus.FieldLogger, providers ...Provider) *Router {
	if pivot == "" {
		pivot = domain.English
	}
	return &Router{Providers: providers, Pivot: pivot, Log: log}
}

func (r *Router) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logging.Discard()
	}
	return r.Log
}

// Translate never returns an error. Provider failures are collected in
// Result.Failure and the text falls back to the failure marker.
func (r *Router) Translate(ctx context.Context, text string, source, target domain.Language) Result {
	log := r.logger().WithFields(logrus.Fields{"operation": "translate", "source": source, "target": target})
	if source == target {
		return Result{Text: text, Outcome: OutcomePassthrough, Route: RoutePassthrough}
	}
	hops := [][2]domain.Language{{source, target}}
	route := RouteDirect
	if source != r.Pivot && target != r.Pivot {
		hops = [][2]domain.Language{{source, r.Pivot}, {r.Pivot, target}}
		route = RoutePivot
	}

	current := text
	var used []string
	for _, hop := range hops {
		out, provider, failure := r.hop(ctx, log, current, hop[0], hop[1])
		if failure != nil {
			failure.Source, failure.Target = source, target
			log.WithField("route", route).Warn(failure.Error())
			return Result{Text: WrapFailed(source, text), Outcome: OutcomeFailed, Route: route, Providers: used, Failure: failure}
		}
		used = append(used, provider)
		current = out
	}
	return Result{Text: current, Outcome: OutcomeTranslated, Route: route, Providers: used}
}

func (r *Router) hop(ctx context.Context, log logrus.FieldLogger, text string, source, target domain.Language) (string, string, *Failure) {
	failure := &Failure{}
	if len(r.Providers) == 0 {
		failure.Attempts = append(failure.Attempts, Attempt{Source: source, Target: target, Kind: "no_provider", Error: "no providers configured"})
		return "", "", failure
	}
	for _, p := range r.Providers {
		out, err := r.call(ctx, p, text, source, target)
		if err == nil {
			return out, p.Name(), nil
		}
		perr := &ProviderError{Provider: p.Name(), Source: source, Target: target, Err: err}
		log.WithFields(logrus.Fields{"provider": p.Name(), "hop": string(source) + "->" + string(target), "kind": Kind(err)}).
			Warn(perr.Error())
		failure.Attempts = append(failure.Attempts, Attempt{Provider: p.Name(), Source: source, Target: target, Kind: Kind(err), Error: err.Error()})
	}
	return "", "", failure
}

func (r *Router) call(ctx context.Context, p Provider, text string, source, target domain.Language) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", classify(ctx, err)
	}
	out, err := p.Translate(ctx, text, source, target)
	if err != nil {
		return "", classify(ctx, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyTranslation
	}
	if strings.TrimSpace(out) == strings.TrimSpace(text) {
		return "", ErrNoOpTranslation
	}
	return out, nil
}

// Pairs collects installed pairs from providers that can list them.
func (r *Router) Pairs(ctx context.Context) (map[string][]Pair, error) {
	res := map[string][]Pair{}
	for _, p := range r.Providers {
		lister, ok := p.(PairLister)
		if !ok {
			continue
		}
		pairs, err := lister.Pairs(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name(), err)
		}
		res[p.Name()] = pairs
	}
	return res, nil
}

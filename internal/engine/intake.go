package engine

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vprepair/internal/domain"
	"vprepair/internal/events"
	"vprepair/internal/translate"
)

const (
	titleRunes    = 60
	maxTitleRunes = 200
)

// Submission is an inbound fault report.
type Submission struct {
	AssetRef       string
	Title          string
	Description    string
	SourceLanguage string
	Priority       string
	ImageRef       string
	ReporterID     string
}

// ParseLanguage accepts code if it is registered and enabled for intake.
func (e Engine) ParseLanguage(code string) (domain.Language, error) {
	lang, err := domain.ParseLanguage(code)
	if err != nil {
		return "", validationf("%v", err)
	}
	if len(e.Languages) == 0 {
		return lang, nil
	}
	for _, l := range e.Languages {
		if l == lang {
			return lang, nil
		}
	}
	return "", validationf("%v: %s is not enabled", domain.ErrUnsupportedLanguage, lang)
}

// SubmitReport translates the description into the target language and
// stores a new report. A failed translation does not fail the submission:
// the report is stored with the failure marker and can be retranslated.
func (e Engine) SubmitReport(ctx context.Context, sub Submission) (domain.FaultReport, translate.Result, error) {
	log := e.logger("submit_report")
	text := sub.Description
	if strings.TrimSpace(text) == "" {
		return domain.FaultReport{}, translate.Result{}, validationf("description is required")
	}
	lang, err := e.ParseLanguage(sub.SourceLanguage)
	if err != nil {
		return domain.FaultReport{}, translate.Result{}, err
	}
	priority, err := domain.ParsePriority(sub.Priority)
	if err != nil {
		return domain.FaultReport{}, translate.Result{}, validationf("%v", err)
	}
	var assetID *string
	if ref := strings.TrimSpace(sub.AssetRef); ref != "" {
		asset, err := e.ResolveAsset(ctx, ref)
		if err != nil {
			return domain.FaultReport{}, translate.Result{}, err
		}
		assetID = &asset.ID
	}
	title := strings.TrimSpace(sub.Title)
	if title == "" {
		title = defaultTitle(text)
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return domain.FaultReport{}, translate.Result{}, validationf("title is longer than %d characters", maxTitleRunes)
	}

	res := e.translate(ctx, text, lang)
	now := e.now()
	rep := domain.FaultReport{
		ID:               uuid.NewString(),
		AssetID:          assetID,
		Title:            title,
		OriginalText:     text,
		OriginalLanguage: lang,
		TranslatedText:   res.Text,
		TargetLanguage:   e.target(),
		Translation:      res.Outcome.State(),
		Priority:         priority,
		ImageRef:         sub.ImageRef,
		ReporterID:       sub.ReporterID,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
	rep, err = e.Store.CreateReport(ctx, rep, events.Record{
		Type:       events.ReportCreated,
		EntityKind: "report",
		EntityID:   rep.ID,
		ActorID:    sub.ReporterID,
		Payload:    translationPayload(res, events.EventPayload{"priority": priority.String(), "source_language": string(lang)}),
	})
	if err != nil {
		log.WithError(err).Error("store report")
		return domain.FaultReport{}, res, err
	}
	log.WithFields(logrus.Fields{"report_id": rep.ID, "translation": rep.Translation}).Info("report submitted")
	return rep, res, nil
}

// translate never fails. The context bounds every provider call. Providers
// see the text without surrounding whitespace; the stored original keeps it.
func (e Engine) translate(ctx context.Context, text string, source domain.Language) translate.Result {
	text = strings.TrimSpace(text)
	if e.TranslateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.TranslateTimeout)
		defer cancel()
	}
	if e.Router == nil {
		return translate.Result{
			Text:    translate.WrapFailed(source, text),
			Outcome: translate.OutcomeFailed,
			Failure: &translate.Failure{Source: source, Target: e.target()},
		}
	}
	return e.Router.Translate(ctx, text, source, e.target())
}

// Translate previews a translation without storing anything.
func (e Engine) Translate(ctx context.Context, text, source, target string) (translate.Result, error) {
	if strings.TrimSpace(text) == "" {
		return translate.Result{}, validationf("text is required")
	}
	src, err := e.ParseLanguage(source)
	if err != nil {
		return translate.Result{}, err
	}
	tgt := e.target()
	if target != "" {
		if tgt, err = e.ParseLanguage(target); err != nil {
			return translate.Result{}, err
		}
	}
	if e.Router == nil {
		return translate.Result{Text: translate.WrapFailed(src, text), Outcome: translate.OutcomeFailed}, nil
	}
	if e.TranslateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.TranslateTimeout)
		defer cancel()
	}
	return e.Router.Translate(ctx, text, src, tgt), nil
}

// Models lists installed offline language pairs by provider.
func (e Engine) Models(ctx context.Context) (map[string][]translate.Pair, error) {
	if e.Router == nil {
		return map[string][]translate.Pair{}, nil
	}
	return e.Router.Pairs(ctx)
}

// Retranslate runs the stored original text through the router again and
// replaces the translated text. A failed attempt never overwrites a usable
// translation; it is only recorded in the event. The workflow state is not
// touched.
func (e Engine) Retranslate(ctx context.Context, id, actorID string) (domain.FaultReport, translate.Result, error) {
	rep, err := e.Store.GetReport(ctx, id)
	if err != nil {
		return domain.FaultReport{}, translate.Result{}, err
	}
	res := e.translate(ctx, rep.OriginalText, rep.OriginalLanguage)
	updated, err := e.mutate(ctx, id, "retranslate", func(r *domain.FaultReport) (events.Record, error) {
		previous := r.Translation
		kept := !res.OK() && previous != domain.TranslationFailed
		if !kept {
			r.TranslatedText = res.Text
			r.TargetLanguage = e.target()
			r.Translation = res.Outcome.State()
		}
		return events.Record{
			Type:       events.ReportRetranslated,
			EntityKind: "report",
			EntityID:   r.ID,
			ActorID:    actorID,
			Payload:    translationPayload(res, events.EventPayload{"previous": string(previous), "kept_previous": kept}),
		}, nil
	})
	return updated, res, err
}

// RetranslateFailed retries every report whose stored translation failed.
// Per-report errors are joined; reports that succeeded are still returned.
func (e Engine) RetranslateFailed(ctx context.Context, limit int, actorID string) ([]domain.FaultReport, error) {
	failed, err := e.Store.ListReports(ctx, domain.ReportFilter{TranslationFailed: true, Limit: limit})
	if err != nil {
		return nil, err
	}
	var out []domain.FaultReport
	var errs []error
	for _, r := range failed {
		updated, _, err := e.Retranslate(ctx, r.ID, actorID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, updated)
	}
	return out, errors.Join(errs...)
}

func translationPayload(res translate.Result, extra events.EventPayload) events.EventPayload {
	p := events.EventPayload{"translation": string(res.Outcome), "route": string(res.Route)}
	if len(res.Providers) > 0 {
		p["providers"] = res.Providers
	}
	if res.Failure != nil {
		p["attempts"] = res.Failure.Attempts
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func defaultTitle(text string) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(text), "\n", 2)[0])
	runes := []rune(line)
	if len(runes) <= titleRunes {
		return line
	}
	return strings.TrimSpace(string(runes[:titleRunes]))
}

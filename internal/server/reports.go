package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"vprepair/internal/domain"
	"vprepair/internal/engine"
)

type reportPath struct {
	ID string `path:"id"`
}

func registerReports(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-report",
		Method:        http.MethodPost,
		Path:          "/reports",
		Summary:       "Submit a fault report",
		Description:   "Translates the description into the target language and stores the report. A failed translation still stores the report.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body SubmitReportRequest `json:"body"`
	}) (*struct {
		Body SubmitReportResponse `json:"body"`
	}, error) {
		sub := engine.Submission{
			AssetRef:       input.Body.AssetRef,
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			SourceLanguage: input.Body.SourceLanguage,
			Priority:       input.Body.Priority,
			ImageRef:       input.Body.ImageRef,
		}
		if p, ok := principalFromContext(ctx); ok {
			sub.ReporterID = p.ActorID
		}
		rep, res, err := e.SubmitReport(ctx, sub)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SubmitReportResponse `json:"body"`
		}{Body: SubmitReportResponse{Report: reportResponse(rep), Result: translationBrief(res)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-reports",
		Method:      http.MethodGet,
		Path:        "/reports",
		Summary:     "List reports, newest first",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status            string `query:"status" doc:"new, assigned, in_progress or completed"`
		AssignedTo        string `query:"assigned_to"`
		AssetID           string `query:"asset_id"`
		OpenOnly          bool   `query:"open"`
		TranslationFailed bool   `query:"translation_failed"`
		Limit             int    `query:"limit" default:"100" minimum:"1" maximum:"1000"`
	}) (*struct {
		Body ReportList `json:"body"`
	}, error) {
		if _, err := requirePrincipal(ctx); err != nil {
			return nil, err
		}
		f := domain.ReportFilter{
			AssignedTo:        input.AssignedTo,
			AssetID:           input.AssetID,
			OpenOnly:          input.OpenOnly,
			TranslationFailed: input.TranslationFailed,
			Limit:             input.Limit,
		}
		if input.Status != "" {
			st, err := domain.ParseStatus(input.Status)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
			}
			f.Status = st
		}
		reps, err := e.ListReports(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportList `json:"body"`
		}{Body: reportList(reps)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report",
		Method:      http.MethodGet,
		Path:        "/reports/{id}",
		Summary:     "Get report",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, input *reportPath) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		if _, err := requirePrincipal(ctx); err != nil {
			return nil, err
		}
		rep, err := e.GetReport(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: reportResponse(rep)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-events",
		Method:      http.MethodGet,
		Path:        "/reports/{id}/events",
		Summary:     "Report history, newest first",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, input *reportPath) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		if _, err := requirePrincipal(ctx); err != nil {
			return nil, err
		}
		evts, err := e.ReportEvents(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EventResponse, 0, len(evts))
		for _, evt := range evts {
			out = append(out, eventResponse(evt))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: out}, nil
	})
}

func registerWorkflow(api huma.API, e engine.Engine) {
	type reportOut = struct {
		Body ReportResponse `json:"body"`
	}
	workflowErrors := []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict}

	huma.Register(api, huma.Operation{
		OperationID: "assign-report",
		Method:      http.MethodPost,
		Path:        "/reports/{id}/assign",
		Summary:     "Assign a new report to a mechanic",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body AssignRequest `json:"body"`
	}) (*reportOut, error) {
		p, err := requireSupervisor(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		rep, err := e.Assign(ctx, input.ID, input.Body.MechanicID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &reportOut{Body: reportResponse(rep)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-report",
		Method:      http.MethodPost,
		Path:        "/reports/{id}/start",
		Summary:     "Start work on an assigned report",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *reportPath) (*reportOut, error) {
		rep, err := e.GetReport(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		p, err := requireAssigneeOrSupervisor(ctx, rep)
		if err != nil {
			return nil, handleError(err)
		}
		rep, err = e.Start(ctx, input.ID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &reportOut{Body: reportResponse(rep)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-report",
		Method:      http.MethodPost,
		Path:        "/reports/{id}/complete",
		Summary:     "Complete an in-progress report",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *reportPath) (*reportOut, error) {
		rep, err := e.GetReport(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		p, err := requireAssigneeOrSupervisor(ctx, rep)
		if err != nil {
			return nil, handleError(err)
		}
		// a supervisor closing on behalf of the mechanic records the assignee
		mechanic := p.ActorID
		if rep.AssignedTo != nil && *rep.AssignedTo != p.ActorID {
			mechanic = *rep.AssignedTo
		}
		rep, err = e.Complete(ctx, input.ID, mechanic)
		if err != nil {
			return nil, handleError(err)
		}
		return &reportOut{Body: reportResponse(rep)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "retranslate-report",
		Method:      http.MethodPost,
		Path:        "/reports/{id}/retranslate",
		Summary:     "Translate the stored original text again",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *reportPath) (*struct {
		Body SubmitReportResponse `json:"body"`
	}, error) {
		p, err := requirePrincipal(ctx)
		if err != nil {
			return nil, err
		}
		rep, res, rerr := e.Retranslate(ctx, input.ID, p.ActorID)
		if rerr != nil {
			return nil, handleError(rerr)
		}
		return &struct {
			Body SubmitReportResponse `json:"body"`
		}{Body: SubmitReportResponse{Report: reportResponse(rep), Result: translationBrief(res)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-report-priority",
		Method:      http.MethodPut,
		Path:        "/reports/{id}/priority",
		Summary:     "Change report priority",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *struct {
		ID   string          `path:"id"`
		Body PriorityRequest `json:"body"`
	}) (*reportOut, error) {
		p, err := requireSupervisor(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		rep, err := e.SetPriority(ctx, input.ID, input.Body.Priority, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &reportOut{Body: reportResponse(rep)}, nil
	})
}

func registerQueues(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "mechanic-queue",
		Method:      http.MethodGet,
		Path:        "/mechanics/{mechanic_id}/queue",
		Summary:     "Open reports for a mechanic, most urgent first",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		MechanicID string `path:"mechanic_id"`
	}) (*struct {
		Body ReportList `json:"body"`
	}, error) {
		p, err := requirePrincipal(ctx)
		if err != nil {
			return nil, err
		}
		if p.ActorID != input.MechanicID && !p.HasRole(RoleSupervisor) {
			return nil, handleError(ForbiddenError{Reason: "queue belongs to another mechanic"})
		}
		reps, qerr := e.OpenReportsFor(ctx, input.MechanicID)
		if qerr != nil {
			return nil, handleError(qerr)
		}
		return &struct {
			Body ReportList `json:"body"`
		}{Body: reportList(reps)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "my-queue",
		Method:      http.MethodGet,
		Path:        "/me/queue",
		Summary:     "Open reports for the caller",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ReportList `json:"body"`
	}, error) {
		p, err := requirePrincipal(ctx)
		if err != nil {
			return nil, err
		}
		reps, qerr := e.OpenReportsFor(ctx, p.ActorID)
		if qerr != nil {
			return nil, handleError(qerr)
		}
		return &struct {
			Body ReportList `json:"body"`
		}{Body: reportList(reps)}, nil
	})
}

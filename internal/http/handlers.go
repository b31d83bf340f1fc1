package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"savings/internal/log"
	"savings/internal/recordstore"
	"savings/internal/session"
	"savings/internal/view"
)

// readyTimeout bounds the record store check behind /readyz.
const readyTimeout = 3 * time.Second

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	b, _ := s.board(w, r)
	b.Mount(r.Context())

	rows, series := b.Projection()
	data := pageView{
		Form:  newFormView(b.Form().Fields(), nil),
		Grid:  s.gridView(b, rows, ParsePageParams(r.URL.Query())),
		Chart: newChartView(series),
	}

	s.render(w, r, NewHTMXResponse(), "index.html", data)
}

// handleFormUpdate keeps the edit session in step with the inputs as the user types.
func (s *Server) handleFormUpdate(w http.ResponseWriter, r *http.Request) {
	b, _ := s.board(w, r)
	form, err := ParseRecordForm(r)
	if err != nil {
		s.badForm(w, r, err)
		return
	}
	form.ApplyTo(b.Form())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	b, created := s.board(w, r)
	if created {
		b.Mount(ctx)
	}
	form, err := ParseRecordForm(r)
	if err != nil {
		s.badForm(w, r, err)
		return
	}
	form.ApplyTo(b.Form())

	outcome, err := b.Form().Submit(ctx)

	var verr *session.ValidationError
	if errors.As(err, &verr) {
		s.metrics.ObserveInvalid()
		logger.InfoContext(ctx, "Record form rejected by validation",
			log.FieldSessionID, b.ID(),
			log.FieldOperation, log.OpValidate,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, verr.Error())
		s.renderForm(w, r, b, verr, NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification(MsgFormInvalid))
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Submit failed",
			log.FieldSessionID, b.ID(),
			log.FieldOperation, log.OpSubmit,
			log.FieldErrorType, log.ErrorTypeInternal,
			log.FieldError, err)
		InternalServerError("Could not save the record").Write(w)
		return
	}

	switch outcome.Kind {
	case recordstore.Success:
		logger.InfoContext(ctx, "Record saved",
			log.FieldSessionID, b.ID(),
			log.FieldOperation, log.OpSubmit,
			log.FieldRecordName, b.Form().Fields().Name,
			log.FieldChangeCount, b.Form().ChangeCount())
		s.renderForm(w, r, b, nil, NewHTMXResponse().
			TriggerRecordsChanged(b.Form().ChangeCount()).
			TriggerSuccessNotification(MsgSaved))

	case recordstore.Rejected:
		s.metrics.ObserveOutcome(outcome)
		logger.WarnContext(ctx, "Record store rejected the record",
			log.FieldSessionID, b.ID(),
			log.FieldOperation, log.OpSubmit,
			log.FieldErrorType, log.ErrorTypeRejected,
			log.FieldOutcome, outcome.String())
		s.renderForm(w, r, b, nil, NewHTMXResponse().
			TriggerErrorNotification(MsgRejectedPrefix+outcome.Message))

	default:
		s.metrics.ObserveOutcome(outcome)
		logger.ErrorContext(ctx, "Record store unreachable",
			log.FieldSessionID, b.ID(),
			log.FieldOperation, log.OpSubmit,
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldOutcome, outcome.String())
		s.renderForm(w, r, b, nil, NewHTMXResponse().
			Status(http.StatusBadGateway).
			TriggerErrorNotification(MsgUnreachable))
	}
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	b, created := s.board(w, r)
	if created {
		b.Mount(r.Context())
	}
	id, err := ParseRecordID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !b.Edit(id) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Edit of a record missing from the current set",
			log.FieldSessionID, b.ID(),
			log.FieldRecordID, id,
			log.FieldErrorType, log.ErrorTypeNotFound)
		NotFoundError(MsgRecordNotFound).
			TriggerErrorNotification(MsgRecordNotFound).
			Write(w)
		return
	}
	s.renderForm(w, r, b, nil, NewHTMXResponse())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	b, _ := s.board(w, r)
	b.Form().Reset()
	log.FromContext(r.Context()).DebugContext(r.Context(), "Form reset",
		log.FieldSessionID, b.ID(),
		log.FieldOperation, log.OpReset)
	s.renderForm(w, r, b, nil, NewHTMXResponse().TriggerFormReset())
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	b, created := s.board(w, r)
	if created {
		b.Mount(r.Context())
	}
	rows, _ := b.Projection()
	data := s.gridView(b, rows, ParsePageParams(r.URL.Query()))
	s.render(w, r, NewHTMXResponse(), "grid", data)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	b, created := s.board(w, r)
	if created {
		b.Mount(r.Context())
	}
	_, series := b.Projection()
	s.render(w, r, NewHTMXResponse(), "chart", newChartView(series))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	b, created := s.board(w, r)
	if created {
		b.Mount(r.Context())
	}
	records, _ := b.Records()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	if err := view.WriteCSV(w, records); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
	}
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, b *session.Board, verr *session.ValidationError, resp *HTMXResponseBuilder) {
	s.render(w, r, resp, "form", newFormView(b.Form().Fields(), verr))
}

// render executes the named template into resp and writes it. Render
// failures are logged; the client gets the builder's 500 body.
func (s *Server) render(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data any) {
	resp.BodyTemplate(s.templates, name, data)
	if err := resp.RenderError(); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template render failed",
			log.FieldOperation, log.OpRender,
			log.FieldErrorType, log.ErrorTypeInternal,
			"template", name,
			log.FieldError, err)
	}
	resp.Write(w)
}

func (s *Server) badForm(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).InfoContext(r.Context(), "Unreadable record form",
		log.FieldOperation, log.OpParse,
		log.FieldErrorType, log.ErrorTypeValidation,
		log.FieldError, err)
	BadRequestError("Invalid request format").Write(w)
}

func (s *Server) gridView(b *session.Board, rows []view.GridRow, params PageParams) gridView {
	records, _ := b.Records()
	page := view.Paginate(rows, params.Page, params.Size)
	return gridView{
		Page:        page,
		PageNumbers: pageNumbers(page.Pages),
		PageSizes:   view.PageSizes,
		Summary:     newSummaryView(records),
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			errType := log.ErrorTypeNetwork
			if errors.Is(err, context.DeadlineExceeded) {
				errType = log.ErrorTypeTimeout
			}
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				log.FieldErrorType, errType,
				log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("record store unreachable"))
			return
		}
	}
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.trace.GetMetrics()
	rl := s.limiter.GetMetrics()

	metrics := []metric{
		{"savings_http_requests_total", tm.TotalRequests},
		{"savings_http_server_errors_total", tm.ServerErrors},
		{"savings_http_avg_response_ms", tm.AverageResponseTime.Milliseconds()},
		{"savings_rate_limit_hits_total", rl.TotalHits},
		{"savings_rate_limit_clients", rl.ClientCount},
		{"savings_sessions_active", s.boards.Len()},
	}
	metrics = append(metrics, s.metrics.snapshot()...)
	if s.publisherStats != nil {
		ps := s.publisherStats()
		metrics = append(metrics,
			metric{"savings_amqp_published_total", ps.Published},
			metric{"savings_amqp_failed_total", ps.Failed},
			metric{"savings_amqp_dropped_total", ps.Dropped},
		)
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if err := writeMetrics(w, metrics); err != nil {
		s.logger.Warn("Failed writing metrics", log.FieldError, err)
	}
}

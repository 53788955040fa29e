package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/ignatij/sheetflow/pkg/schema"
	"github.com/ignatij/sheetflow/pkg/service"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Server exposes one controller session as a JSON API.
type Server struct {
	ctrl    *service.Controller
	catalog *schema.Catalog
	logger  *logrus.Logger
	mux     *http.ServeMux
}

func NewServer(ctrl *service.Controller, catalog *schema.Catalog, logger *logrus.Logger) *Server {
	s := &Server{
		ctrl:    ctrl,
		catalog: catalog,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.healthHandler)
	s.mux.HandleFunc("GET /api/state", s.stateHandler)
	s.mux.HandleFunc("POST /api/select", s.selectHandler)
	s.mux.HandleFunc("POST /api/back", s.backHandler)
	s.mux.HandleFunc("POST /api/field", s.fieldHandler)
	s.mux.HandleFunc("POST /api/submit", s.submitHandler)
	s.mux.HandleFunc("GET /api/history/{workflow}", s.historyHandler)
	s.mux.HandleFunc("GET /api/workflows/{workflow}/fields", s.fieldsHandler)
	s.mux.HandleFunc("GET /api/script", s.scriptHandler)
	return s
}

// Handler returns the routes wrapped in request-id, recover and access-log middleware.
func (s *Server) Handler() http.Handler {
	return Chain(s.mux, WithRequestID, WithRecover(s.logger), WithAccessLog(s.logger))
}

// StartServer serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) StartServer(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Infof("Starting sheetflow server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Infof("Shutting down sheetflow server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

type selectRequest struct {
	Workflow string `json:"workflow"`
}

func (s *Server) selectHandler(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	wf, err := models.ParseWorkflow(req.Workflow)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ctrl.Select(wf); err != nil {
		s.writeControllerErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) backHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Back(); err != nil {
		s.writeControllerErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

type fieldRequest struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

func (s *Server) fieldHandler(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.ctrl.SetField(req.ID, req.Value); err != nil {
		s.writeControllerErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

// submitHandler reports remote failures in the snapshot status with a 200.
func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ctrl.Submit(r.Context()); err != nil {
		s.writeControllerErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := models.ParseWorkflow(r.PathValue("workflow"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err.Error())
		return
	}
	items, err := s.ctrl.History(wf)
	if err != nil {
		writeErr(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) fieldsHandler(w http.ResponseWriter, r *http.Request) {
	wf, err := models.ParseWorkflow(r.PathValue("workflow"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err.Error())
		return
	}
	sch := s.catalog.Resolve(wf)
	if !sch.IsForm() {
		writeErr(w, http.StatusNotFound, "workflow '"+string(wf)+"' has no form")
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

func (s *Server) scriptHandler(w http.ResponseWriter, r *http.Request) {
	script, err := schema.RenderScript(s.catalog.Layout())
	if err != nil {
		s.logger.Errorf("Failed to render endpoint script: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to render script")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(script))
}

func (s *Server) writeControllerErr(w http.ResponseWriter, err error) {
	switch errors.Cause(err) {
	case service.ErrBusy, service.ErrInvalidTransition:
		writeErr(w, http.StatusConflict, err.Error())
	case service.ErrUnknownField:
		writeErr(w, http.StatusNotFound, err.Error())
	case service.ErrNoForm, service.ErrReadOnlyField:
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Errorf("Unexpected controller error: %v", err)
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package dashboard serves the JSON API the strategy-builder front end
// drives: strike ladders, index specs, draft CRUD, the wizard steps and
// submission. Handlers load a draft copy from storage, run the mutation on
// the model and persist the result, so every response reflects exactly
// what was saved.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/quantrail/stratforge/internal/models"
	"github.com/quantrail/stratforge/internal/orders"
	"github.com/quantrail/stratforge/internal/storage"
)

type Server struct {
	router        *chi.Mux
	server        *http.Server
	store         storage.Interface
	orders        *orders.Manager
	specs         models.IndexSpecs
	logger        *logrus.Logger
	port          int
	authToken     string
	defaultIndex  models.IndexSymbol
	defaultExpiry models.ExpiryType
}

type Config struct {
	Port          int
	AuthToken     string
	DefaultIndex  models.IndexSymbol
	DefaultExpiry models.ExpiryType
}

func NewServer(cfg Config, store storage.Interface, manager *orders.Manager, specs models.IndexSpecs, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	if specs == nil {
		specs = models.DefaultIndexSpecs()
	}
	if !cfg.DefaultIndex.Valid() {
		cfg.DefaultIndex = models.IndexNifty
	}
	if !cfg.DefaultExpiry.Valid() {
		cfg.DefaultExpiry = models.ExpiryWeekly
	}

	s := &Server{
		router:        chi.NewRouter(),
		store:         store,
		orders:        manager,
		specs:         specs,
		logger:        logger,
		port:          cfg.Port,
		authToken:     cfg.AuthToken,
		defaultIndex:  cfg.DefaultIndex,
		defaultExpiry: cfg.DefaultExpiry,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)

	s.router.Get("/api/ladders/{method}", s.handleGetLadder)
	s.router.Get("/api/indices", s.handleGetIndices)

	s.router.Get("/api/drafts", s.handleListDrafts)
	s.router.Post("/api/drafts", s.handleCreateDraft)
	s.router.Get("/api/drafts/{id}", s.handleGetDraft)
	s.router.Patch("/api/drafts/{id}", s.handleUpdateStrategy)
	s.router.Delete("/api/drafts/{id}", s.handleDeleteDraft)

	s.router.Post("/api/drafts/{id}/legs", s.handleAddLeg)
	s.router.Patch("/api/drafts/{id}/legs/{legID}", s.handleUpdateLeg)
	s.router.Delete("/api/drafts/{id}/legs/{legID}", s.handleRemoveLeg)
	s.router.Post("/api/drafts/{id}/legs/{legID}/copy", s.handleCopyLeg)
	s.router.Put("/api/drafts/{id}/legs/{legID}/risk/{section}", s.handleUpdateLegRisk)

	s.router.Post("/api/drafts/{id}/advance", s.handleAdvance)
	s.router.Post("/api/drafts/{id}/back", s.handleBack)
	s.router.Get("/api/drafts/{id}/blockers", s.handleGetBlockers)
	s.router.Post("/api/drafts/{id}/submit", s.handleSubmit)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting dashboard server on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

type errorResponse struct {
	Error   string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps model and storage errors onto HTTP statuses. Field and
// reasons ride along when the error carries them so the UI can highlight
// the offending input.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var invalid *models.InvalidFieldError
	var blocked *models.SubmissionBlockedError

	switch {
	case errors.As(err, &invalid):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: invalid.Field})
	case models.IsPreconditionFailed(err):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &blocked):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Reasons: blocked.Reasons})
	case errors.Is(err, storage.ErrDraftNotFound) || errors.Is(err, models.ErrLegNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrDraftTerminal):
		s.writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	default:
		s.logger.WithError(err).Error("Request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON parses the request body into v, rejecting unknown fields.
// Writes the 400 itself and reports whether decoding succeeded.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (s *Server) loadDraft(w http.ResponseWriter, r *http.Request) (models.Draft, bool) {
	draft, found := s.store.GetDraftByID(chi.URLParam(r, "id"))
	if !found {
		s.writeError(w, storage.ErrDraftNotFound)
		return models.Draft{}, false
	}
	return draft, true
}

// mutateDraft runs one model mutation against a stored draft and persists
// the outcome. Failed mutations leave the stored draft untouched because
// the handler only ever works on a copy.
func (s *Server) mutateDraft(w http.ResponseWriter, r *http.Request, status int, mutate func(*models.Draft) error) {
	draft, ok := s.loadDraft(w, r)
	if !ok {
		return
	}

	if err := mutate(&draft); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.SaveDraft(draft); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, status, draft)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	s.writeJSON(w, http.StatusOK, health)
}

type ladderResponse struct {
	Method  models.SelectionMethod `json:"method"`
	Entries []models.LadderEntry   `json:"entries"`
}

func (s *Server) handleGetLadder(w http.ResponseWriter, r *http.Request) {
	method := models.SelectionMethod(chi.URLParam(r, "method"))
	if !method.Valid() {
		s.writeError(w, models.NewInvalidField("method", method, "unknown selection method"))
		return
	}

	entries := models.LadderForMethod(method)
	if entries == nil {
		entries = []models.LadderEntry{}
	}
	s.writeJSON(w, http.StatusOK, ladderResponse{Method: method, Entries: entries})
}

type indexView struct {
	Symbol              models.IndexSymbol `json:"symbol"`
	LotSize             int                `json:"lot_size"`
	StrikeStep          float64            `json:"strike_step"`
	ATMReference        float64            `json:"atm_reference"`
	IndicativeATMStrike float64            `json:"indicative_atm_strike"`
}

func (s *Server) handleGetIndices(w http.ResponseWriter, r *http.Request) {
	symbols := models.AllIndexSymbols()
	views := make([]indexView, 0, len(symbols))
	for _, sym := range symbols {
		spec, ok := s.specs.Lookup(sym)
		if !ok {
			continue
		}
		views = append(views, indexView{
			Symbol:              spec.Symbol,
			LotSize:             spec.LotSize,
			StrikeStep:          spec.StrikeStep,
			ATMReference:        spec.ATMReference,
			IndicativeATMStrike: spec.IndicativeATMStrike(),
		})
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetDrafts())
}

type createDraftRequest struct {
	Name   string             `json:"name"`
	Index  models.IndexSymbol `json:"index"`
	Expiry models.ExpiryType  `json:"expiry"`
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	req := createDraftRequest{
		Index:  s.defaultIndex,
		Expiry: s.defaultExpiry,
	}

	// The body is optional; an empty one opens an unnamed draft on the
	// configured defaults.
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	if !req.Index.Valid() {
		s.writeError(w, models.NewInvalidField("index", req.Index, "unknown index symbol"))
		return
	}
	if !req.Expiry.Valid() {
		s.writeError(w, models.NewInvalidField("expiry", req.Expiry, "must be WEEKLY or MONTHLY"))
		return
	}

	draft := models.NewDraft(req.Name, req.Index, req.Expiry)
	if err := s.store.SaveDraft(*draft); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, draft)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.loadDraft(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	var patch models.StrategyPatch
	if !s.decodeJSON(w, r, &patch) {
		return
	}
	s.mutateDraft(w, r, http.StatusOK, func(d *models.Draft) error {
		return d.UpdateStrategy(patch)
	})
}

// handleDeleteDraft cancels the wizard session and removes the draft. A
// draft that already reached a terminal state is removed as-is.
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.loadDraft(w, r)
	if !ok {
		return
	}

	if !draft.Terminal() {
		if err := draft.Cancel(); err != nil {
			s.writeError(w, err)
			return
		}
	}

	if err := s.store.DeleteDraft(draft.ID); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddLeg(w http.ResponseWriter, r *http.Request) {
	s.mutateDraft(w, r, http.StatusCreated, func(d *models.Draft) error {
		_, err := d.AddLeg()
		return err
	})
}

func (s *Server) handleUpdateLeg(w http.ResponseWriter, r *http.Request) {
	var patch models.LegPatch
	if !s.decodeJSON(w, r, &patch) {
		return
	}
	legID := chi.URLParam(r, "legID")
	s.mutateDraft(w, r, http.StatusOK, func(d *models.Draft) error {
		return d.UpdateLeg(legID, patch)
	})
}

func (s *Server) handleRemoveLeg(w http.ResponseWriter, r *http.Request) {
	legID := chi.URLParam(r, "legID")
	s.mutateDraft(w, r, http.StatusOK, func(d *models.Draft) error {
		return d.RemoveLeg(legID)
	})
}

func (s *Server) handleCopyLeg(w http.ResponseWriter, r *http.Request) {
	legID := chi.URLParam(r, "legID")
	s.mutateDraft(w, r, http.StatusCreated, func(d *models.Draft) error {
		_, err := d.CopyLeg(legID)
		return err
	})
}

func (s *Server) handleUpdateLegRisk(w http.ResponseWriter, r *http.Request) {
	patch, err := riskPatchForSection(chi.URLParam(r, "section"), r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	legID := chi.URLParam(r, "legID")
	s.mutateDraft(w, r, http.StatusOK, func(d *models.Draft) error {
		return d.ApplyLegRisk(legID, patch)
	})
}

// riskPatchForSection decodes the request body as the config the URL
// section names and wraps it in a single-section patch.
func riskPatchForSection(section string, body io.Reader) (models.LegRiskPatch, error) {
	var patch models.LegRiskPatch

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var err error
	switch section {
	case "stop-loss":
		var cfg models.StopLossConfig
		err = dec.Decode(&cfg)
		patch.StopLoss = &cfg
	case "target-profit":
		var cfg models.TargetProfitConfig
		err = dec.Decode(&cfg)
		patch.TargetProfit = &cfg
	case "trailing-stop-loss":
		var cfg models.TrailingStopLossConfig
		err = dec.Decode(&cfg)
		patch.TrailingStopLoss = &cfg
	case "wait-and-trade":
		var cfg models.WaitAndTradeConfig
		err = dec.Decode(&cfg)
		patch.WaitAndTrade = &cfg
	case "re-entry":
		var cfg models.ReEntryConfig
		err = dec.Decode(&cfg)
		patch.ReEntry = &cfg
	case "re-execute":
		var cfg models.ReExecuteConfig
		err = dec.Decode(&cfg)
		patch.ReExecute = &cfg
	default:
		return patch, models.NewInvalidField("section", section, "unknown risk section")
	}

	if err != nil {
		return patch, models.NewInvalidField("body", nil, fmt.Sprintf("invalid request body: %v", err))
	}
	return patch, nil
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.mutateDraft(w, r, http.StatusOK, func(d *models.Draft) error {
		return d.Advance()
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.mutateDraft(w, r, http.StatusOK, func(d *models.Draft) error {
		return d.Back()
	})
}

type blockersResponse struct {
	Submittable      bool            `json:"submittable"`
	Blockers         []string        `json:"blockers"`
	ReExecuteAllowed map[string]bool `json:"re_execute_allowed"`
}

func (s *Server) handleGetBlockers(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.loadDraft(w, r)
	if !ok {
		return
	}

	blockers := draft.SubmissionBlockers()
	if blockers == nil {
		blockers = []string{}
	}

	s.writeJSON(w, http.StatusOK, blockersResponse{
		Submittable:      draft.IsSubmittable(),
		Blockers:         blockers,
		ReExecuteAllowed: draft.ReExecuteAllowed(),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := s.orders.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	if result.Status == "pending" {
		// Still working at the order service; the receipt id lets the
		// caller follow up.
		status = http.StatusAccepted
	}
	s.writeJSON(w, status, result)
}

package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/logging"
	"github.com/JonMunkholm/priceingest/internal/web/templates"
)

// maxBodySize caps product and check request bodies.
const maxBodySize = 64 * 1024

// defaultRunLimit is used when /api/runs has no limit parameter.
const defaultRunLimit = 20

// productRequest is the body of create and update calls. Price is kept as
// its literal text so it goes through the same rules as a CSV field.
type productRequest struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

// checkRequest is the body of POST /api/check.
type checkRequest struct {
	Line string `json:"line"`
}

// productResponse is the JSON form of a stored product.
type productResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// runResponse is the JSON form of a run summary.
type runResponse struct {
	ID              string  `json:"id"`
	Input           string  `json:"input"`
	Output          string  `json:"output"`
	RejectLog       string  `json:"reject_log"`
	Threshold       float64 `json:"threshold"`
	TotalLines      int     `json:"total_lines"`
	Accepted        int     `json:"accepted"`
	Rejected        int     `json:"rejected"`
	SuccessRate     float64 `json:"success_rate"`
	Filtered        int     `json:"filtered"`
	Persisted       int     `json:"persisted"`
	PersistFailures int     `json:"persist_failures"`
	SinkFailures    int     `json:"sink_failures"`
	StartedAt       string  `json:"started_at"`
	DurationMs      int64   `json:"duration_ms"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func toProductResponse(p core.StoredProduct) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		CreatedAt: p.CreatedAt.Format(timeLayout),
		UpdatedAt: p.UpdatedAt.Format(timeLayout),
	}
}

func toRunResponse(r core.RunSummary) runResponse {
	return runResponse{
		ID:              r.ID,
		Input:           r.Input,
		Output:          r.Output,
		RejectLog:       r.RejectLog,
		Threshold:       r.Threshold,
		TotalLines:      r.Summary.TotalLines,
		Accepted:        r.Summary.Accepted,
		Rejected:        r.Summary.Rejected,
		SuccessRate:     r.Summary.SuccessRate(),
		Filtered:        r.Filtered,
		Persisted:       r.Persisted,
		PersistFailures: r.PersistFailures,
		SinkFailures:    r.SinkFailures,
		StartedAt:       r.StartedAt.Format(timeLayout),
		DurationMs:      r.Duration.Milliseconds(),
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.ListProducts(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	p, err := s.service.CreateProduct(r.Context(), []string{req.Name, req.Price.String()})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("product created via api", "id", p.ID)
	w.Header().Set("Location", "/api/products/"+p.ID)
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	p, err := s.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), []string{req.Name, req.Price.String()})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCheck validates one raw CSV line without storing anything.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.service.CheckLine(req.Line))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context(), parseIntParam(r, "limit", defaultRunLimit))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunsPage(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context(), parseIntParam(r, "limit", defaultRunLimit))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.RunHistory(runs).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("render run history", "error", err)
	}
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

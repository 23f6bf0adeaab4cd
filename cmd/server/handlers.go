package main

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/labelquote/internal/press"
	"github.com/Simplici0/labelquote/internal/quote"
	"github.com/Simplici0/labelquote/internal/settings"
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type solveResponse struct {
	Width      float64                  `json:"width"`
	Solution   *press.CylinderSolution  `json:"solution"`
	Candidates []press.CylinderSolution `json:"candidates"`
	Diagnostic string                   `json:"diagnostic"`
	Layout     *press.LayoutResult      `json:"layout,omitempty"`
	Exceeds    bool                     `json:"exceeds_max_material_width"`
}

// handleSolve lists the cylinders that fit a template width. An optional
// height also reports the lane layout.
func (s *server) handleSolve(w http.ResponseWriter, r *http.Request) {
	width, err := strconv.ParseFloat(r.URL.Query().Get("width"), 64)
	if err != nil || !isPositiveFinite(width) {
		writeError(w, http.StatusBadRequest, "width must be a positive number")
		return
	}

	c := s.quotes.Constraints()
	best, all, diagnostic := press.Solve(width, c)
	if all == nil {
		all = []press.CylinderSolution{}
	}
	resp := solveResponse{Width: width, Solution: best, Candidates: all, Diagnostic: diagnostic}

	if raw := r.URL.Query().Get("height"); raw != "" {
		height, err := strconv.ParseFloat(raw, 64)
		if err != nil || !isPositiveFinite(height) {
			writeError(w, http.StatusBadRequest, "height must be a positive number")
			return
		}
		layout := press.Layout(height, c)
		resp.Layout = &layout
		resp.Exceeds = layout.Exceeds(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

type calculateRequest struct {
	quote.Request
	Save bool `json:"save"`
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	q, err := s.quotes.Calculate(r.Context(), req.Request, req.Save)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if !q.Outcome.OK() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, q)
}

// offerRequest prices every tier; the request quantity is ignored and may
// be omitted.
type offerRequest struct {
	quote.Request
	Tiers []int `json:"tiers" validate:"max=20"`
}

func (o *offerRequest) applyDefaults() {
	if o.Quantity == 0 {
		o.Quantity = 1
	}
}

func (s *server) handleOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	o, err := s.quotes.Offer(r.Context(), req.Request, req.Tiers)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *server) handleSettings(w http.ResponseWriter, r *http.Request) {
	values, err := s.store.Settings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, values.Merge())
}

func (s *server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values settings.Values
	if !s.decodeJSON(w, r, &values) {
		return
	}
	if len(values) == 0 {
		writeError(w, http.StatusBadRequest, "no settings given")
		return
	}
	if err := values.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateSettings(r.Context(), values); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.handleSettings(w, r)
}

func (s *server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.store.Materials(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

type materialRequest struct {
	Name  string   `json:"name" validate:"required,max=100"`
	Price *float64 `json:"price_per_m2" validate:"required,gte=0"`
}

func (s *server) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.store.AddMaterial(r.Context(), req.Name, *req.Price); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": req.Name, "price_per_m2": *req.Price})
}

type materialPriceRequest struct {
	Price *float64 `json:"price_per_m2" validate:"required,gte=0"`
}

func (s *server) handleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, "invalid material name")
		return
	}
	var req materialPriceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.store.UpdateMaterialPrice(r.Context(), name, *req.Price); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "price_per_m2": *req.Price})
}

func (s *server) handleCalculations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	calculations, err := s.store.ListCalculations(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calculations)
}

func (s *server) handleCalculation(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCalculation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

package api

import (
	"net/http"

	"github.com/erazemk/superge/internal/model"
	"github.com/erazemk/superge/internal/stats"
	"github.com/erazemk/superge/internal/store"
)

// StatsHandler serves aggregates over the caller's collection. Every
// endpoint reads the owned records unless wishlist is set.
type StatsHandler struct {
	Store store.SneakerStore
}

type distributionResponse struct {
	Field  model.Field    `json:"field"`
	Counts map[string]int `json:"counts"`
}

type valueResponse struct {
	Field  model.Field        `json:"field"`
	Values map[string]float64 `json:"values"`
}

// records loads the caller's records of the kind chosen by wishlist.
func (h *StatsHandler) records(w http.ResponseWriter, r *http.Request) ([]model.Sneaker, bool) {
	wishlist, ok := wishlistParam(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid wishlist flag")
		return nil, false
	}
	recs, err := h.Store.ListByOwner(r.Context(), GetClaims(r.Context()).OwnerID(), wishlist)
	if err != nil {
		internalError(r.Context(), w, "list sneakers", err)
		return nil, false
	}
	return recs, true
}

// fieldParam reads a field name from the query, using def when absent.
func fieldParam(w http.ResponseWriter, r *http.Request, name string, def model.Field) (model.Field, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		if def == "" {
			jsonError(w, http.StatusBadRequest, name+" required")
			return "", false
		}
		return def, true
	}
	f, err := model.ParseField(v)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return f, true
}

// Dashboard handles GET /api/dashboard.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	wishlist, ok := wishlistParam(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid wishlist flag")
		return
	}

	owner := GetClaims(r.Context()).OwnerID()
	owned, err := h.Store.ListByOwner(r.Context(), owner, false)
	if err != nil {
		internalError(r.Context(), w, "list sneakers", err)
		return
	}
	wanted, err := h.Store.ListByOwner(r.Context(), owner, true)
	if err != nil {
		internalError(r.Context(), w, "list wishlist", err)
		return
	}

	primary := owned
	if wishlist {
		primary = wanted
	}
	jsonResponse(w, http.StatusOK, stats.BuildDashboard(primary, wanted))
}

// Distribution handles GET /api/stats/distribution?by=.
func (h *StatsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	field, ok := fieldParam(w, r, "by", "")
	if !ok {
		return
	}
	recs, ok := h.records(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, distributionResponse{Field: field, Counts: stats.DistributionBy(recs, field)})
}

// Value handles GET /api/stats/value?by=.
func (h *StatsHandler) Value(w http.ResponseWriter, r *http.Request) {
	field, ok := fieldParam(w, r, "by", "")
	if !ok {
		return
	}
	recs, ok := h.records(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, valueResponse{Field: field, Values: stats.ValueByGroup(recs, field)})
}

// History handles GET /api/stats/history.
func (h *StatsHandler) History(w http.ResponseWriter, r *http.Request) {
	recs, ok := h.records(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, stats.PurchaseHistoryByMonth(recs))
}

// Heatmap handles GET /api/stats/heatmap?x=&y=. The axes default to brand
// by size.
func (h *StatsHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	x, ok := fieldParam(w, r, "x", model.FieldBrand)
	if !ok {
		return
	}
	y, ok := fieldParam(w, r, "y", model.FieldSize)
	if !ok {
		return
	}
	recs, ok := h.records(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, stats.CrossTabulate(recs, x, y))
}

package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/superge/internal/market"
	"github.com/erazemk/superge/internal/model"
	"github.com/erazemk/superge/internal/store"
)

// MarketHandler serves product lookups and turns products into wishlist
// entries.
type MarketHandler struct {
	Catalog market.Catalog
	Store   store.SneakerStore
}

type wishlistDraftRequest struct {
	Size      float64         `json:"size"`
	Condition model.Condition `json:"condition"`
}

// Search handles GET /api/market/search?query=.
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		jsonError(w, http.StatusBadRequest, "query required")
		return
	}

	products, err := h.Catalog.Search(r.Context(), query)
	if err != nil {
		internalError(r.Context(), w, "search products", err)
		return
	}
	jsonResponse(w, http.StatusOK, products)
}

// product loads the product named by the id path value, answering 404
// when the catalog does not know it.
func (h *MarketHandler) product(w http.ResponseWriter, r *http.Request) (market.Product, bool) {
	p, ok, err := h.Catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		internalError(r.Context(), w, "get product", err)
		return market.Product{}, false
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "product not found")
		return market.Product{}, false
	}
	return p, true
}

// Product handles GET /api/market/products/{id}.
func (h *MarketHandler) Product(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Market handles GET /api/market/products/{id}/market.
func (h *MarketHandler) Market(w http.ResponseWriter, r *http.Request) {
	data, ok, err := h.Catalog.Market(r.Context(), r.PathValue("id"))
	if err != nil {
		internalError(r.Context(), w, "get market data", err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	jsonResponse(w, http.StatusOK, data)
}

// AddToWishlist handles POST /api/market/products/{id}/wishlist.
func (h *MarketHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}

	var req wishlistDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	draft := p.Draft(claims.OwnerID())
	draft.Size = req.Size
	if req.Condition != "" {
		draft.Condition = req.Condition
	}
	if err := draft.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Store.Create(r.Context(), draft)
	if err != nil {
		internalError(r.Context(), w, "create sneaker", err)
		return
	}

	LoggerFrom(r.Context()).Info("product added to wishlist", "product", p.ID, "sneaker", created.ID)
	jsonResponse(w, http.StatusCreated, created)
}

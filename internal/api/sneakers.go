package api

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/erazemk/superge/internal/collection"
	"github.com/erazemk/superge/internal/imaging"
	"github.com/erazemk/superge/internal/market"
	"github.com/erazemk/superge/internal/model"
	"github.com/erazemk/superge/internal/store"
)

// imageURLPrefix is the public path under which uploaded photos are served.
const imageURLPrefix = "/api/images/"

// exportFilename is the attachment name of CSV exports.
const exportFilename = "sneaker_collection_export.csv"

// SneakersHandler handles the collection and wishlist endpoints.
type SneakersHandler struct {
	Store          store.SneakerStore
	DB             *sql.DB
	Catalog        market.Catalog
	MaxUploadBytes int64
}

type listResponse struct {
	Total int             `json:"total"`
	Count int             `json:"count"`
	Items []model.Sneaker `json:"items"`
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

type bulkRequest struct {
	IDs   []string           `json:"ids"`
	Patch model.SneakerPatch `json:"patch"`
}

type bulkResponse struct {
	Updated []model.Sneaker `json:"updated"`
	Missing []string        `json:"missing"`
}

type promoteRequest struct {
	PurchasePrice    model.Optional[float64]    `json:"purchase_price"`
	PurchaseDate     model.Optional[model.Date] `json:"purchase_date"`
	PurchaseLocation model.Optional[string]     `json:"purchase_location"`
	Condition        model.Condition            `json:"condition"`
}

type refreshRequest struct {
	SKU string `json:"sku"`
}

// wishlistParam reads the wishlist flag; absent means the owned collection.
func wishlistParam(r *http.Request) (bool, bool) {
	v := r.URL.Query().Get("wishlist")
	if v == "" {
		return false, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// owned loads the sneaker named by the id path value and answers 404 if
// it does not exist or belongs to someone else.
func (h *SneakersHandler) owned(w http.ResponseWriter, r *http.Request) (model.Sneaker, bool) {
	rec, ok, err := h.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		internalError(r.Context(), w, "get sneaker", err)
		return model.Sneaker{}, false
	}
	if !ok || rec.OwnerID != GetClaims(r.Context()).OwnerID() {
		jsonError(w, http.StatusNotFound, "sneaker not found")
		return model.Sneaker{}, false
	}
	return rec, true
}

// browse lists the caller's records of one kind with the query's filters
// and sort applied. The total is the count before filtering.
func (h *SneakersHandler) browse(w http.ResponseWriter, r *http.Request) (listResponse, bool) {
	wishlist, ok := wishlistParam(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid wishlist flag")
		return listResponse{}, false
	}
	q, err := collection.ParseQuery(r.URL.Query())
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return listResponse{}, false
	}

	all, err := h.Store.ListByOwner(r.Context(), GetClaims(r.Context()).OwnerID(), wishlist)
	if err != nil {
		internalError(r.Context(), w, "list sneakers", err)
		return listResponse{}, false
	}
	items := q.Apply(all)
	return listResponse{Total: len(all), Count: len(items), Items: items}, true
}

// List handles GET /api/sneakers.
func (h *SneakersHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.browse(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Export handles GET /api/sneakers/export.csv. Repeated id parameters
// narrow the export to a selection.
func (h *SneakersHandler) Export(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.browse(w, r)
	if !ok {
		return
	}
	items := resp.Items
	if ids := r.URL.Query()["id"]; len(ids) > 0 {
		items = slices.DeleteFunc(items, func(s model.Sneaker) bool {
			return !slices.Contains(ids, s.ID)
		})
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	if err := collection.WriteCSV(w, items); err != nil {
		LoggerFrom(r.Context()).Error("failed to write export", "error", err)
	}
}

// Create handles POST /api/sneakers.
func (h *SneakersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rec model.Sneaker
	if err := decodeJSON(r, &rec); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rec.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	rec.OwnerID = claims.OwnerID()
	created, err := h.Store.Create(r.Context(), rec)
	if err != nil {
		internalError(r.Context(), w, "create sneaker", err)
		return
	}

	LoggerFrom(r.Context()).Info("sneaker created", "sneaker", created.ID, "wishlist", created.IsWishlist)
	jsonResponse(w, http.StatusCreated, created)
}

// Batch handles POST /api/sneakers/batch. Records that do not exist or
// belong to someone else are left out.
func (h *SneakersHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	found, err := h.Store.GetMany(r.Context(), req.IDs)
	if err != nil {
		internalError(r.Context(), w, "get sneakers", err)
		return
	}
	owner := GetClaims(r.Context()).OwnerID()
	found = slices.DeleteFunc(found, func(s model.Sneaker) bool { return s.OwnerID != owner })
	jsonResponse(w, http.StatusOK, found)
}

// BulkUpdate handles PATCH /api/sneakers/bulk.
func (h *SneakersHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Patch.Empty() {
		jsonError(w, http.StatusBadRequest, "patch must change at least one field")
		return
	}
	if err := req.Patch.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	found, err := h.Store.GetMany(r.Context(), req.IDs)
	if err != nil {
		internalError(r.Context(), w, "get sneakers", err)
		return
	}
	claims := GetClaims(r.Context())
	mine := make(map[string]model.Sneaker, len(found))
	for _, s := range found {
		if s.OwnerID == claims.OwnerID() {
			mine[s.ID] = s
		}
	}

	resp := bulkResponse{Updated: []model.Sneaker{}, Missing: []string{}}
	seen := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		before, ok := mine[id]
		if !ok {
			resp.Missing = append(resp.Missing, id)
			continue
		}
		updated, ok, err := h.Store.Update(r.Context(), id, req.Patch)
		if err != nil {
			internalError(r.Context(), w, "update sneaker", err)
			return
		}
		if !ok {
			resp.Missing = append(resp.Missing, id)
			continue
		}
		h.dropImages(r.Context(), before, updated)
		resp.Updated = append(resp.Updated, updated)
	}

	LoggerFrom(r.Context()).Info("sneakers bulk updated", "updated", len(resp.Updated), "missing", len(resp.Missing))
	jsonResponse(w, http.StatusOK, resp)
}

// Get handles GET /api/sneakers/{id}.
func (h *SneakersHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.owned(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

// Update handles PATCH /api/sneakers/{id}.
func (h *SneakersHandler) Update(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.owned(w, r)
	if !ok {
		return
	}

	var patch model.SneakerPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.apply(w, r, rec, patch, "sneaker updated")
}

// apply stores patch on rec and writes the result.
func (h *SneakersHandler) apply(w http.ResponseWriter, r *http.Request, rec model.Sneaker, patch model.SneakerPatch, event string) {
	updated, ok, err := h.Store.Update(r.Context(), rec.ID, patch)
	if err != nil {
		internalError(r.Context(), w, "update sneaker", err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "sneaker not found")
		return
	}
	h.dropImages(r.Context(), rec, updated)
	LoggerFrom(r.Context()).Info(event, "sneaker", updated.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// dropImages deletes the uploaded photos that before referenced and after
// no longer does. External URLs are left alone.
func (h *SneakersHandler) dropImages(ctx context.Context, before, after model.Sneaker) {
	for _, url := range before.Images {
		id, uploaded := strings.CutPrefix(url, imageURLPrefix)
		if !uploaded || slices.Contains(after.Images, url) {
			continue
		}
		if _, err := store.DeleteImage(ctx, h.DB, before.ID, id); err != nil {
			LoggerFrom(ctx).Error("failed to delete dropped image", "sneaker", before.ID, "image", id, "error", err)
		}
	}
}

// Delete handles DELETE /api/sneakers/{id}.
func (h *SneakersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.owned(w, r)
	if !ok {
		return
	}

	deleted, err := h.Store.Delete(r.Context(), rec.ID)
	if err != nil {
		internalError(r.Context(), w, "delete sneaker", err)
		return
	}
	if !deleted {
		jsonError(w, http.StatusNotFound, "sneaker not found")
		return
	}
	if err := store.DeleteImagesForSneaker(r.Context(), h.DB, rec.ID); err != nil {
		LoggerFrom(r.Context()).Error("failed to delete sneaker images", "sneaker", rec.ID, "error", err)
	}

	LoggerFrom(r.Context()).Info("sneaker deleted", "sneaker", rec.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "sneaker deleted"})
}

// Promote handles POST /api/sneakers/{id}/promote: a wishlist pair was
// bought and moves into the collection.
func (h *SneakersHandler) Promote(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.owned(w, r)
	if !ok {
		return
	}
	if !rec.IsWishlist {
		jsonError(w, http.StatusConflict, "sneaker is already in the collection")
		return
	}

	var req promoteRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owned := false
	patch := model.SneakerPatch{IsWishlist: &owned}
	if req.PurchasePrice.Valid {
		patch.PurchasePrice = model.Change(req.PurchasePrice)
	}
	if req.PurchaseDate.Valid {
		patch.PurchaseDate = model.Change(req.PurchaseDate)
	}
	if req.PurchaseLocation.Valid {
		patch.PurchaseLocation = model.Change(req.PurchaseLocation)
	}
	if req.Condition != "" {
		patch.Condition = &req.Condition
	}
	if err := patch.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.apply(w, r, rec, patch, "sneaker promoted")
}

// Refresh handles POST /api/sneakers/{id}/refresh. Product fields are
// replaced from the catalog entry of the given SKU, or of the record's
// own SKU when none is given.
func (h *SneakersHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req refreshRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sku := req.SKU
	if sku == "" {
		sku = rec.SKU.OrZero()
	}
	if sku == "" {
		jsonError(w, http.StatusBadRequest, "sku required")
		return
	}

	product, found, err := h.Catalog.ByStyle(r.Context(), sku)
	if err != nil {
		internalError(r.Context(), w, "look up product", err)
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	h.apply(w, r, rec, product.RefreshPatch(rec), "sneaker refreshed")
}

// UploadImage handles POST /api/sneakers/{id}/images. The photo is
// normalized, stored, and its URL appended to the record's images.
func (h *SneakersHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.owned(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file, imaging.MaxDimension)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	imageID, err := store.AddImage(r.Context(), h.DB, rec.ID, photo.Data, photo.MIME)
	if err != nil {
		internalError(r.Context(), w, "store image", err)
		return
	}

	updated, ok, err := h.Store.Update(r.Context(), rec.ID, model.SneakerPatch{AppendImage: imageURLPrefix + imageID})
	if err != nil || !ok {
		if _, derr := store.DeleteImage(r.Context(), h.DB, rec.ID, imageID); derr != nil {
			LoggerFrom(r.Context()).Error("failed to delete unattached image", "sneaker", rec.ID, "image", imageID, "error", derr)
		}
	}
	if err != nil {
		internalError(r.Context(), w, "update sneaker", err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "sneaker not found")
		return
	}

	LoggerFrom(r.Context()).Info("sneaker image uploaded", "sneaker", rec.ID, "image", imageID,
		"width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusCreated, updated)
}

// ImagesHandler serves stored photos.
type ImagesHandler struct {
	DB *sql.DB
}

// Get handles GET /api/images/{id}. With thumb set, a square thumbnail is
// rendered from the stored photo.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	data, mime, ok, err := store.GetImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		internalError(r.Context(), w, "get image", err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}

	if thumb, _ := strconv.ParseBool(r.URL.Query().Get("thumb")); thumb {
		photo, err := imaging.Thumbnail(bytes.NewReader(data), imaging.ThumbnailSize)
		if err != nil {
			internalError(r.Context(), w, "render thumbnail", err)
			return
		}
		data, mime = photo.Data, photo.MIME
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Write(data)
}

package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/superge/internal/auth"
	"github.com/erazemk/superge/internal/market"
	"github.com/erazemk/superge/internal/model"
	"github.com/erazemk/superge/internal/store"
)

// DefaultMaxUploadBytes limits photo uploads when Deps leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

// Deps are the collaborators the API is built from.
type Deps struct {
	DB             *sql.DB
	Store          store.SneakerStore
	Catalog        market.Catalog
	Issuer         *auth.Issuer
	MaxUploadBytes int64
	AllowedOrigins []string
}

// NewRouter creates the API handler with all endpoints registered and the
// request middleware applied.
func NewRouter(d Deps) http.Handler {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = DefaultMaxUploadBytes
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, Issuer: d.Issuer}
	usersHandler := &UsersHandler{DB: d.DB}
	sneakersHandler := &SneakersHandler{Store: d.Store, DB: d.DB, Catalog: d.Catalog, MaxUploadBytes: d.MaxUploadBytes}
	imagesHandler := &ImagesHandler{DB: d.DB}
	statsHandler := &StatsHandler{Store: d.Store}
	marketHandler := &MarketHandler{Catalog: d.Catalog, Store: d.Store}

	authMW := AuthMiddleware(d.Issuer, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/images/{id}", imagesHandler.Get)

	// Session.
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Collection and wishlist, scoped to the caller.
	mux.Handle("GET /api/sneakers", authed(sneakersHandler.List))
	mux.Handle("POST /api/sneakers", authed(sneakersHandler.Create))
	mux.Handle("POST /api/sneakers/batch", authed(sneakersHandler.Batch))
	mux.Handle("PATCH /api/sneakers/bulk", authed(sneakersHandler.BulkUpdate))
	mux.Handle("GET /api/sneakers/export.csv", authed(sneakersHandler.Export))
	mux.Handle("GET /api/sneakers/{id}", authed(sneakersHandler.Get))
	mux.Handle("PATCH /api/sneakers/{id}", authed(sneakersHandler.Update))
	mux.Handle("DELETE /api/sneakers/{id}", authed(sneakersHandler.Delete))
	mux.Handle("POST /api/sneakers/{id}/promote", authed(sneakersHandler.Promote))
	mux.Handle("POST /api/sneakers/{id}/refresh", authed(sneakersHandler.Refresh))
	mux.Handle("POST /api/sneakers/{id}/images", authed(sneakersHandler.UploadImage))

	// Aggregates.
	mux.Handle("GET /api/dashboard", authed(statsHandler.Dashboard))
	mux.Handle("GET /api/stats/distribution", authed(statsHandler.Distribution))
	mux.Handle("GET /api/stats/value", authed(statsHandler.Value))
	mux.Handle("GET /api/stats/history", authed(statsHandler.History))
	mux.Handle("GET /api/stats/heatmap", authed(statsHandler.Heatmap))

	// Product catalog.
	mux.Handle("GET /api/market/search", authed(marketHandler.Search))
	mux.Handle("GET /api/market/products/{id}", authed(marketHandler.Product))
	mux.Handle("GET /api/market/products/{id}/market", authed(marketHandler.Market))
	mux.Handle("POST /api/market/products/{id}/wishlist", authed(marketHandler.AddToWishlist))

	var h http.Handler = mux
	h = SecurityHeaders(h)
	h = CORSMiddleware(d.AllowedOrigins)(h)
	h = LoggingMiddleware(h)
	h = RequestIDMiddleware(h)
	return h
}

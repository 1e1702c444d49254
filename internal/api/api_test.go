package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/superge/internal/auth"
	"github.com/erazemk/superge/internal/db"
	"github.com/erazemk/superge/internal/market"
	"github.com/erazemk/superge/internal/model"
	"github.com/erazemk/superge/internal/stats"
	"github.com/erazemk/superge/internal/store"
)

const testPassword = "password123"

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
	admin  string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(Deps{
		DB:      database,
		Store:   store.NewSQLStore(database),
		Catalog: market.DefaultCatalog(),
		Issuer:  auth.NewIssuer("test-secret", 0),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	env := &testEnv{server: server, db: database}
	createUser(t, env, "admin", model.RoleAdmin)
	env.admin = env.login(t, "admin", testPassword)
	return env
}

func createUser(t *testing.T, env *testEnv, username, role string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := store.CreateUser(context.Background(), env.db, username, string(hash), role)
	require.NoError(t, err)
	return u
}

func (env *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out loginResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, env.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func (env *testEnv) create(t *testing.T, token string, rec map[string]any) model.Sneaker {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/sneakers", token, rec)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out model.Sneaker
	decode(t, resp, &out)
	return out
}

func sneakerBody(brand, name string, size, value float64) map[string]any {
	return map[string]any{
		"brand":        brand,
		"model":        "Model",
		"name":         name,
		"colorway":     "White",
		"size":         size,
		"condition":    "new",
		"market_value": value,
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/sneakers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/auth/logout", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/sneakers", env.admin, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	fresh := env.login(t, "admin", testPassword)
	resp = env.do(t, http.MethodGet, "/api/sneakers", fresh, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodPut, "/api/auth/password", env.admin, changePasswordRequest{
		CurrentPassword: "nope-nope", NewPassword: "newpassword1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/auth/password", env.admin, changePasswordRequest{
		CurrentPassword: testPassword, NewPassword: "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/auth/password", env.admin, changePasswordRequest{
		CurrentPassword: testPassword, NewPassword: "newpassword1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out changePasswordResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)

	resp = env.do(t, http.MethodGet, "/api/sneakers", env.admin, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "token from before the change")
	resp = env.do(t, http.MethodGet, "/api/sneakers", out.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env.login(t, "admin", "newpassword1")
}

func TestDeletedUserTokenRejected(t *testing.T) {
	env := setupTestServer(t)
	bob := createUser(t, env, "bob", model.RoleUser)
	bobToken := env.login(t, "bob", testPassword)
	env.create(t, bobToken, sneakerBody("Nike", "Chicago", 10, 100))

	resp := env.do(t, http.MethodDelete, "/api/users/"+strconv.FormatInt(bob.ID, 10), env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/sneakers", bobToken, sneakerBody("Nike", "Bred", 10, 100))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/sneakers", bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResetPasswordRejectsOldToken(t *testing.T) {
	env := setupTestServer(t)
	carol := createUser(t, env, "carol", model.RoleUser)
	carolToken := env.login(t, "carol", testPassword)

	resp := env.do(t, http.MethodPut, "/api/users/"+strconv.FormatInt(carol.ID, 10)+"/password", env.admin,
		resetPasswordRequest{Password: "freshpassword1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/sneakers", carolToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	fresh := env.login(t, "carol", "freshpassword1")
	resp = env.do(t, http.MethodGet, "/api/sneakers", fresh, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestHeaders(t *testing.T) {
	env := setupTestServer(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/sneakers", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.admin)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp = env.do(t, http.MethodGet, "/api/sneakers", env.admin, nil)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestSneakerCRUDFlow(t *testing.T) {
	env := setupTestServer(t)

	created := env.create(t, env.admin, sneakerBody("Nike", "Chicago", 10, 300))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "1", created.OwnerID)
	assert.Equal(t, []string{}, created.Images)

	resp := env.do(t, http.MethodGet, "/api/sneakers/"+created.ID, env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Sneaker
	decode(t, resp, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, model.Some(300.0), got.MarketValue)

	resp = env.do(t, http.MethodPatch, "/api/sneakers/"+created.ID, env.admin, map[string]any{
		"notes":        "worn once",
		"market_value": nil,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Sneaker
	decode(t, resp, &updated)
	assert.Equal(t, model.Some("worn once"), updated.Notes)
	assert.False(t, updated.MarketValue.Valid)
	assert.Equal(t, "Chicago", updated.Name)

	resp = env.do(t, http.MethodPatch, "/api/sneakers/"+created.ID, env.admin, map[string]any{"size": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/sneakers/"+created.ID, env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/sneakers/"+created.ID, env.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, "/api/sneakers/"+created.ID, env.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSneakerValidation(t *testing.T) {
	env := setupTestServer(t)

	body := sneakerBody("", "Chicago", 0, 100)
	body["condition"] = "mint"
	resp := env.do(t, http.MethodPost, "/api/sneakers", env.admin, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out map[string]string
	decode(t, resp, &out)
	assert.Contains(t, out["error"], "brand required")
	assert.Contains(t, out["error"], "size must be positive")
	assert.Contains(t, out["error"], "invalid condition")
}

func TestOwnerIsolation(t *testing.T) {
	env := setupTestServer(t)
	createUser(t, env, "other", model.RoleUser)
	other := env.login(t, "other", testPassword)

	mine := env.create(t, env.admin, sneakerBody("Nike", "Chicago", 10, 300))

	resp := env.do(t, http.MethodGet, "/api/sneakers/"+mine.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodPatch, "/api/sneakers/"+mine.ID, other, map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, "/api/sneakers/"+mine.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/sneakers", other, nil)
	var list listResponse
	decode(t, resp, &list)
	assert.Equal(t, 0, list.Total)
	assert.Empty(t, list.Items)

	resp = env.do(t, http.MethodPost, "/api/sneakers/batch", other, batchRequest{IDs: []string{mine.ID}})
	var batch []model.Sneaker
	decode(t, resp, &batch)
	assert.Empty(t, batch)
}

func TestListFiltersAndSort(t *testing.T) {
	env := setupTestServer(t)

	env.create(t, env.admin, sneakerBody("Nike", "Chicago", 10, 100))
	env.create(t, env.admin, sneakerBody("Nike", "Bred", 10.5, 200))
	env.create(t, env.admin, sneakerBody("Adidas", "Zebra", 9, 50))
	wish := sneakerBody("Nike", "Chicago Low", 10, 400)
	wish["is_wishlist"] = true
	env.create(t, env.admin, wish)

	var list listResponse
	decode(t, env.do(t, http.MethodGet, "/api/sneakers?q=chicago", env.admin, nil), &list)
	assert.Equal(t, 3, list.Total)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Chicago", list.Items[0].Name)

	decode(t, env.do(t, http.MethodGet, "/api/sneakers?brand=Nike&sort=market_value&dir=desc", env.admin, nil), &list)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "Bred", list.Items[0].Name)
	assert.Equal(t, "Chicago", list.Items[1].Name)

	decode(t, env.do(t, http.MethodGet, "/api/sneakers?size=abc", env.admin, nil), &list)
	assert.Equal(t, 3, list.Count)

	decode(t, env.do(t, http.MethodGet, "/api/sneakers?wishlist=true", env.admin, nil), &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Chicago Low", list.Items[0].Name)

	resp := env.do(t, http.MethodGet, "/api/sneakers?sort=color", env.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/sneakers?wishlist=maybe", env.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBatchAndBulkUpdate(t *testing.T) {
	env := setupTestServer(t)

	a := env.create(t, env.admin, sneakerBody("Nike", "A", 10, 100))
	b := env.create(t, env.admin, sneakerBody("Nike", "B", 10, 100))

	var batch []model.Sneaker
	decode(t, env.do(t, http.MethodPost, "/api/sneakers/batch", env.admin,
		batchRequest{IDs: []string{b.ID, "nope", a.ID, b.ID}}), &batch)
	require.Len(t, batch, 2)
	assert.Equal(t, b.ID, batch[0].ID)
	assert.Equal(t, a.ID, batch[1].ID)

	resp := env.do(t, http.MethodPatch, "/api/sneakers/bulk", env.admin, map[string]any{
		"ids":   []string{a.ID, "nope", b.ID},
		"patch": map[string]any{"condition": "worn", "purchase_location": "Flight Club"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out bulkResponse
	decode(t, resp, &out)
	assert.Equal(t, []string{"nope"}, out.Missing)
	require.Len(t, out.Updated, 2)
	for _, s := range out.Updated {
		assert.Equal(t, model.ConditionWorn, s.Condition)
		assert.Equal(t, model.Some("Flight Club"), s.PurchaseLocation)
	}

	resp = env.do(t, http.MethodPatch, "/api/sneakers/bulk", env.admin, map[string]any{
		"ids": []string{a.ID}, "patch": map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPromoteWishlistEntry(t *testing.T) {
	env := setupTestServer(t)

	body := sneakerBody("Nike", "Bred", 10, 380)
	body["is_wishlist"] = true
	wish := env.create(t, env.admin, body)

	resp := env.do(t, http.MethodPost, "/api/sneakers/"+wish.ID+"/promote", env.admin, map[string]any{
		"purchase_price": 210,
		"purchase_date":  "2024-03-15",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var promoted model.Sneaker
	decode(t, resp, &promoted)
	assert.False(t, promoted.IsWishlist)
	assert.Equal(t, model.Some(210.0), promoted.PurchasePrice)
	assert.Equal(t, model.Some(model.NewDate(2024, 3, 15)), promoted.PurchaseDate)

	resp = env.do(t, http.MethodPost, "/api/sneakers/"+wish.ID+"/promote", env.admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRefreshFromCatalog(t *testing.T) {
	env := setupTestServer(t)

	body := sneakerBody("Nike", "old name", 9.5, 0)
	body["notes"] = "gift"
	rec := env.create(t, env.admin, body)

	resp := env.do(t, http.MethodPost, "/api/sneakers/"+rec.ID+"/refresh", env.admin, refreshRequest{SKU: "555088-101"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refreshed model.Sneaker
	decode(t, resp, &refreshed)
	assert.Equal(t, "Jordan", refreshed.Brand)
	assert.Equal(t, model.Some("555088-101"), refreshed.SKU)
	assert.Equal(t, 9.5, refreshed.Size)
	assert.Equal(t, model.Some("gift"), refreshed.Notes)

	resp = env.do(t, http.MethodPost, "/api/sneakers/"+rec.ID+"/refresh", env.admin, refreshRequest{SKU: "000000-000"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardAndStats(t *testing.T) {
	env := setupTestServer(t)

	env.create(t, env.admin, sneakerBody("Nike", "One", 10, 100))
	env.create(t, env.admin, sneakerBody("Nike", "Two", 10, 200))
	env.create(t, env.admin, sneakerBody("Adidas", "Three", 9.5, 50))
	wish := sneakerBody("Puma", "Four", 11, 80)
	wish["is_wishlist"] = true
	env.create(t, env.admin, wish)

	var dash stats.Dashboard
	decode(t, env.do(t, http.MethodGet, "/api/dashboard", env.admin, nil), &dash)
	assert.Equal(t, 3, dash.Summary.Count)
	assert.Equal(t, 350.0, dash.Summary.TotalValue)
	assert.InDelta(t, 116.67, dash.Summary.AverageValue, 0.01)
	require.NotNil(t, dash.Summary.MostValuable)
	assert.Equal(t, "Two", dash.Summary.MostValuable.Name)
	assert.Equal(t, 1, dash.WishlistCount)
	assert.Equal(t, map[string]int{"Nike": 2, "Adidas": 1}, dash.BrandDistribution)

	var dist distributionResponse
	decode(t, env.do(t, http.MethodGet, "/api/stats/distribution?by=brand&wishlist=true", env.admin, nil), &dist)
	assert.Equal(t, map[string]int{"Puma": 1}, dist.Counts)

	var value valueResponse
	decode(t, env.do(t, http.MethodGet, "/api/stats/value?by=brand", env.admin, nil), &value)
	assert.Equal(t, map[string]float64{"Nike": 300, "Adidas": 50}, value.Values)

	var heat stats.Heatmap
	decode(t, env.do(t, http.MethodGet, "/api/stats/heatmap", env.admin, nil), &heat)
	assert.Equal(t, []string{"Adidas", "Nike"}, heat.XValues)
	assert.Equal(t, []string{"9.5", "10"}, heat.YValues)
	assert.Equal(t, 2, heat.Count("Nike", "10"))
	assert.Equal(t, 1, heat.Count("Adidas", "9.5"))

	resp := env.do(t, http.MethodGet, "/api/stats/heatmap?x=shoelace", env.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/stats/distribution", env.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportCSV(t *testing.T) {
	env := setupTestServer(t)

	a := env.create(t, env.admin, sneakerBody("Nike", "Chicago", 10, 100))
	env.create(t, env.admin, sneakerBody("Adidas", "Zebra", 9, 50))

	resp := env.do(t, http.MethodGet, "/api/sneakers/export.csv?sort=brand", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), exportFilename)

	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Brand", rows[0][0])
	assert.Equal(t, "Adidas", rows[1][0])
	assert.Equal(t, "Nike", rows[2][0])

	resp = env.do(t, http.MethodGet, "/api/sneakers/export.csv?id="+a.ID, env.admin, nil)
	rows, err = csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Chicago", rows[1][2])
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (env *testEnv) imageRequest(t *testing.T, token, id string, w, h int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "shoe.png")
	require.NoError(t, err)
	_, err = part.Write(testPNG(t, w, h))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/sneakers/"+id+"/images", &body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (env *testEnv) upload(t *testing.T, token, id string, w, h int) model.Sneaker {
	t.Helper()
	resp, err := http.DefaultClient.Do(env.imageRequest(t, token, id, w, h))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var updated model.Sneaker
	decode(t, resp, &updated)
	return updated
}

func TestImageUploadAndServe(t *testing.T) {
	env := setupTestServer(t)
	rec := env.create(t, env.admin, sneakerBody("Nike", "Chicago", 10, 100))

	updated := env.upload(t, env.admin, rec.ID, 400, 200)
	require.Len(t, updated.Images, 1)

	img := env.do(t, http.MethodGet, updated.Images[0], "", nil)
	require.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/jpeg", img.Header.Get("Content-Type"))

	thumb := env.do(t, http.MethodGet, updated.Images[0]+"?thumb=1", "", nil)
	require.Equal(t, http.StatusOK, thumb.StatusCode)
	cfg, _, err := image.DecodeConfig(thumb.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	resp2 := env.do(t, http.MethodGet, "/api/images/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestConcurrentImageUploads(t *testing.T) {
	env := setupTestServer(t)
	rec := env.create(t, env.admin, sneakerBody("Nike", "Chicago", 10, 100))

	var wg sync.WaitGroup
	for range 5 {
		req := env.imageRequest(t, env.admin, rec.ID, 32, 32)
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.DefaultClient.Do(req)
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			assert.Equal(t, http.StatusCreated, resp.StatusCode)
		}()
	}
	wg.Wait()

	var got model.Sneaker
	decode(t, env.do(t, http.MethodGet, "/api/sneakers/"+rec.ID, env.admin, nil), &got)
	assert.Len(t, got.Images, 5)
	for _, url := range got.Images {
		resp := env.do(t, http.MethodGet, url, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, url)
	}
}

func TestPatchDroppingImageDeletesIt(t *testing.T) {
	env := setupTestServer(t)
	rec := env.create(t, env.admin, sneakerBody("Nike", "Chicago", 10, 100))
	env.upload(t, env.admin, rec.ID, 32, 32)
	updated := env.upload(t, env.admin, rec.ID, 32, 32)
	require.Len(t, updated.Images, 2)
	kept, dropped := updated.Images[0], updated.Images[1]

	resp := env.do(t, http.MethodPatch, "/api/sneakers/"+rec.ID, env.admin, map[string]any{
		"images": []string{kept, "https://example.com/catalog.jpg"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, dropped, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodGet, kept, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Another user's record cannot be used to delete this record's photos.
	createUser(t, env, "bob", model.RoleUser)
	bobToken := env.login(t, "bob", testPassword)
	theirs := env.create(t, bobToken, sneakerBody("Nike", "Bred", 10, 100))
	resp = env.do(t, http.MethodPatch, "/api/sneakers/"+theirs.ID, bobToken, map[string]any{"images": []string{kept}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPatch, "/api/sneakers/"+theirs.ID, bobToken, map[string]any{"images": []string{}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodGet, kept, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// lockedBuffer is a bytes.Buffer safe for the server and test goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAuditLogsCarryRequestID(t *testing.T) {
	var logs lockedBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	env := setupTestServer(t)
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/sneakers",
		strings.NewReader(`{"brand":"Nike","model":"Dunk","size":10,"condition":"new"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.admin)
	req.Header.Set(requestIDHeader, "audit-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "sneaker created" {
			found = true
			assert.Equal(t, "audit-42", entry["request_id"])
			assert.Equal(t, "admin", entry["user"])
		}
	}
	assert.True(t, found, "sneaker created entry logged")
}

func TestMarketEndpoints(t *testing.T) {
	env := setupTestServer(t)

	var products []market.Product
	decode(t, env.do(t, http.MethodGet, "/api/market/search?query=jordan", env.admin, nil), &products)
	assert.Len(t, products, 2)

	resp := env.do(t, http.MethodGet, "/api/market/search", env.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var data market.MarketData
	decode(t, env.do(t, http.MethodGet, "/api/market/products/jordan-4-bred/market", env.admin, nil), &data)
	assert.Equal(t, 380.0, data.LowestAsk)

	resp = env.do(t, http.MethodGet, "/api/market/products/unknown", env.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/market/products/yeezy-350-zebra/wishlist", env.admin, map[string]any{"size": 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var draft model.Sneaker
	decode(t, resp, &draft)
	assert.True(t, draft.IsWishlist)
	assert.Equal(t, model.Some("CP9654"), draft.SKU)

	resp = env.do(t, http.MethodPost, "/api/market/products/yeezy-350-zebra/wishlist", env.admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserManagement(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/users", env.admin, createUserRequest{Username: "bob", Password: testPassword})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var bob model.User
	decode(t, resp, &bob)
	assert.Equal(t, model.RoleUser, bob.Role)

	resp = env.do(t, http.MethodPost, "/api/users", env.admin, createUserRequest{Username: "bob", Password: testPassword})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	bobToken := env.login(t, "bob", testPassword)
	resp = env.do(t, http.MethodGet, "/api/users", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var users []model.User
	decode(t, env.do(t, http.MethodGet, "/api/users", env.admin, nil), &users)
	assert.Len(t, users, 2)

	resp = env.do(t, http.MethodDelete, "/api/users/1", env.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/users/"+strconv.FormatInt(bob.ID, 10), env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, "/api/users/"+strconv.FormatInt(bob.ID, 10), env.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "bob", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

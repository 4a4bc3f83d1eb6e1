package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-reservation-api/internal/config"
	"github.com/iliyamo/cinema-reservation-api/internal/handler"
	"github.com/iliyamo/cinema-reservation-api/internal/middleware"
	"github.com/iliyamo/cinema-reservation-api/internal/mocks"
	"github.com/iliyamo/cinema-reservation-api/internal/router"
	"github.com/iliyamo/cinema-reservation-api/internal/service"
	"github.com/iliyamo/cinema-reservation-api/internal/utils"
)

const jwtSecret = "handler-test-secret"

// testAPI is the full router wired to in-memory stores.
type testAPI struct {
	t   *testing.T
	e   *echo.Echo
	mem *mocks.Memory
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := mocks.NewMemory()
	timeout := 2 * time.Second

	auth := service.NewAuthService(mem.Users(), mem.Tokens(), service.AuthConfig{
		JWTSecret:      jwtSecret,
		AccessTTLMin:   5,
		RefreshTTLDays: 1,
		BcryptCost:     bcrypt.MinCost,
	}, logger)
	catalog := service.NewCatalogService(service.CatalogStores{
		Cinemas:   mem.Cinemas(),
		Halls:     mem.Halls(),
		Genres:    mem.Genres(),
		Movies:    mem.Movies(),
		Showtimes: mem.Showtimes(),
		Holds:     mem.Reservations(),
	}, false)
	reservations := service.NewReservationService(mem.Showtimes(), mem.Halls(), mem.Reservations(), logger)
	reports := service.NewReportService(mem.Users(), mem.Reservations(), mem.Cinemas(), mem.Showtimes())

	e := router.New(logger)
	router.RegisterRoutes(e, nil, nil)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, logger, timeout), jwtSecret)
	// Redis disabled: cache and limiter pass requests through.
	noCache := middleware.NewResponseCache(config.CacheConfig{}, nil, logger)
	router.RegisterPublic(e, handler.NewPublicHandler(catalog, logger, timeout), noCache)
	resHandler := handler.NewReservationHandler(reservations, logger, timeout)
	router.RegisterReservation(e, resHandler, jwtSecret, middleware.NewTokenBucket(config.RateLimitConfig{}, nil, logger))
	router.RegisterAdmin(e, handler.NewAdminHandler(catalog, reports, auth, logger, timeout), resHandler, jwtSecret, noCache)

	return &testAPI{t: t, e: e, mem: mem}
}

func (a *testAPI) token(id uint64, role string) string {
	a.t.Helper()
	tok, err := utils.NewAccessToken(jwtSecret, id, role, 5)
	require.NoError(a.t, err)
	return tok.Token
}

// do sends a request; body may be a string (sent verbatim) or any value
// encoded as JSON.
func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		bs, err := json.Marshal(b)
		require.NoError(a.t, err)
		r = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// expect asserts the status and decodes the body into out when given.
func (a *testAPI) expect(rec *httptest.ResponseRecorder, status int, out any) {
	a.t.Helper()
	require.Equal(a.t, status, rec.Code, rec.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
}

func (a *testAPI) errorOf(rec *httptest.ResponseRecorder) string {
	a.t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

// catalog holds the IDs created by seedCatalog.
type catalog struct {
	cinemaID   uint64
	hallID     uint64
	genreID    uint64
	movieID    uint64
	showtimeID uint64
	start      time.Time
}

// seedCatalog creates a cinema with a rows x cols hall and one
// showtime through the admin API.
func (a *testAPI) seedCatalog(adminToken string, rows, cols int) catalog {
	a.t.Helper()
	var out catalog
	var id struct {
		ID uint64 `json:"id"`
	}

	a.expect(a.do(http.MethodPost, "/admin/cinema", adminToken, map[string]any{"name": "Grand", "address": "1 Main St"}), http.StatusCreated, &id)
	out.cinemaID = id.ID

	a.expect(a.do(http.MethodPost, "/admin/hall", adminToken, map[string]any{
		"cinema_id": out.cinemaID, "name": "Hall 1", "rows": rows, "columns": cols,
	}), http.StatusCreated, &id)
	out.hallID = id.ID

	a.expect(a.do(http.MethodPost, "/admin/genre", adminToken, map[string]any{"name": "Drama"}), http.StatusCreated, &id)
	out.genreID = id.ID

	a.expect(a.do(http.MethodPost, "/admin/movie", adminToken, map[string]any{
		"title": "Heat", "genre_id": out.genreID, "duration": 120, "release_date": "1995-12-15",
	}), http.StatusCreated, &id)
	out.movieID = id.ID

	out.start = time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute)
	a.expect(a.do(http.MethodPost, "/admin/showtime", adminToken, map[string]any{
		"movie_id":   out.movieID,
		"hall_id":    out.hallID,
		"start_time": out.start.Format(time.RFC3339),
		"end_time":   out.start.Add(2 * time.Hour).Format(time.RFC3339),
		"price":      "12.50",
	}), http.StatusCreated, &id)
	out.showtimeID = id.ID
	return out
}

// Principals used across the handler tests.
var (
	adminID uint64 = 1
	aliceID uint64 = 1001
	bobID   uint64 = 1002
)

package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/moviedex/internal/catalog"
	"github.com/mesh-intelligence/moviedex/internal/metrics"
	"github.com/mesh-intelligence/moviedex/internal/sqlite"
	"github.com/mesh-intelligence/moviedex/pkg/types"
)

const heatJSON = `{"title":"Heat","director":"Michael Mann","genres":["Crime","Drama"],"releaseYear":1995,"duration":170,"ageRating":16}`

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

type testServer struct {
	backend *sqlite.Backend
	metrics *metrics.Metrics
	handler http.Handler
}

func newTestServer(t *testing.T, mutate ...func(*Config)) *testServer {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	cfg := DefaultConfig()
	cfg.RateLimitRequests = 0
	for _, m := range mutate {
		m(&cfg)
	}
	m := metrics.New()
	svc := catalog.New(b, catalog.WithMetrics(m))
	return &testServer{
		backend: b,
		metrics: m,
		handler: NewServer(svc, cfg, WithMetrics(m)).Handler(),
	}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) add(t *testing.T, target, body string) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, target, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[messageBody](t, rec)
	assert.Equal(t, "Movie added", got.Message)
	require.NotZero(t, got.ID)
	return got.ID
}

func TestAddAndGet(t *testing.T) {
	ts := newTestServer(t)

	id := ts.add(t, "/api/v1/movies", `{"kind":"documentary","title":"Cosmos","director":"Adrian Malone","genres":["Science"],"releaseYear":1980,"duration":780,"ageRating":0,"topic":"Space","documentarian":"Carl Sagan"}`)

	rec := ts.do(t, http.MethodGet, "/api/v1/movies/"+itoa(id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "documentary", got["kind"])
	assert.Equal(t, "Space", got["topic"])
	assert.Equal(t, "Carl Sagan", got["documentarian"])
	assert.NotContains(t, got, "moralLesson")
	assert.Equal(t, false, got["favourite"])
}

func TestAddKindFromQuery(t *testing.T) {
	ts := newTestServer(t)

	id := ts.add(t, "/add_movies?kind=kidMovie", `{"kind":"movie","title":"Paddington","director":"Paul King","genres":["Family"],"releaseYear":2014,"duration":95,"ageRating":0,"moralLesson":"Be polite","parentalAppeal":4}`)

	got := decode[types.Wire](t, ts.do(t, http.MethodGet, "/api/v1/movies/"+itoa(id), ""))
	assert.Equal(t, types.KindKidMovie, got.Kind)
	require.NotNil(t, got.ParentalAppeal)
	assert.Equal(t, 4, *got.ParentalAppeal)
}

func TestAddRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		wantFields []string
		wantMsg    string
	}{
		{
			name:       "missing title",
			target:     "/api/v1/movies",
			body:       `{"director":"D","genres":["Drama"],"releaseYear":2000,"duration":90,"ageRating":12}`,
			wantFields: []string{"title"},
		},
		{
			name:       "documentary without topic",
			target:     "/api/v1/movies?kind=documentary",
			body:       `{"title":"T","director":"D","genres":["Nature"],"releaseYear":2000,"duration":90,"ageRating":0,"documentarian":"X"}`,
			wantFields: []string{"topic"},
		},
		{
			name:       "non-string genre",
			target:     "/api/v1/movies",
			body:       `{"title":"T","director":"D","genres":["Drama",3],"releaseYear":2000,"duration":90,"ageRating":12}`,
			wantFields: []string{"genres"},
		},
		{name: "unknown kind", target: "/api/v1/movies?kind=series", body: heatJSON},
		{name: "malformed json", target: "/api/v1/movies", body: `{"title":`, wantMsg: "malformed JSON body"},
		{name: "wrong field type", target: "/api/v1/movies", body: `{"title":"T","releaseYear":"soon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, tt.target, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			got := decode[errorBody](t, rec)
			assert.NotEmpty(t, got.Message)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, got.Fields)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, got.Message, tt.wantMsg)
			}
			assert.Empty(t, decode[searchResponse](t, ts.do(t, http.MethodGet, "/api/v1/movies", "")).Movies)
		})
	}
}

func TestAddEmptyBody(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/movies", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, "/api/v1/movies", heatJSON)
	ts.add(t, "/api/v1/movies?kind=documentary", `{"title":"Planet Earth","director":"Alastair Fothergill","genres":["Nature"],"releaseYear":2006,"duration":550,"ageRating":0,"topic":"Wildlife","documentarian":"David Attenborough"}`)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{name: "everything", target: "/api/v1/movies", want: []string{"Heat", "Planet Earth"}},
		{name: "legacy path", target: "/search_movies?title=heat", want: []string{"Heat"}},
		{name: "legacy list", target: "/movies", want: []string{"Heat", "Planet Earth"}},
		{name: "kind", target: "/api/v1/movies?kind=documentary", want: []string{"Planet Earth"}},
		{name: "kind all", target: "/api/v1/movies?kind=all", want: []string{"Heat", "Planet Earth"}},
		{name: "genre substring", target: "/api/v1/movies?genre=dram", want: []string{"Heat"}},
		{name: "release year upper bound", target: "/api/v1/movies?releaseYear=2000", want: []string{"Heat"}},
		{name: "no match", target: "/api/v1/movies?director=nobody", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"movies":[`)

			titles := []string{}
			for _, m := range decode[searchResponse](t, rec).Movies {
				titles = append(titles, m.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestSearchMalformedFilter(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/movies?ageRating=old&watched=maybe", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"ageRating", "watched"}, decode[errorBody](t, rec).Fields)
}

func TestGetErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/movies/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "item 42 not found", decode[errorBody](t, rec).Message)

	rec = ts.do(t, http.MethodGet, "/api/v1/movies/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"id"}, decode[errorBody](t, rec).Fields)
}

func TestUpdate(t *testing.T) {
	ts := newTestServer(t)
	id := ts.add(t, "/api/v1/movies", heatJSON)

	rec := ts.do(t, http.MethodPatch, "/api/v1/movies/"+itoa(id), `{"watched":true,"genres":["Thriller"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[messageBody](t, rec)
	assert.Equal(t, "Movie updated", got.Message)
	require.NotNil(t, got.Movie)
	assert.True(t, got.Movie.Watched)
	assert.Equal(t, []string{"Thriller"}, got.Movie.Genres)

	rec = ts.do(t, http.MethodPatch, "/update_movie/"+itoa(id), `{"favourite":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[types.Wire](t, ts.do(t, http.MethodGet, "/api/v1/movies/"+itoa(id), ""))
	assert.True(t, stored.Favourite)
	assert.True(t, stored.Watched)
	assert.Equal(t, "Heat", stored.Title)
}

func TestUpdateErrors(t *testing.T) {
	ts := newTestServer(t)
	id := ts.add(t, "/api/v1/movies", heatJSON)

	rec := ts.do(t, http.MethodPatch, "/api/v1/movies/999", `{"watched":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/movies/"+itoa(id), `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stored := decode[types.Wire](t, ts.do(t, http.MethodGet, "/api/v1/movies/"+itoa(id), ""))
	assert.Equal(t, "Heat", stored.Title)
}

func TestAddGenre(t *testing.T) {
	ts := newTestServer(t)
	id := ts.add(t, "/api/v1/movies", heatJSON)

	rec := ts.do(t, http.MethodPost, "/api/v1/movies/"+itoa(id)+"/genres", `{"genre":"Action"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[messageBody](t, rec)
	require.NotNil(t, got.Movie)
	assert.Equal(t, []string{"Action", "Crime", "Drama"}, got.Movie.Genres)

	rec = ts.do(t, http.MethodPost, "/api/v1/movies/"+itoa(id)+"/genres", `{"genre":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	id := ts.add(t, "/api/v1/movies", heatJSON)

	rec := ts.do(t, http.MethodDelete, "/api/v1/movies/"+itoa(id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Movie deleted", decode[messageBody](t, rec).Message)

	rec = ts.do(t, http.MethodDelete, "/delete_movie/"+itoa(id), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestYearCounts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/stats/years", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"years":[]}`, rec.Body.String())

	ts.add(t, "/api/v1/movies", heatJSON)
	ts.add(t, "/api/v1/movies", strings.Replace(heatJSON, "Heat", "Casino", 1))
	got := decode[yearsResponse](t, ts.do(t, http.MethodGet, "/api/v1/stats/years", ""))
	assert.Equal(t, []types.YearCount{{ReleaseYear: 1995, Count: 2}}, got.Years)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[healthResponse](t, rec).Status)

	require.NoError(t, ts.backend.Detach())
	rec = ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPersistenceFailureIs500(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.backend.Detach())

	rec := ts.do(t, http.MethodGet, "/api/v1/movies", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Message, "detached")
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")
	id, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movies/7", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", decode[errorBody](t, rec).RequestID)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", decode[errorBody](t, rec).Message)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/movies", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *Config) {
		c.RateLimitRequests = 2
		c.RateLimitWindow = time.Minute
	})

	for range 2 {
		assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/movies", "").Code)
	}
	rec := ts.do(t, http.MethodGet, "/api/v1/movies", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode[errorBody](t, rec).Message)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "").Code, "health is not rate limited")
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/v1/movies/5", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/movies/{id}", "404")))

	rec := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moviedex_api_requests_total")
	assert.Contains(t, rec.Body.String(), "moviedex_catalog_errors_total")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(catalog.New(b), DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// slowStore delays Fetch and fails it if the request context ends first.
type slowStore struct {
	types.Store
	delay   time.Duration
	started chan struct{}
}

func (s *slowStore) Fetch(ctx context.Context, f types.Filter) ([]*types.Item, error) {
	close(s.started)
	select {
	case <-time.After(s.delay):
		return s.Store.Fetch(ctx, f)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestServeDrainsInFlightRequests(t *testing.T) {
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	store := &slowStore{Store: b, delay: 300 * time.Millisecond, started: make(chan struct{})}
	srv := NewServer(catalog.New(store), DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	type reply struct {
		status int
		body   string
		err    error
	}
	replies := make(chan reply, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/movies")
		if err != nil {
			replies <- reply{err: err}
			return
		}
		defer resp.Body.Close()
		var sb strings.Builder
		_, err = io.Copy(&sb, resp.Body)
		replies <- reply{status: resp.StatusCode, body: sb.String(), err: err}
	}()

	select {
	case <-store.started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the store")
	}
	cancel()

	select {
	case r := <-replies:
		require.NoError(t, r.err)
		assert.Equal(t, http.StatusOK, r.status, r.body)
		assert.JSONEq(t, `{"movies":[]}`, r.body)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request did not complete")
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

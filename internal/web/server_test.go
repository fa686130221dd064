package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bpmigrate/internal/cache"
	"github.com/bpmigrate/internal/model"
	"github.com/bpmigrate/internal/web/handlers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var stamped = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func seededStore(t *testing.T) *cache.CSVStore {
	t.Helper()
	store := cache.NewCSVStore(filepath.Join(t.TempDir(), cache.FileName))
	store.Now = func() time.Time { return stamped }

	c := cache.New()
	c.Put(model.CacheEntry{AddressID: "1", Line1: "Calle Mayor 5", Country: "ES", City: "Madrid", ProvinceCode: "M"})
	c.Put(model.CacheEntry{AddressID: "2", Line1: "Gran Via 1", Country: "ESP", City: "Madrid", ProvinceCode: "M"})
	c.Put(model.CacheEntry{AddressID: "3", Line1: "1 Main St", Country: "USA", City: "Austin", ProvinceCode: "TX"})
	c.Put(model.CacheEntry{AddressID: "4", Line1: "Nowhere", Country: ""})
	require.NoError(t, store.Save(context.Background(), c, nil))
	return store
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListAddresses(t *testing.T) {
	h := NewServer(DefaultConfig("localhost", 0), seededStore(t), nil).Handler()

	rec := get(t, h, "/api/addresses")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var list handlers.AddressListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 4, list.Total)
	require.Len(t, list.Addresses, 4)
	assert.Equal(t, "ES", list.Addresses[0].Country, "countries are stored as codes")
	require.NotNil(t, list.Addresses[0].LastUpdated)
	assert.Equal(t, stamped, *list.Addresses[0].LastUpdated)
}

func TestListAddressesFiltersAndPages(t *testing.T) {
	h := NewServer(DefaultConfig("localhost", 0), seededStore(t), nil).Handler()

	var list handlers.AddressListResponse
	rec := get(t, h, "/api/addresses?country=esp&per_page=1&page=2")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Addresses, 1)
	assert.Equal(t, "2", list.Addresses[0].AddressID)

	rec = get(t, h, "/api/addresses?country=US&page=9")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	assert.Empty(t, list.Addresses)
}

func TestGetAddress(t *testing.T) {
	h := NewServer(DefaultConfig("localhost", 0), seededStore(t), nil).Handler()

	rec := get(t, h, "/api/addresses/3")
	require.Equal(t, http.StatusOK, rec.Code)
	var a handlers.Address
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "TX", a.ProvinceCode)

	rec = get(t, h, "/api/addresses/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"address not found"}`, rec.Body.String())
}

func TestStatsAndCountries(t *testing.T) {
	h := NewServer(DefaultConfig("localhost", 0), seededStore(t), nil).Handler()

	var stats handlers.StatsResponse
	require.NoError(t, json.Unmarshal(get(t, h, "/api/stats").Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, map[string]int{"ES": 2, "US": 1, "unknown": 1}, stats.ByCountry)
	require.NotNil(t, stats.LastUpdated)

	var countries []string
	require.NoError(t, json.Unmarshal(get(t, h, "/api/countries").Body.Bytes(), &countries))
	assert.Equal(t, []string{"ES", "US"}, countries)
}

func TestAPIKey(t *testing.T) {
	cfg := DefaultConfig("localhost", 0)
	cfg.APIKey = "secret"
	h := NewServer(cfg, seededStore(t), nil).Handler()

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/stats").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/stats", "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code, "health is not behind the key")
}

func TestPreflight(t *testing.T) {
	h := NewServer(DefaultConfig("localhost", 0), seededStore(t), nil).Handler()
	req := httptest.NewRequest(http.MethodOptions, "/api/addresses", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

type failingStore struct{ cache.Store }

func (failingStore) Load(context.Context) (*cache.Cache, error) {
	return nil, errors.New("disk on fire")
}

func TestLoadFailure(t *testing.T) {
	h := NewServer(DefaultConfig("localhost", 0), failingStore{}, nil).Handler()
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/addresses").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(DefaultConfig("127.0.0.1", 0), seededStore(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

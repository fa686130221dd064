package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/cache"
	"github.com/bpmigrate/internal/derive"
	"github.com/bpmigrate/internal/model"
)

const (
	defaultPerPage = 100
	maxPerPage     = 1000
)

// AddressesHandler serves the normalization cache read-only. The store is
// loaded on every request so the API reflects the latest saved run.
type AddressesHandler struct {
	Store cache.Store
	Log   *zap.Logger
}

// Address is the JSON form of a cache entry.
type Address struct {
	AddressID    string     `json:"address_id"`
	Line1        string     `json:"address_line_1"`
	Line2        string     `json:"address_line_2"`
	Postcode     string     `json:"postcode"`
	Country      string     `json:"country"`
	City         string     `json:"normalized_city"`
	ProvinceCode string     `json:"normalized_province_code"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
}

type AddressListResponse struct {
	Addresses []Address `json:"addresses"`
	Total     int       `json:"total"`
	Page      int       `json:"page"`
	PerPage   int       `json:"per_page"`
}

type StatsResponse struct {
	Total       int            `json:"total"`
	ByCountry   map[string]int `json:"by_country"`
	LastUpdated *time.Time     `json:"last_updated,omitempty"`
}

func toAddress(e model.CacheEntry) Address {
	a := Address{
		AddressID:    e.AddressID,
		Line1:        e.Line1,
		Line2:        e.Line2,
		Postcode:     e.Postcode,
		Country:      e.Country,
		City:         e.City,
		ProvinceCode: e.ProvinceCode,
	}
	if !e.LastUpdated.IsZero() {
		t := e.LastUpdated.UTC()
		a.LastUpdated = &t
	}
	return a
}

func (h *AddressesHandler) load(w http.ResponseWriter, r *http.Request) (*cache.Cache, bool) {
	c, err := h.Store.Load(r.Context())
	if err != nil {
		h.Log.Error("load cache", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cache unavailable")
		return nil, false
	}
	return c, true
}

// ListAddresses returns cache entries in stored order, optionally filtered by
// ?country= (name or ISO code) and paginated with ?page= and ?per_page=.
func (h *AddressesHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	page := parseIntParam(query.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage := parseIntParam(query.Get("per_page"), defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	var matched []Address
	country := strings.TrimSpace(query.Get("country"))
	want := derive.CountryCode(country)
	for _, e := range c.Entries() {
		if country != "" && !sameCountry(e.Country, country, want) {
			continue
		}
		matched = append(matched, toAddress(e))
	}

	resp := AddressListResponse{Addresses: []Address{}, Total: len(matched), Page: page, PerPage: perPage}
	if start := (page - 1) * perPage; start < len(matched) {
		end := start + perPage
		if end > len(matched) {
			end = len(matched)
		}
		resp.Addresses = matched[start:end]
	}
	writeJSON(w, http.StatusOK, resp)
}

// sameCountry compares by ISO code when the filter is recognised, else by
// the raw value.
func sameCountry(entry, filter, filterCode string) bool {
	if filterCode != "" {
		return derive.CountryCode(entry) == filterCode
	}
	return strings.EqualFold(strings.TrimSpace(entry), filter)
}

func (h *AddressesHandler) GetAddress(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	e, found := c.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, toAddress(e))
}

// GetStats counts entries per country code. Entries whose country cannot be
// resolved are counted under their raw value, blanks under "unknown".
func (h *AddressesHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	stats := StatsResponse{ByCountry: map[string]int{}}
	var latest time.Time
	for _, e := range c.Entries() {
		stats.Total++
		key := derive.CountryCode(e.Country)
		if key == "" {
			key = strings.TrimSpace(e.Country)
		}
		if key == "" {
			key = "unknown"
		}
		stats.ByCountry[key]++
		if e.LastUpdated.After(latest) {
			latest = e.LastUpdated
		}
	}
	if !latest.IsZero() {
		t := latest.UTC()
		stats.LastUpdated = &t
	}
	writeJSON(w, http.StatusOK, stats)
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Countries lists the distinct country codes in the cache, sorted.
func (h *AddressesHandler) Countries(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	seen := map[string]bool{}
	out := []string{}
	for _, e := range c.Entries() {
		code := derive.CountryCode(e.Country)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	sort.Strings(out)
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultVal
}

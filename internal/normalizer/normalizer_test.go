package normalizer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpmigrate/internal/cache"
	"github.com/bpmigrate/internal/model"
	"github.com/bpmigrate/internal/oracle"
)

type reply struct {
	text string
	err  error
}

// scriptedOracle answers from a fixed list of replies and fails the test's
// expectations by erroring once the script runs out.
type scriptedOracle struct {
	replies  []reply
	requests []oracle.Request
}

func (s *scriptedOracle) Complete(_ context.Context, req oracle.Request) (string, error) {
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return "", errors.New("unexpected oracle call")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.text, r.err
}

func (s *scriptedOracle) Name() string { return "scripted" }

type memStore struct {
	saves [][]string
}

func (m *memStore) Load(context.Context) (*cache.Cache, error) { return cache.New(), nil }

func (m *memStore) Save(_ context.Context, _ *cache.Cache, batch []string) error {
	m.saves = append(m.saves, append([]string(nil), batch...))
	return nil
}

func (m *memStore) Close() error { return nil }

type sleeps struct{ waits []time.Duration }

func (s *sleeps) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func testOptions(s *sleeps) Options {
	return Options{BatchSize: 10, MaxAttempts: 3, RetryDelay: 2 * time.Second, Sleep: s.sleep}
}

func madrid(id string) model.Address {
	return model.Address{AddressID: id, Line1: "Calle Mayor 5", City: "madird", Line3: "Madrid", Postcode: "28001", Country: "ESP"}
}

func TestNormalizeEmpty(t *testing.T) {
	o := &scriptedOracle{}
	n := New(o, nil, nil, nil, Options{})

	results, err := n.NormalizeBatch(context.Background(), nil, Shipping)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, o.requests)
}

func TestNormalizeWithoutOracleIsIdentity(t *testing.T) {
	store := &memStore{}
	n := New(nil, nil, store, nil, Options{})
	addrs := []model.Address{
		{AddressID: "1", City: "Sevilla", Line3: "Andalucia", Line4: "SE", Country: "ES"},
		{AddressID: "2", City: "Lyon", Line3: "Rhone", Country: "FR"},
	}

	results, err := n.NormalizeBatch(context.Background(), addrs, Billing)

	require.NoError(t, err)
	assert.Equal(t, []Result{{City: "Sevilla", ProvinceCode: "SE"}, {City: "Lyon", ProvinceCode: "Rhone"}}, results)
	assert.Empty(t, store.saves)
	assert.Equal(t, 2, n.Stats().Identity)
}

func TestAllCachedMakesNoOracleCalls(t *testing.T) {
	c := cache.New()
	c.Put(model.CacheEntry{AddressID: "1", City: "Madrid", ProvinceCode: "M", Country: "ES"})
	c.Put(model.CacheEntry{AddressID: "2", City: "Austin", ProvinceCode: "TX", Country: "US"})
	o := &scriptedOracle{}
	n := New(o, c, &memStore{}, nil, Options{})

	results, err := n.NormalizeBatch(context.Background(), []model.Address{{AddressID: "2"}, {AddressID: "1"}}, Shipping)

	require.NoError(t, err)
	assert.Empty(t, o.requests)
	assert.Equal(t, []Result{{"Austin", "TX", "US"}, {"Madrid", "M", "ES"}}, results)
	assert.Equal(t, 2, n.Stats().CacheHits)
}

func TestBatchResolvesAndCaches(t *testing.T) {
	o := &scriptedOracle{replies: []reply{{text: `Here you go:
[{"city":"Madrid","province_code":"ES-M"},{"city":"Austin","province_code":"Texas"},{"city":"Paris","province_code":""}]
Let me know if you need anything else.`}}}
	store := &memStore{}
	c := cache.New()
	n := New(o, c, store, nil, testOptions(&sleeps{}))

	addrs := []model.Address{
		madrid("1"),
		{AddressID: "2", Line1: "100 Congress Ave", City: "Austn", Line3: "Texas", Country: "USA"},
		madrid("1"),
		{City: "paris", Country: "FRA"},
	}
	results, err := n.NormalizeBatch(context.Background(), addrs, Shipping)

	require.NoError(t, err)
	want := []Result{
		{City: "Madrid", ProvinceCode: "M", Country: "ES"},
		{City: "Austin", ProvinceCode: "TX", Country: "US"},
		{City: "Madrid", ProvinceCode: "M", Country: "ES"},
		{City: "Paris", ProvinceCode: "", Country: "FR"},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, o.requests, 1)
	assert.Contains(t, o.requests[0].Prompt, "following 3 addresses")
	assert.Equal(t, [][]string{{"1", "2"}}, store.saves, "blank address ids are not cached")

	entry, ok := c.Get("1")
	require.True(t, ok)
	assert.Equal(t, "M", entry.ProvinceCode)
	assert.Equal(t, "Madrid", entry.City)
	assert.Equal(t, "Calle Mayor 5", entry.Line1)
}

func TestRateLimitFallsBackToIdentity(t *testing.T) {
	o := &scriptedOracle{replies: []reply{{err: fmt.Errorf("%w: 429", oracle.ErrRateLimited)}}}
	store := &memStore{}
	s := &sleeps{}
	n := New(o, nil, store, nil, testOptions(s))

	addrs := make([]model.Address, 10)
	for i := range addrs {
		addrs[i] = model.Address{AddressID: fmt.Sprint(i), City: fmt.Sprintf("City %d", i), Line3: "Prov"}
	}
	results, err := n.NormalizeBatch(context.Background(), addrs, Shipping)

	require.NoError(t, err)
	assert.Len(t, o.requests, 1, "no second attempt")
	assert.Empty(t, s.waits)
	assert.Empty(t, store.saves, "no cache write")
	for i, r := range results {
		assert.Equal(t, Result{City: addrs[i].City, ProvinceCode: "Prov"}, r)
	}
	assert.Equal(t, 1, n.Stats().RateLimited)
}

func TestRateLimitDuringSingleCallsStopsTheBatch(t *testing.T) {
	bad := reply{text: "sorry"}
	o := &scriptedOracle{replies: []reply{
		bad, bad, bad,
		{text: `{"city":"Madrid","province_code":"M"}`},
		{err: fmt.Errorf("%w: 429", oracle.ErrRateLimited)},
	}}
	store := &memStore{}
	s := &sleeps{}
	n := New(o, nil, store, nil, testOptions(s))

	lyon := model.Address{AddressID: "2", City: "lyon", Line3: "Rhone", Country: "FRA"}
	porto := model.Address{AddressID: "3", City: "porto", Line3: "Norte", Country: "PRT"}
	results, err := n.NormalizeBatch(context.Background(), []model.Address{madrid("1"), lyon, porto}, Shipping)

	require.NoError(t, err)
	assert.Len(t, o.requests, 5, "no single call after the rate limit")
	assert.Equal(t, []Result{{City: "Madrid", ProvinceCode: "M", Country: "ES"}, Identity(lyon), Identity(porto)}, results)
	assert.Equal(t, [][]string{{"1"}}, store.saves)
	assert.Equal(t, 1, n.Stats().RateLimited)
	assert.Equal(t, 2, n.Stats().Identity)
}

func TestLengthMismatchFallsBackToSingleCalls(t *testing.T) {
	short := reply{text: `[{"city":"Madrid","province_code":"M"}]`}
	o := &scriptedOracle{replies: []reply{
		short, short, short,
		{text: `{"city":"Madrid","province_code":"ES-M"}`},
		{text: "no idea"}, {text: `{"city":"Lyon"}`}, {err: oracle.ErrEmptyResponse},
	}}
	store := &memStore{}
	s := &sleeps{}
	n := New(o, nil, store, nil, testOptions(s))

	lyon := model.Address{AddressID: "2", City: "lyon", Line3: "Rhone", Country: "FRA"}
	results, err := n.NormalizeBatch(context.Background(), []model.Address{madrid("1"), lyon}, Billing)

	require.NoError(t, err)
	assert.Equal(t, []Result{{City: "Madrid", ProvinceCode: "M", Country: "ES"}, Identity(lyon)}, results)
	assert.Len(t, o.requests, 7)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second}, s.waits)
	assert.Equal(t, [][]string{{"1"}}, store.saves)
	assert.Contains(t, o.requests[3].Prompt, "Return one JSON object")

	stats := n.Stats()
	assert.Equal(t, 1, stats.Fallbacks)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 1, stats.Identity)
}

func TestMissesAreChunkedByTen(t *testing.T) {
	answers := func(n int) string {
		items := make([]string, n)
		for i := range items {
			items[i] = `{"city":"X","province_code":"ES-B"}`
		}
		return "[" + strings.Join(items, ",") + "]"
	}
	o := &scriptedOracle{replies: []reply{{text: answers(10)}, {text: answers(2)}}}
	store := &memStore{}
	n := New(o, nil, store, nil, testOptions(&sleeps{}))

	addrs := make([]model.Address, 12)
	for i := range addrs {
		addrs[i] = model.Address{AddressID: fmt.Sprintf("a%d", i), Country: "ES"}
	}
	results, err := n.NormalizeBatch(context.Background(), addrs, Shipping)

	require.NoError(t, err)
	assert.Len(t, o.requests, 2)
	require.Len(t, store.saves, 2)
	assert.Len(t, store.saves[0], 10)
	assert.Equal(t, []string{"a10", "a11"}, store.saves[1])
	for _, r := range results {
		assert.Equal(t, Result{City: "X", ProvinceCode: "B", Country: "ES"}, r)
	}
}

func TestSecondRunIsServedFromCache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewCSVStore(filepath.Join(t.TempDir(), cache.FileName))
	addrs := []model.Address{
		madrid("1"),
		{AddressID: "2", City: "Austn", Line3: "TX", Country: "US"},
	}

	first := &scriptedOracle{replies: []reply{{text: `[{"city":"Madrid","province_code":"ES-M"},{"city":"Austin","province_code":"US-TX"}]`}}}
	c1, err := store.Load(ctx)
	require.NoError(t, err)
	want, err := New(first, c1, store, nil, testOptions(&sleeps{})).NormalizeBatch(ctx, addrs, Shipping)
	require.NoError(t, err)

	second := &scriptedOracle{}
	c2, err := store.Load(ctx)
	require.NoError(t, err)
	got, err := New(second, c2, store, nil, testOptions(&sleeps{})).NormalizeBatch(ctx, addrs, Shipping)
	require.NoError(t, err)

	assert.Empty(t, second.requests)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestHintsAddParsedComponents(t *testing.T) {
	o := &scriptedOracle{replies: []reply{{text: `[{"city":"Madrid","province_code":"M"}]`}}}
	opts := testOptions(&sleeps{})
	opts.Hints = true
	n := New(o, nil, nil, nil, opts)

	_, err := n.NormalizeBatch(context.Background(), []model.Address{madrid("1")}, Shipping)

	require.NoError(t, err)
	require.Len(t, o.requests, 1)
	assert.Contains(t, o.requests[0].Prompt, "Parsed: ")
	assert.Equal(t, systemPrompt, o.requests[0].System)
}

func TestCancelledContextIsReturned(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := &scriptedOracle{replies: []reply{{err: context.Canceled}}}
	n := New(o, nil, nil, nil, testOptions(&sleeps{}))

	_, err := n.NormalizeBatch(ctx, []model.Address{madrid("1")}, Shipping)

	assert.ErrorIs(t, err, context.Canceled)
}

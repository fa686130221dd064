// Package normalizer resolves the city and province code of addresses
// through the oracle, consulting and updating the normalization cache.
package normalizer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/cache"
	"github.com/bpmigrate/internal/derive"
	"github.com/bpmigrate/internal/logging"
	"github.com/bpmigrate/internal/model"
	"github.com/bpmigrate/internal/oracle"
	"github.com/bpmigrate/internal/retry"
)

// Kind labels a batch in logs.
type Kind string

const (
	Shipping Kind = "shipping"
	Billing  Kind = "billing"
)

// Result is the normalized form of one address. Country is empty when the
// address was passed through unresolved.
type Result struct {
	City         string
	ProvinceCode string
	Country      string
}

// Identity is the pass-through result used whenever the oracle cannot answer.
func Identity(a model.Address) Result {
	return Result{City: a.City, ProvinceCode: a.ProvinceRaw()}
}

type Options struct {
	// BatchSize is the number of addresses per batched oracle call.
	BatchSize int
	// MaxAttempts bounds each batched and each single-address call.
	MaxAttempts int
	RetryDelay  time.Duration
	// Hints adds parsed address components to the prompt.
	Hints bool
	// Sleep replaces the retry wait, mostly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultOptions() Options {
	return Options{BatchSize: 10, MaxAttempts: 3, RetryDelay: 2 * time.Second, Hints: true}
}

// Stats counts what the normalizer did across calls.
type Stats struct {
	Requested   int
	CacheHits   int
	OracleCalls int
	Resolved    int
	RateLimited int
	Fallbacks   int
	Identity    int
}

type Normalizer struct {
	oracle oracle.Oracle
	cache  *cache.Cache
	store  cache.Store
	log    *zap.Logger
	opts   Options
	stats  Stats
}

// New builds a normalizer. A nil oracle turns every cache miss into an
// identity pass-through. store may be nil, in which case nothing is persisted.
func New(o oracle.Oracle, c *cache.Cache, store cache.Store, log *zap.Logger, opts Options) *Normalizer {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if c == nil {
		c = cache.New()
	}
	return &Normalizer{oracle: o, cache: c, store: store, log: logging.OrNop(log), opts: opts}
}

func (n *Normalizer) Stats() Stats { return n.stats }

// NormalizeBatch returns one Result per address, in input order. Oracle
// failures never surface as errors; only a failed cache save or a cancelled
// context does.
func (n *Normalizer) NormalizeBatch(ctx context.Context, addrs []model.Address, kind Kind) ([]Result, error) {
	results := make([]Result, len(addrs))
	if len(addrs) == 0 {
		return results, nil
	}
	n.stats.Requested += len(addrs)
	log := n.log.With(zap.String("kind", string(kind)))

	// Misses are grouped by address id so an address shared by several rows
	// is resolved once.
	var misses []int
	followers := map[int][]int{}
	leaderOf := map[string]int{}
	for i, a := range addrs {
		id := strings.TrimSpace(a.AddressID)
		if id != "" {
			if e, ok := n.cache.Get(id); ok {
				results[i] = fromEntry(e, a)
				n.stats.CacheHits++
				continue
			}
			if leader, ok := leaderOf[id]; ok {
				followers[leader] = append(followers[leader], i)
				continue
			}
			leaderOf[id] = i
		}
		misses = append(misses, i)
	}

	if len(misses) == 0 {
		log.Debug("all addresses cached", zap.Int("count", len(addrs)))
		return results, nil
	}
	if n.oracle == nil {
		log.Debug("no oracle configured, passing addresses through", zap.Int("count", len(misses)))
		for _, i := range misses {
			n.set(results, followers, i, Identity(addrs[i]))
			n.stats.Identity++
		}
		return results, nil
	}

	log.Info("normalizing addresses",
		zap.Int("total", len(addrs)), zap.Int("cached", len(addrs)-len(misses)), zap.Int("to_resolve", len(misses)))

	for start := 0; start < len(misses); start += n.opts.BatchSize {
		end := min(start+n.opts.BatchSize, len(misses))
		chunk := misses[start:end]
		if err := n.resolveChunk(ctx, log, addrs, chunk, followers, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (n *Normalizer) resolveChunk(ctx context.Context, log *zap.Logger, addrs []model.Address, chunk []int, followers map[int][]int, results []Result) error {
	batch := make([]model.Address, len(chunk))
	for j, i := range chunk {
		batch[j] = addrs[i]
	}

	answers, err := n.callBatch(ctx, log, batch)
	var saved []string
	switch {
	case err == nil:
		for j, i := range chunk {
			saved = n.accept(results, followers, i, addrs[i], answers[j], saved)
		}
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, oracle.ErrRateLimited):
		log.Warn("oracle rate limited, keeping original city and province", zap.Int("addresses", len(chunk)))
		n.stats.RateLimited++
		for _, i := range chunk {
			n.set(results, followers, i, Identity(addrs[i]))
			n.stats.Identity++
		}
		return nil
	default:
		log.Warn("batch normalization failed, falling back to single addresses",
			zap.Int("addresses", len(chunk)), zap.Error(err))
		n.stats.Fallbacks++
		for k, i := range chunk {
			a, err := n.callSingle(ctx, log, addrs[i])
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, oracle.ErrRateLimited) {
					rest := chunk[k:]
					log.Warn("oracle rate limited, keeping original city and province", zap.Int("addresses", len(rest)))
					n.stats.RateLimited++
					for _, r := range rest {
						n.set(results, followers, r, Identity(addrs[r]))
						n.stats.Identity++
					}
					break
				}
				log.Warn("address left unnormalized", zap.String("address_id", addrs[i].AddressID), zap.Error(err))
				n.set(results, followers, i, Identity(addrs[i]))
				n.stats.Identity++
				continue
			}
			saved = n.accept(results, followers, i, addrs[i], a, saved)
		}
	}

	if len(saved) > 0 && n.store != nil {
		if err := n.store.Save(ctx, n.cache, saved); err != nil {
			return eris.Wrap(err, "normalizer: save cache")
		}
	}
	return nil
}

// accept records an oracle answer in results and the cache, returning the
// updated list of cached ids.
func (n *Normalizer) accept(results []Result, followers map[int][]int, i int, a model.Address, ans answer, saved []string) []string {
	r := finish(a, ans)
	n.set(results, followers, i, r)
	n.stats.Resolved++

	id := strings.TrimSpace(a.AddressID)
	if id == "" {
		return saved
	}
	n.cache.Put(model.CacheEntry{
		AddressID:    id,
		Line1:        a.Line1,
		Line2:        a.Line2,
		Postcode:     a.Postcode,
		Country:      a.Country,
		City:         r.City,
		ProvinceCode: r.ProvinceCode,
	})
	return append(saved, id)
}

func (n *Normalizer) set(results []Result, followers map[int][]int, i int, r Result) {
	results[i] = r
	for _, f := range followers[i] {
		results[f] = r
	}
}

func (n *Normalizer) callBatch(ctx context.Context, log *zap.Logger, batch []model.Address) ([]answer, error) {
	req := oracle.Request{System: systemPrompt, Prompt: batchPrompt(batch, n.opts.Hints)}
	var answers []answer
	err := retry.Do(ctx, n.policy(log, "batch"), func(ctx context.Context) error {
		n.stats.OracleCalls++
		text, err := n.oracle.Complete(ctx, req)
		if err != nil {
			return err
		}
		answers, err = parseBatch(text, len(batch))
		return err
	})
	return answers, err
}

func (n *Normalizer) callSingle(ctx context.Context, log *zap.Logger, a model.Address) (answer, error) {
	req := oracle.Request{System: systemPrompt, Prompt: singlePrompt(a, n.opts.Hints)}
	var ans answer
	err := retry.Do(ctx, n.policy(log, "single"), func(ctx context.Context) error {
		n.stats.OracleCalls++
		text, err := n.oracle.Complete(ctx, req)
		if err != nil {
			return err
		}
		ans, err = parseSingle(text)
		return err
	})
	return ans, err
}

func (n *Normalizer) policy(log *zap.Logger, mode string) retry.Policy {
	return retry.Policy{
		MaxAttempts: n.opts.MaxAttempts,
		Backoff:     retry.Fixed(n.opts.RetryDelay),
		Sleep:       n.opts.Sleep,
		Classify: func(err error) retry.Decision {
			if errors.Is(err, oracle.ErrRateLimited) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return retry.Abort
			}
			return retry.Retry
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn("oracle call failed, retrying",
				zap.String("mode", mode), zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		},
	}
}

// finish cleans an oracle answer: the province loses any country prefix and
// US state names become two-letter codes.
func finish(a model.Address, ans answer) Result {
	country := derive.CountryCode(a.Country)
	province := derive.StripProvincePrefix(ans.ProvinceCode)
	if derive.IsUS(country) {
		if code, ok := derive.StateCode(province); ok {
			province = code
		}
	}
	return Result{City: strings.TrimSpace(ans.City), ProvinceCode: province, Country: country}
}

func fromEntry(e model.CacheEntry, a model.Address) Result {
	country := derive.CountryCode(e.Country)
	if country == "" {
		country = derive.CountryCode(a.Country)
	}
	return Result{City: e.City, ProvinceCode: e.ProvinceCode, Country: country}
}

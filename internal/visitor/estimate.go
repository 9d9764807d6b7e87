package visitor

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/patrickmn/go-cache"
)

const estimateKey = "visitor-estimate"

// DefaultHourlyPattern weights the day's visitors by local hour.
var DefaultHourlyPattern = [24]float64{
	0.2, 0.1, 0.1, 0.1, 0.2, 0.3, 0.5, 0.7,
	1.0, 1.2, 1.3, 1.4, 1.3, 1.2, 1.1, 1.0,
	0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2,
}

// EstimateConfig parameterizes the estimate.
type EstimateConfig struct {
	LaunchDate    time.Time
	BaseCount     int
	DailyAverage  int
	HourlyPattern [24]float64
	CacheTTL      time.Duration
}

// DefaultEstimateConfig returns the stock parameters.
func DefaultEstimateConfig() EstimateConfig {
	return EstimateConfig{
		LaunchDate:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		BaseCount:     1500,
		DailyAverage:  5,
		HourlyPattern: DefaultHourlyPattern,
		CacheTTL:      time.Hour,
	}
}

// Store persists visitor state across runs.
type Store interface {
	IncrementCounter(ctx context.Context, key string) (int64, error)
	LoadEstimate(ctx context.Context) (count int, at time.Time, ok bool, err error)
	SaveEstimate(ctx context.Context, count int, at time.Time) error
}

// Estimator projects a visitor total from a launch date and a daily
// average, with an hourly shape and a small random variation. A computed
// value is reused for CacheTTL.
type Estimator struct {
	cfg   EstimateConfig
	store Store
	cache *cache.Cache
	now   func() time.Time
	rng   *rand.Rand
}

// NewEstimator creates an estimator. store may be nil.
func NewEstimator(cfg EstimateConfig, store Store) *Estimator {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.HourlyPattern == ([24]float64{}) {
		cfg.HourlyPattern = DefaultHourlyPattern
	}
	return &Estimator{
		cfg:   cfg,
		store: store,
		cache: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name implements Provider.
func (e *Estimator) Name() string { return ProviderEstimate }

// Count returns the cached estimate or computes a fresh one.
func (e *Estimator) Count(ctx context.Context) (int, error) {
	if v, ok := e.cache.Get(estimateKey); ok {
		return v.(int), nil
	}

	now := e.now()
	if e.store != nil {
		count, at, ok, err := e.store.LoadEstimate(ctx)
		if err == nil && ok && now.Sub(at) < e.cfg.CacheTTL && !at.After(now) {
			e.cache.Set(estimateKey, count, e.cfg.CacheTTL-now.Sub(at))
			return count, nil
		}
	}

	count := e.Estimate(now, e.rng.Float64())
	e.cache.SetDefault(estimateKey, count)
	if e.store != nil {
		if err := e.store.SaveEstimate(ctx, count, now); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Estimate computes the estimate at now. jitter in [0, 1) drives the
// variation; 0.5 means none.
func (e *Estimator) Estimate(now time.Time, jitter float64) int {
	days := int(math.Floor(now.Sub(e.cfg.LaunchDate).Hours() / 24))
	total := e.cfg.BaseCount + days*e.cfg.DailyAverage

	hourly := e.cfg.HourlyPattern[now.Hour()]
	total += int(math.Floor(float64(e.cfg.DailyAverage) * hourly))

	variation := math.Floor(float64(total) * 0.02 * (jitter - 0.5))
	return total + int(variation)
}

package recommend

import "time"

// Options is the immutable tuning of an Engine. Zero fields fall back to the
// defaults below when the engine is built.
type Options struct {
	// Neighbors is the k of the nearest-neighbour selection used by Recommend
	// and the default k of TopNeighbors.
	Neighbors int
	// LikedThreshold is the minimum rating counted as a vote by Recommend.
	LikedThreshold float64

	RecommendLimit int
	SimilarLimit   int
	TrendingDays   int
	TrendingLimit  int
	TopRatedLimit  int
	// MinReviews is used by TopRated when the caller passes a negative
	// threshold.
	MinReviews int

	// MaxConcurrency caps the store reads in flight for a single operation.
	MaxConcurrency int
	// ReadTimeout bounds every individual store read.
	ReadTimeout time.Duration

	// EmptyPreferencesMatchAll disables the genre filter of Recommend for
	// users without preferred genres. When false such users get no
	// recommendations.
	EmptyPreferencesMatchAll bool

	// Now is the clock of the trending window.
	Now func() time.Time
}

const (
	defaultNeighbors      = 5
	defaultLikedThreshold = 4
	defaultRecommendLimit = 10
	defaultSimilarLimit   = 6
	defaultTrendingDays   = 7
	defaultTrendingLimit  = 10
	defaultTopRatedLimit  = 10
	defaultMinReviews     = 5
	defaultMaxConcurrency = 8
	defaultReadTimeout    = 5 * time.Second
)

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	o.Neighbors = positiveOr(o.Neighbors, defaultNeighbors)
	if o.LikedThreshold <= 0 {
		o.LikedThreshold = defaultLikedThreshold
	}
	o.RecommendLimit = positiveOr(o.RecommendLimit, defaultRecommendLimit)
	o.SimilarLimit = positiveOr(o.SimilarLimit, defaultSimilarLimit)
	o.TrendingDays = positiveOr(o.TrendingDays, defaultTrendingDays)
	o.TrendingLimit = positiveOr(o.TrendingLimit, defaultTrendingLimit)
	o.TopRatedLimit = positiveOr(o.TopRatedLimit, defaultTopRatedLimit)
	o.MinReviews = positiveOr(o.MinReviews, defaultMinReviews)
	o.MaxConcurrency = positiveOr(o.MaxConcurrency, defaultMaxConcurrency)
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

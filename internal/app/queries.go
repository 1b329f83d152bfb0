package app

import (
	"context"
	"time"

	"flex_reviews/internal/analytics"
	"flex_reviews/internal/domain"
)

// Fixed cache keys for the unparameterized aggregates. Parameterized reads
// (public listing, ranged summary, per-property rollups) skip the cache so
// the write path can invalidate a closed key set.
const (
	keyCategoryCounts = "analytics:categories"
	keyDateRange      = "analytics:date-range"
	keyMonthlyRating  = "analytics:monthly:rating"
	keyMonthlyReviews = "analytics:monthly:reviews"
	keyMonthlyProps   = "analytics:monthly:properties"
	keyPerformance    = "analytics:performance"
)

var analyticsKeys = []string{
	keyCategoryCounts, keyDateRange, keyMonthlyRating,
	keyMonthlyReviews, keyMonthlyProps, keyPerformance,
}

type QueryService struct {
	props    domain.PropertyRepository
	reviews  domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(p domain.PropertyRepository, r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{props: p, reviews: r, cache: c, cacheTTL: ttl}
}

// Summary is the dashboard's headline card row.
type Summary struct {
	TotalProperties         int     `json:"totalProperties"`
	TotalReviewedProperties int     `json:"totalReviewedProperties"`
	TotalReviews            int     `json:"totalReviews"`
	AverageRating           float64 `json:"averageRating"`
}

func (s *QueryService) PublicReviews(ctx context.Context, f analytics.ReviewFilter) ([]analytics.PublicReview, error) {
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.ListPublicReviews(rs, f), nil
}

func (s *QueryService) Summary(ctx context.Context, rng analytics.DateRange) (Summary, error) {
	ps, err := s.props.ListProperties(ctx)
	if err != nil {
		return Summary{}, err
	}
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		TotalProperties:         analytics.TotalProperties(ps),
		TotalReviewedProperties: analytics.TotalReviewedProperties(rs, rng),
		TotalReviews:            analytics.TotalReviews(rs, rng),
		AverageRating:           analytics.AverageRating(rs, rng),
	}, nil
}

func (s *QueryService) CategoryCounts(ctx context.Context) ([]analytics.CategoryCount, error) {
	var out []analytics.CategoryCount
	if ok, _ := s.cache.Get(ctx, keyCategoryCounts, &out); ok {
		return out, nil
	}
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	out = analytics.CategoryCounts(rs)
	_ = s.cache.Set(ctx, keyCategoryCounts, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) ReviewsDateRange(ctx context.Context) (analytics.DateBounds, error) {
	var out analytics.DateBounds
	if ok, _ := s.cache.Get(ctx, keyDateRange, &out); ok {
		return out, nil
	}
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return analytics.DateBounds{}, err
	}
	out = analytics.ReviewsDateRange(rs)
	_ = s.cache.Set(ctx, keyDateRange, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) MonthlyAverageRating(ctx context.Context) ([]analytics.MonthlyRating, error) {
	var out []analytics.MonthlyRating
	if ok, _ := s.cache.Get(ctx, keyMonthlyRating, &out); ok {
		return out, nil
	}
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	out = analytics.MonthlyAverageRating(rs)
	_ = s.cache.Set(ctx, keyMonthlyRating, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) MonthlyTotalReviews(ctx context.Context) ([]analytics.MonthlyCount, error) {
	var out []analytics.MonthlyCount
	if ok, _ := s.cache.Get(ctx, keyMonthlyReviews, &out); ok {
		return out, nil
	}
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	out = analytics.MonthlyTotalReviews(rs)
	_ = s.cache.Set(ctx, keyMonthlyReviews, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) MonthlyTotalReviewedProperties(ctx context.Context) ([]analytics.MonthlyCount, error) {
	var out []analytics.MonthlyCount
	if ok, _ := s.cache.Get(ctx, keyMonthlyProps, &out); ok {
		return out, nil
	}
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	out = analytics.MonthlyTotalReviewedProperties(rs)
	_ = s.cache.Set(ctx, keyMonthlyProps, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) PropertyPerformance(ctx context.Context) (analytics.Performance, error) {
	var out analytics.Performance
	if ok, _ := s.cache.Get(ctx, keyPerformance, &out); ok {
		return out, nil
	}
	ps, err := s.props.ListProperties(ctx)
	if err != nil {
		return analytics.Performance{}, err
	}
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return analytics.Performance{}, err
	}
	out = analytics.PropertyPerformance(ps, rs)
	_ = s.cache.Set(ctx, keyPerformance, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) PropertyMonthlyRating(ctx context.Context, propertyID int) ([]analytics.MonthlyRating, error) {
	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.PropertyMonthlyRating(rs, propertyID), nil
}

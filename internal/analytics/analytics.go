// Package analytics is the pure query core of the service: every function
// takes fully materialized collections and returns a value, with no I/O and
// no shared state. Callers own loading, caching, and persistence.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"flex_reviews/internal/domain"
)

// DateRange restricts an operation to reviews whose departure date falls
// within the inclusive [Start, End] bounds ("YYYY-MM-DD"). An empty bound is
// open. Zero-padded ISO dates make plain string comparison chronological.
type DateRange struct {
	Start string
	End   string
}

func (r DateRange) bounded() bool { return r.Start != "" || r.End != "" }

func (r DateRange) contains(date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// departureDate extracts the date portion of a review's departureDate: the
// text before the first space, which must parse as YYYY-MM-DD. Returns ""
// when the field is missing or unparseable.
func departureDate(r domain.Review) string {
	s := r.DepartureDate
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	if len(s) != 10 {
		return ""
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return ""
	}
	return s
}

// filterByRange applies the shared date filter. With at least one bound set,
// reviews without a valid departure date are dropped; with no bounds the
// input passes through untouched, dateless reviews included.
func filterByRange(reviews []domain.Review, rng DateRange) []domain.Review {
	if !rng.bounded() {
		return reviews
	}
	out := make([]domain.Review, 0, len(reviews))
	for _, rv := range reviews {
		d := departureDate(rv)
		if d == "" || !rng.contains(d) {
			continue
		}
		out = append(out, rv)
	}
	return out
}

// Round2 rounds to two decimal places, half away from zero (2.345 -> 2.35).
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// PublicReview is the guest-facing projection of a review.
type PublicReview struct {
	ID             int      `json:"id"`
	GuestName      string   `json:"guestName"`
	PublicReview   string   `json:"publicReview"`
	Rating         float64  `json:"rating"`
	ReviewCategory []string `json:"reviewCategory"`
}

// ReviewFilter restricts a listing to one property or a set of properties.
// PropertyIDs takes precedence over PropertyID when both are set.
type ReviewFilter struct {
	PropertyID  *int
	PropertyIDs []int
}

func (f ReviewFilter) matches(r domain.Review) bool {
	if len(f.PropertyIDs) > 0 {
		for _, id := range f.PropertyIDs {
			if r.PropertyID == id {
				return true
			}
		}
		return false
	}
	if f.PropertyID != nil {
		return r.PropertyID == *f.PropertyID
	}
	return true
}

// ListPublicReviews returns the displayable reviews, input order preserved.
// Reviews with an empty guest name or review text never appear. A missing
// rating projects as 0 and a missing category list as empty.
func ListPublicReviews(reviews []domain.Review, f ReviewFilter) []PublicReview {
	out := []PublicReview{}
	for _, r := range reviews {
		if r.GuestName == "" || r.PublicReview == "" {
			continue
		}
		if !f.matches(r) {
			continue
		}
		pr := PublicReview{
			ID:             r.ID,
			GuestName:      r.GuestName,
			PublicReview:   r.PublicReview,
			ReviewCategory: r.ReviewCategory,
		}
		if r.Rating != nil {
			pr.Rating = *r.Rating
		}
		if pr.ReviewCategory == nil {
			pr.ReviewCategory = []string{}
		}
		out = append(out, pr)
	}
	return out
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategoryCounts tallies category tags across all reviews over the fixed
// vocabulary; unknown tags are ignored. Result is sorted by count descending,
// ties keeping vocabulary order.
func CategoryCounts(reviews []domain.Review) []CategoryCount {
	idx := make(map[string]int, len(domain.Categories))
	out := make([]CategoryCount, len(domain.Categories))
	for i, c := range domain.Categories {
		idx[c] = i
		out[i] = CategoryCount{Category: c}
	}
	for _, r := range reviews {
		for _, tag := range r.ReviewCategory {
			if i, ok := idx[tag]; ok {
				out[i].Count++
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func TotalProperties(properties []domain.Property) int { return len(properties) }

// TotalReviewedProperties counts distinct property ids among date-filtered
// reviews. A zero property id (dangling or absent) never counts.
func TotalReviewedProperties(reviews []domain.Review, rng DateRange) int {
	seen := map[int]struct{}{}
	for _, r := range filterByRange(reviews, rng) {
		if r.PropertyID == 0 {
			continue
		}
		seen[r.PropertyID] = struct{}{}
	}
	return len(seen)
}

func TotalReviews(reviews []domain.Review, rng DateRange) int {
	return len(filterByRange(reviews, rng))
}

// AverageRating is the mean rating over date-filtered reviews that carry one.
// Reviews with a null rating count in neither numerator nor denominator; an
// empty denominator yields 0, not an error.
func AverageRating(reviews []domain.Review, rng DateRange) float64 {
	var sum float64
	var n int
	for _, r := range filterByRange(reviews, rng) {
		if r.Rating == nil {
			continue
		}
		sum += *r.Rating
		n++
	}
	if n == 0 {
		return 0
	}
	return Round2(sum / float64(n))
}

// DateBounds are the lexicographic min/max over all valid departure dates,
// both nil when no review carries one.
type DateBounds struct {
	MinDate *string `json:"minDate"`
	MaxDate *string `json:"maxDate"`
}

func ReviewsDateRange(reviews []domain.Review) DateBounds {
	var min, max string
	for _, r := range reviews {
		d := departureDate(r)
		if d == "" {
			continue
		}
		if min == "" || d < min {
			min = d
		}
		if max == "" || d > max {
			max = d
		}
	}
	if min == "" {
		return DateBounds{}
	}
	return DateBounds{MinDate: &min, MaxDate: &max}
}

type MonthlyRating struct {
	Month         string  `json:"month"`
	AverageRating float64 `json:"averageRating"`
}

type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthlyAverageRating groups reviews with a valid date and a rating by
// "YYYY-MM" month and averages each bucket, months ascending.
func MonthlyAverageRating(reviews []domain.Review) []MonthlyRating {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range reviews {
		d := departureDate(r)
		if d == "" || r.Rating == nil {
			continue
		}
		m := d[:7]
		sums[m] += *r.Rating
		counts[m]++
	}
	out := make([]MonthlyRating, 0, len(sums))
	for m, s := range sums {
		out = append(out, MonthlyRating{Month: m, AverageRating: Round2(s / float64(counts[m]))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// MonthlyTotalReviewedProperties counts distinct reviewed properties per
// month, months ascending. Reviews without a valid date or property id are
// skipped.
func MonthlyTotalReviewedProperties(reviews []domain.Review) []MonthlyCount {
	byMonth := map[string]map[int]struct{}{}
	for _, r := range reviews {
		d := departureDate(r)
		if d == "" || r.PropertyID == 0 {
			continue
		}
		m := d[:7]
		if byMonth[m] == nil {
			byMonth[m] = map[int]struct{}{}
		}
		byMonth[m][r.PropertyID] = struct{}{}
	}
	out := make([]MonthlyCount, 0, len(byMonth))
	for m, ids := range byMonth {
		out = append(out, MonthlyCount{Month: m, Count: len(ids)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// MonthlyTotalReviews counts reviews with a valid date per month, ascending.
func MonthlyTotalReviews(reviews []domain.Review) []MonthlyCount {
	counts := map[string]int{}
	for _, r := range reviews {
		d := departureDate(r)
		if d == "" {
			continue
		}
		counts[d[:7]]++
	}
	out := make([]MonthlyCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, MonthlyCount{Month: m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Performance splits the catalog by mean rating: strictly above 5 is high
// value, everything else (zero-review properties included, at rating exactly
// 0) needs attention. Entries carry all original property fields plus
// averageRating.
type Performance struct {
	HighValue     []domain.Property `json:"highValue"`
	NeedAttention []domain.Property `json:"needAttention"`
}

func PropertyPerformance(properties []domain.Property, reviews []domain.Review) Performance {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, r := range reviews {
		if r.Rating == nil {
			continue
		}
		sums[r.PropertyID] += *r.Rating
		counts[r.PropertyID]++
	}
	perf := Performance{HighValue: []domain.Property{}, NeedAttention: []domain.Property{}}
	for _, p := range properties {
		id := p.ID()
		avg := 0.0
		// a falsy id never matches reviews, even ones with propertyId 0
		if id != 0 && counts[id] > 0 {
			avg = Round2(sums[id] / float64(counts[id]))
		}
		entry := p.Clone()
		entry["averageRating"] = avg
		if avg > 5 {
			perf.HighValue = append(perf.HighValue, entry)
		} else {
			perf.NeedAttention = append(perf.NeedAttention, entry)
		}
	}
	avgOf := func(p domain.Property) float64 {
		v, _ := p["averageRating"].(float64)
		return v
	}
	sort.SliceStable(perf.HighValue, func(i, j int) bool {
		return avgOf(perf.HighValue[i]) > avgOf(perf.HighValue[j])
	})
	sort.SliceStable(perf.NeedAttention, func(i, j int) bool {
		return avgOf(perf.NeedAttention[i]) < avgOf(perf.NeedAttention[j])
	})
	return perf
}

// PropertyMonthlyRating is MonthlyAverageRating restricted to one property.
func PropertyMonthlyRating(reviews []domain.Review, propertyID int) []MonthlyRating {
	matched := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.PropertyID == propertyID {
			matched = append(matched, r)
		}
	}
	return MonthlyAverageRating(matched)
}

// NextReviewID returns max(existing ids, default 0) + 1.
func NextReviewID(reviews []domain.Review) int {
	maxID := 0
	for _, r := range reviews {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

// Package jsonfile backs the property and review repositories with two flat
// JSON files. Every call loads a whole file; writes replace the whole file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/domain"
)

// Store serializes review read-modify-write cycles behind a single mutex and
// writes through a temp file plus rename, so readers never observe a torn
// file and concurrent writers never lose updates. That serialization is this
// store's responsibility alone: the services above it do not coordinate.
type Store struct {
	propertiesPath string
	reviewsPath    string

	mu sync.Mutex // guards the reviews file's load-mutate-save cycle
}

func New(propertiesPath, reviewsPath string) *Store {
	return &Store{propertiesPath: propertiesPath, reviewsPath: reviewsPath}
}

func (s *Store) ListProperties(ctx context.Context) ([]domain.Property, error) {
	var out []domain.Property
	if err := readJSON(s.propertiesPath, &out); err != nil {
		return nil, err
	}
	observability.ObserveStore("properties", "load")
	return out, nil
}

func (s *Store) ListReviews(ctx context.Context) ([]domain.Review, error) {
	raw, err := loadRawReviews(s.reviewsPath)
	if err != nil {
		return nil, err
	}
	observability.ObserveStore("reviews", "load")
	return decodeReviews(raw), nil
}

func (s *Store) MutateReviews(ctx context.Context, fn func([]domain.Review) ([]domain.Review, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := loadRawReviews(s.reviewsPath)
	if err != nil {
		return err
	}
	out, err := fn(decodeReviews(raw))
	if err != nil {
		return err
	}
	if err := writeJSON(s.reviewsPath, out); err != nil {
		return err
	}
	observability.ObserveStore("reviews", "write")
	return nil
}

// Init creates empty collection files where none exist yet. Meant for first
// runs of the importer; the serving path reports absence as not-found instead.
func (s *Store) Init(ctx context.Context) error {
	for _, p := range []string{s.propertiesPath, s.reviewsPath} {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			if err := writeJSON(p, []any{}); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadRawReviews(path string) ([]map[string]any, error) {
	var raw []map[string]any
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// decodeReviews converts raw records field by field. A missing or mistyped
// field degrades to its zero/absent form instead of failing the whole load,
// so one malformed record never aborts an aggregate.
func decodeReviews(raw []map[string]any) []domain.Review {
	out := make([]domain.Review, 0, len(raw))
	for _, m := range raw {
		out = append(out, decodeReview(m))
	}
	return out
}

func decodeReview(m map[string]any) domain.Review {
	r := domain.Review{
		ID:                    asInt(m["id"]),
		PropertyID:            asInt(m["propertyId"]),
		GuestName:             asString(m["guestName"]),
		PublicReview:          asString(m["publicReview"]),
		Rating:                asFloatPtr(m["rating"]),
		ReviewCategory:        asStringSlice(m["reviewCategory"]),
		DepartureDate:         asString(m["departureDate"]),
		Approved:              asBoolPtr(m["approved"]),
		AccountID:             asInt(m["accountId"]),
		ListingMapID:          asInt(m["listingMapId"]),
		ChannelID:             asInt(m["channelId"]),
		Type:                  asString(m["type"]),
		Status:                asString(m["status"]),
		IsCancelled:           asInt(m["isCancelled"]),
		ExternalReviewID:      asString(m["externalReviewId"]),
		ExternalReservationID: asString(m["externalReservationId"]),
	}
	if r.ReviewCategory == nil {
		r.ReviewCategory = []string{}
	}
	return r
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloatPtr(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

func asBoolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

package app

import (
	"math"
	"strconv"
	"strings"
)

/********** alias registries (single source of truth) **********/

var channelReviewAliases = map[string][]string{
	"property":   {"propertyId", "property_id", "listingId", "listing_id", "listingMapId"},
	"guest":      {"guestName", "guest_name", "guest.name", "reviewerName", "author"},
	"text":       {"publicReview", "public_review", "review", "comment", "text"},
	"rating":     {"rating", "overallRating", "score", "rating.value"},
	"departure":  {"departureDate", "departure_date", "checkOutDate", "check_out_date", "checkoutDate"},
	"externalId": {"externalReviewId", "external_review_id", "id", "reviewId"},
	"type":       {"type", "reviewType"},
	"status":     {"status", "state"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) string {
	for _, p := range channelReviewAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// getCategories handles the channel's two category shapes: a plain string
// list, or a list of {category, rating} objects.
func getCategories(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		items, ok := lookupAny(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			switch v := it.(type) {
			case string:
				out = append(out, v)
			case map[string]any:
				if s, ok := v["category"].(string); ok {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// MapChannelReview normalizes one raw channel payload into creation input.
// Fields it cannot find stay unset and are caught by creation validation.
func MapChannelReview(m map[string]any) CreateReviewInput {
	in := CreateReviewInput{
		DepartureDate:    firstNonEmptyAlias(m, "departure"),
		Type:             firstNonEmptyAlias(m, "type"),
		Status:           firstNonEmptyAlias(m, "status"),
		ExternalReviewID: firstNonEmptyAlias(m, "externalId"),
		ReviewCategory:   getCategories(m, "reviewCategory", "categories"),
	}
	if f := getFloatFlexible(m, channelReviewAliases["property"]...); f != nil {
		id := int(*f)
		in.PropertyID = &id
	}
	if s := firstNonEmptyAlias(m, "guest"); s != "" {
		in.GuestName = &s
	}
	if s := firstNonEmptyAlias(m, "text"); s != "" {
		in.PublicReview = &s
	}
	if f := getFloatFlexible(m, channelReviewAliases["rating"]...); f != nil {
		r := int(math.Round(*f))
		in.Rating = &r
	}
	// numeric external ids come through as float64
	if in.ExternalReviewID == "" {
		if f := getFloatFlexible(m, "id"); f != nil {
			in.ExternalReviewID = strconv.Itoa(int(*f))
		}
	}
	return in
}

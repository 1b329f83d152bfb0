package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	httpserver "flex_reviews/internal/adapters/http_server"
	redisad "flex_reviews/internal/adapters/redis"
	"flex_reviews/internal/app"
	"flex_reviews/internal/storage/jsonfile"
)

const propertiesFixture = `[
	{"id": 1, "name": "Shoreditch Loft"},
	{"id": 2, "name": "Camden Flat"}
]`

const reviewsFixture = `[
	{"id": 1, "propertyId": 1, "guestName": "Ana", "publicReview": "Spotless.", "rating": 9,
	 "reviewCategory": ["cleanliness"], "departureDate": "2024-01-10 11:00:00"},
	{"id": 2, "propertyId": 1, "guestName": "Bo", "publicReview": "Great location.", "rating": 7,
	 "reviewCategory": ["location", "cleanliness"], "departureDate": "2024-01-20"},
	{"id": 3, "propertyId": 2, "guestName": "", "publicReview": "anonymous", "rating": 2,
	 "reviewCategory": [], "departureDate": "2024-02-01"}
]`

func newTestServer(t *testing.T, withFiles bool) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	props := filepath.Join(dir, "properties.json")
	reviews := filepath.Join(dir, "reviews.json")
	if withFiles {
		if err := os.WriteFile(props, []byte(propertiesFixture), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(reviews, []byte(reviewsFixture), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	store := jsonfile.New(props, reviews)
	q := app.NewQueryService(store, store, cache, time.Minute)
	rsvc := app.NewReviewService(store, cache)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Q: q, R: rsvc})

	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, reviews
}

func getJSON(t *testing.T, url string, dst any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, true)
	resp := getJSON(t, ts.URL+"/healthz", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("healthz status: %d", resp.StatusCode)
	}
}

func TestListPublicReviews(t *testing.T) {
	ts, _ := newTestServer(t, true)

	var out []map[string]any
	resp := getJSON(t, ts.URL+"/api/reviews", &out)
	if resp.StatusCode != 200 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if len(out) != 2 {
		t.Fatalf("the anonymous review must be hidden: %+v", out)
	}

	out = nil
	getJSON(t, ts.URL+"/api/reviews?propertyId=1", &out)
	if len(out) != 2 {
		t.Fatalf("propertyId filter: %+v", out)
	}

	out = nil
	getJSON(t, ts.URL+"/api/reviews?propertyIds=2,99", &out)
	if len(out) != 0 {
		t.Fatalf("property 2 has no displayable reviews: %+v", out)
	}
}

func TestSummaryWithDateRange(t *testing.T) {
	ts, _ := newTestServer(t, true)

	var sum app.Summary
	getJSON(t, ts.URL+"/api/stats/summary", &sum)
	if sum.TotalProperties != 2 || sum.TotalReviews != 3 || sum.TotalReviewedProperties != 2 {
		t.Fatalf("unfiltered summary: %+v", sum)
	}
	if sum.AverageRating != 6 { // (9+7+2)/3
		t.Fatalf("averageRating: %v", sum.AverageRating)
	}

	getJSON(t, ts.URL+"/api/stats/summary?startDate=2024-01-01&endDate=2024-01-31", &sum)
	if sum.TotalReviews != 2 || sum.AverageRating != 8 {
		t.Fatalf("january summary: %+v", sum)
	}

	resp := getJSON(t, ts.URL+"/api/stats/summary?startDate=Jan-1", nil)
	if resp.StatusCode != 400 {
		t.Fatalf("bad bound must 400, got %d", resp.StatusCode)
	}
}

func TestCategoryCountsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, true)

	var out []map[string]any
	getJSON(t, ts.URL+"/api/reviews/categories", &out)
	if len(out) != 9 {
		t.Fatalf("want full vocabulary, got %d", len(out))
	}
	if out[0]["category"] != "cleanliness" || out[0]["count"] != 2.0 {
		t.Fatalf("top category: %+v", out[0])
	}
}

func TestMonthlyRollupEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, true)

	var ratings []map[string]any
	getJSON(t, ts.URL+"/api/stats/monthly/average-rating", &ratings)
	if len(ratings) != 2 || ratings[0]["month"] != "2024-01" || ratings[0]["averageRating"] != 8.0 {
		t.Fatalf("monthly ratings: %+v", ratings)
	}

	var counts []map[string]any
	getJSON(t, ts.URL+"/api/stats/monthly/total-reviews", &counts)
	if len(counts) != 2 || counts[0]["count"] != 2.0 {
		t.Fatalf("monthly totals: %+v", counts)
	}

	counts = nil
	getJSON(t, ts.URL+"/api/stats/monthly/reviewed-properties", &counts)
	if len(counts) != 2 || counts[0]["count"] != 1.0 {
		t.Fatalf("monthly properties: %+v", counts)
	}
}

func TestPropertyEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, true)

	var perf struct {
		HighValue     []map[string]any `json:"highValue"`
		NeedAttention []map[string]any `json:"needAttention"`
	}
	getJSON(t, ts.URL+"/api/properties/performance", &perf)
	if len(perf.HighValue) != 1 || perf.HighValue[0]["name"] != "Shoreditch Loft" {
		t.Fatalf("highValue: %+v", perf.HighValue)
	}
	if len(perf.NeedAttention) != 1 || perf.NeedAttention[0]["averageRating"] != 2.0 {
		t.Fatalf("needAttention: %+v", perf.NeedAttention)
	}

	var monthly []map[string]any
	getJSON(t, ts.URL+"/api/properties/1/monthly-rating", &monthly)
	if len(monthly) != 1 || monthly[0]["averageRating"] != 8.0 {
		t.Fatalf("property monthly rating: %+v", monthly)
	}
}

func TestCreateAndModerateReview(t *testing.T) {
	ts, _ := newTestServer(t, true)

	body := `{"propertyId": 2, "guestName": "Cy", "publicReview": "Cozy.", "rating": 5,
		"reviewCategory": ["value"], "departureDate": "2024-03-03"}`
	resp, err := http.Post(ts.URL+"/api/reviews", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	var created map[string]int
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created["id"] != 4 {
		t.Fatalf("want id 4 (max+1), got %+v", created)
	}

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/reviews/4/approval", strings.NewReader(`{"approved": true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("approval status: %d", resp.StatusCode)
	}
	var out app.ApprovalResult
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if out.ID != 4 || !out.Approved {
		t.Fatalf("approval result: %+v", out)
	}
}

func TestCreateReview_RejectsBadInput(t *testing.T) {
	ts, _ := newTestServer(t, true)

	cases := []string{
		`{"propertyId": 2, "guestName": "Cy", "publicReview": "x", "rating": 11, "reviewCategory": ["value"]}`,
		`{"propertyId": 2, "guestName": "Cy", "publicReview": "x", "rating": 5, "reviewCategory": "value"}`,
		`{"guestName": "Cy", "publicReview": "x", "rating": 5, "reviewCategory": ["value"]}`,
	}
	for _, body := range cases {
		resp, err := http.Post(ts.URL+"/api/reviews", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("want 400 for %s, got %d", body, resp.StatusCode)
		}
	}
}

func TestApproval_UnknownReviewIs404(t *testing.T) {
	ts, _ := newTestServer(t, true)

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/reviews/999/approval", strings.NewReader(`{"approved": false}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}

func TestMissingCollectionsAre404(t *testing.T) {
	ts, _ := newTestServer(t, false)

	for _, path := range []string{"/api/reviews", "/api/stats/summary", "/api/properties/performance"} {
		resp := getJSON(t, ts.URL+path, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("want 404 for %s, got %d", path, resp.StatusCode)
		}
	}
}

func TestETagShortCircuits(t *testing.T) {
	ts, _ := newTestServer(t, true)

	resp := getJSON(t, ts.URL+"/api/reviews/date-range", nil)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/reviews/date-range", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("want 304, got %d", resp2.StatusCode)
	}
}

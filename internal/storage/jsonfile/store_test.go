package jsonfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"flex_reviews/internal/domain"
	"flex_reviews/internal/storage/jsonfile"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestListProperties_MissingFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	st := jsonfile.New(filepath.Join(dir, "absent.json"), filepath.Join(dir, "reviews.json"))

	_, err := st.ListProperties(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	_, err = st.ListReviews(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListProperties_PassThroughFields(t *testing.T) {
	dir := t.TempDir()
	props := writeFile(t, dir, "properties.json",
		`[{"id": 7, "name": "Loft", "bedrooms": 2, "custom": {"wifi": true}}]`)
	st := jsonfile.New(props, filepath.Join(dir, "reviews.json"))

	ps, err := st.ListProperties(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(ps) != 1 || ps[0].ID() != 7 {
		t.Fatalf("unexpected catalog: %+v", ps)
	}
	if ps[0]["name"] != "Loft" {
		t.Fatalf("expected pass-through name, got %+v", ps[0])
	}
}

func TestListReviews_MalformedFieldsDegrade(t *testing.T) {
	dir := t.TempDir()
	reviews := writeFile(t, dir, "reviews.json", `[
		{"id": 1, "propertyId": 5, "guestName": "Ana", "publicReview": "ok", "rating": 8, "reviewCategory": ["cleanliness"]},
		{"id": 2, "propertyId": "oops", "guestName": 42, "rating": "great", "reviewCategory": "cleanliness"}
	]`)
	st := jsonfile.New(filepath.Join(dir, "properties.json"), reviews)

	rs, err := st.ListReviews(context.Background())
	if err != nil {
		t.Fatalf("a malformed record must not fail the load: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("want both records, got %d", len(rs))
	}
	if rs[0].Rating == nil || *rs[0].Rating != 8 {
		t.Fatalf("good record mangled: %+v", rs[0])
	}
	bad := rs[1]
	if bad.PropertyID != 0 || bad.GuestName != "" || bad.Rating != nil {
		t.Fatalf("mistyped fields should degrade to defaults: %+v", bad)
	}
	if bad.ReviewCategory == nil || len(bad.ReviewCategory) != 0 {
		t.Fatalf("scalar category must decode to an empty sequence: %+v", bad.ReviewCategory)
	}
}

func TestMutateReviews_PersistsAppend(t *testing.T) {
	dir := t.TempDir()
	reviews := writeFile(t, dir, "reviews.json",
		`[{"id": 1, "guestName": "Ana", "publicReview": "ok", "reviewCategory": []}]`)
	st := jsonfile.New(filepath.Join(dir, "properties.json"), reviews)
	ctx := context.Background()

	err := st.MutateReviews(ctx, func(rs []domain.Review) ([]domain.Review, error) {
		rs = append(rs, domain.Review{ID: 2, GuestName: "Bo", PublicReview: "nice", ReviewCategory: []string{}})
		return rs, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	rs, err := st.ListReviews(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(rs) != 2 || rs[1].ID != 2 || rs[1].GuestName != "Bo" {
		t.Fatalf("append not persisted: %+v", rs)
	}
}

func TestMutateReviews_FnErrorLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	reviews := writeFile(t, dir, "reviews.json",
		`[{"id": 1, "guestName": "Ana", "publicReview": "ok", "reviewCategory": []}]`)
	st := jsonfile.New(filepath.Join(dir, "properties.json"), reviews)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.MutateReviews(ctx, func(rs []domain.Review) ([]domain.Review, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want fn error surfaced, got %v", err)
	}

	rs, err := st.ListReviews(ctx)
	if err != nil || len(rs) != 1 {
		t.Fatalf("collection changed on aborted mutate: %v %+v", err, rs)
	}
}

func TestInit_CreatesEmptyCollections(t *testing.T) {
	dir := t.TempDir()
	st := jsonfile.New(filepath.Join(dir, "properties.json"), filepath.Join(dir, "reviews.json"))
	ctx := context.Background()

	if err := st.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	ps, err := st.ListProperties(ctx)
	if err != nil || len(ps) != 0 {
		t.Fatalf("want empty catalog, got %v %+v", err, ps)
	}
	rs, err := st.ListReviews(ctx)
	if err != nil || len(rs) != 0 {
		t.Fatalf("want empty reviews, got %v %+v", err, rs)
	}
}

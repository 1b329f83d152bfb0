package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"flex_reviews/internal/analytics"
	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	R *app.ReviewService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/reviews", h.listPublicReviews)
		r.Post("/reviews", h.createReview)
		r.Patch("/reviews/{id}/approval", h.setReviewApproval)
		r.Get("/reviews/categories", h.categoryCounts)
		r.Get("/reviews/date-range", h.reviewsDateRange)
		r.Get("/stats/summary", h.summary)
		r.Get("/stats/monthly/average-rating", h.monthlyAverageRating)
		r.Get("/stats/monthly/total-reviews", h.monthlyTotalReviews)
		r.Get("/stats/monthly/reviewed-properties", h.monthlyReviewedProperties)
		r.Get("/properties/performance", h.propertyPerformance)
		r.Get("/properties/{id}/monthly-rating", h.propertyMonthlyRating)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusBadRequest, "Validation Error", verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeResult sends v as JSON with a weak ETag, honoring If-None-Match.
func writeResult(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// dateRangeQuery parses optional startDate/endDate query parameters.
func dateRangeQuery(r *http.Request) (analytics.DateRange, error) {
	rng := analytics.DateRange{
		Start: r.URL.Query().Get("startDate"),
		End:   r.URL.Query().Get("endDate"),
	}
	for _, bound := range []string{rng.Start, rng.End} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", bound); err != nil {
			return analytics.DateRange{}, domain.NewValidationError("date range", "bounds must be YYYY-MM-DD")
		}
	}
	return rng, nil
}

func (h *Handlers) listPublicReviews(w http.ResponseWriter, r *http.Request) {
	var f analytics.ReviewFilter
	if s := r.URL.Query().Get("propertyId"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Validation Error", "propertyId must be an integer")
			return
		}
		f.PropertyID = &id
	}
	if s := r.URL.Query().Get("propertyIds"); s != "" {
		for _, part := range strings.Split(s, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Validation Error", "propertyIds must be comma-separated integers")
				return
			}
			f.PropertyIDs = append(f.PropertyIDs, id)
		}
	}
	out, err := h.Q.PublicReviews(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	var in app.CreateReviewInput
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&in); err != nil {
		// wrong-typed fields (scalar categories, fractional rating) land here
		writeProblem(w, http.StatusBadRequest, "Validation Error", "malformed review body")
		return
	}
	id, err := h.R.CreateReview(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]int{"id": id})
}

func (h *Handlers) setReviewApproval(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Validation Error", "id must be an integer")
		return
	}
	var body struct {
		Approved *bool `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Approved == nil {
		writeProblem(w, http.StatusBadRequest, "Validation Error", "approved must be a boolean")
		return
	}
	out, err := h.R.SetReviewApproval(r.Context(), id, *body.Approved)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

func (h *Handlers) categoryCounts(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.CategoryCounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

func (h *Handlers) reviewsDateRange(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ReviewsDateRange(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	rng, err := dateRangeQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Q.Summary(r.Context(), rng)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

func (h *Handlers) monthlyAverageRating(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.MonthlyAverageRating(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

func (h *Handlers) monthlyTotalReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.MonthlyTotalReviews(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

func (h *Handlers) monthlyReviewedProperties(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.MonthlyTotalReviewedProperties(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

func (h *Handlers) propertyPerformance(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.PropertyPerformance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

func (h *Handlers) propertyMonthlyRating(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Validation Error", "id must be an integer")
		return
	}
	out, err := h.Q.PropertyMonthlyRating(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, r, out)
}

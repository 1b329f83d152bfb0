package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"flex_reviews/internal/analytics"
	"flex_reviews/internal/domain"
)

// ReviewService owns the two mutating operations. Both run their whole
// read-modify-write cycle inside the repository's MutateReviews, so the
// store's locking keeps concurrent writers from losing updates.
type ReviewService struct {
	reviews  domain.ReviewRepository
	cache    domain.Cache
	validate *validator.Validate
}

func NewReviewService(r domain.ReviewRepository, c domain.Cache) *ReviewService {
	return &ReviewService{reviews: r, cache: c, validate: validator.New()}
}

// CreateReviewInput carries caller-supplied fields for a new review. Required
// fields are pointers so "absent" and "zero" stay distinguishable; optional
// channel fields fall back to defaults when unset.
type CreateReviewInput struct {
	PropertyID     *int     `json:"propertyId" validate:"required"`
	GuestName      *string  `json:"guestName" validate:"required"`
	PublicReview   *string  `json:"publicReview" validate:"required"`
	Rating         *int     `json:"rating" validate:"required,min=1,max=10"`
	ReviewCategory []string `json:"reviewCategory" validate:"required"`
	DepartureDate  string   `json:"departureDate"`

	AccountID             *int   `json:"accountId"`
	ListingMapID          *int   `json:"listingMapId"`
	ChannelID             *int   `json:"channelId"`
	Type                  string `json:"type"`
	Status                string `json:"status"`
	IsCancelled           *int   `json:"isCancelled"`
	ExternalReviewID      string `json:"externalReviewId"`
	ExternalReservationID string `json:"externalReservationId"`
}

// ApprovalResult echoes the moderated review's id and new flag.
type ApprovalResult struct {
	ID       int  `json:"id"`
	Approved bool `json:"approved"`
}

// CreateReview validates the input, assigns id = max(existing)+1, fills
// channel defaults, appends, and returns the new id. Any validation failure
// leaves the collection untouched.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (int, error) {
	if err := s.validateInput(in); err != nil {
		return 0, err
	}

	var id int
	err := s.reviews.MutateReviews(ctx, func(rs []domain.Review) ([]domain.Review, error) {
		id = analytics.NextReviewID(rs)
		return append(rs, s.buildReview(id, in)), nil
	})
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	log.Info().Int("id", id).Int("propertyId", *in.PropertyID).Msg("review created")
	return id, nil
}

// SetReviewApproval flips the approved flag on the first review matching the
// id. ids are unique by construction; the first-match rule only matters if
// that invariant were ever broken.
func (s *ReviewService) SetReviewApproval(ctx context.Context, reviewID int, approved bool) (ApprovalResult, error) {
	err := s.reviews.MutateReviews(ctx, func(rs []domain.Review) ([]domain.Review, error) {
		for i := range rs {
			if rs[i].ID == reviewID {
				a := approved
				rs[i].Approved = &a
				return rs, nil
			}
		}
		return nil, domain.ErrNotFound
	})
	if err != nil {
		return ApprovalResult{}, err
	}
	s.invalidate(ctx)
	log.Info().Int("id", reviewID).Bool("approved", approved).Msg("review approval set")
	return ApprovalResult{ID: reviewID, Approved: approved}, nil
}

func (s *ReviewService) validateInput(in CreateReviewInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return domain.NewValidationError(jsonName(f.Field()), validationReason(f))
		}
		return domain.NewValidationError("body", err.Error())
	}
	if strings.TrimSpace(*in.GuestName) == "" {
		return domain.NewValidationError("guestName", "must not be blank")
	}
	if strings.TrimSpace(*in.PublicReview) == "" {
		return domain.NewValidationError("publicReview", "must not be blank")
	}
	return nil
}

func (s *ReviewService) buildReview(id int, in CreateReviewInput) domain.Review {
	rating := float64(*in.Rating)
	return domain.Review{
		ID:                    id,
		PropertyID:            *in.PropertyID,
		GuestName:             *in.GuestName,
		PublicReview:          *in.PublicReview,
		Rating:                &rating,
		ReviewCategory:        in.ReviewCategory,
		DepartureDate:         in.DepartureDate,
		AccountID:             intOr(in.AccountID, 1),
		ListingMapID:          intOr(in.ListingMapID, 1),
		ChannelID:             intOr(in.ChannelID, 2005),
		Type:                  strOr(in.Type, "guest-to-host"),
		Status:                strOr(in.Status, "completed"),
		IsCancelled:           intOr(in.IsCancelled, 0),
		ExternalReviewID:      strOr(in.ExternalReviewID, fmt.Sprintf("EXT-%d", id)),
		ExternalReservationID: strOr(in.ExternalReservationID, fmt.Sprintf("RES-%d", id)),
	}
}

// invalidate drops the fixed-key aggregate caches after a write.
func (s *ReviewService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, k := range analyticsKeys {
		_ = s.cache.Del(ctx, k)
	}
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func strOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// jsonName maps a struct field name from validator output to its wire name.
func jsonName(field string) string {
	switch field {
	case "PropertyID":
		return "propertyId"
	case "GuestName":
		return "guestName"
	case "PublicReview":
		return "publicReview"
	case "Rating":
		return "rating"
	case "ReviewCategory":
		return "reviewCategory"
	}
	return field
}

func validationReason(f validator.FieldError) string {
	switch f.Tag() {
	case "required":
		return "is required"
	case "min", "max":
		return "must be between 1 and 10"
	}
	return "is invalid"
}

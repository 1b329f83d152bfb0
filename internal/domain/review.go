package domain

// Categories is the fixed review-category vocabulary, in declared order.
// Tags outside it are preserved in storage but ignored by category counting.
var Categories = []string{
	"amenities",
	"check-in",
	"cleanliness",
	"communication",
	"environment",
	"living",
	"location",
	"service",
	"value",
}

type Review struct {
	ID             int      `json:"id"`
	PropertyID     int      `json:"propertyId"`
	GuestName      string   `json:"guestName"`
	PublicReview   string   `json:"publicReview"`
	Rating         *float64 `json:"rating"`
	ReviewCategory []string `json:"reviewCategory"`
	DepartureDate  string   `json:"departureDate,omitempty"`
	Approved       *bool    `json:"approved,omitempty"`

	// Channel bookkeeping, opaque to all aggregation logic.
	AccountID             int    `json:"accountId"`
	ListingMapID          int    `json:"listingMapId"`
	ChannelID             int    `json:"channelId"`
	Type                  string `json:"type"`
	Status                string `json:"status"`
	IsCancelled           int    `json:"isCancelled"`
	ExternalReviewID      string `json:"externalReviewId"`
	ExternalReservationID string `json:"externalReservationId"`
}

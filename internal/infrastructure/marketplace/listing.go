package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type listingResponse struct {
	ListingID       int64      `json:"listingId"`
	OwnerUserID     int64      `json:"ownerUserId"`
	CardID          int64      `json:"cardId"`
	ConditionRating int        `json:"conditionRating"`
	ListingStatus   string     `json:"listingStatus"`
	CreatedAt       remoteTime `json:"createdAt"`
}

type listingClient struct {
	*client
}

// NewListingClient returns the accessor for the listing service reachable
// at the given base url.
func NewListingClient(
	baseURL string, timeout time.Duration,
) (ports.ListingService, error) {
	c, err := newClient("listing-service", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &listingClient{c}, nil
}

func (c *listingClient) GetListing(
	ctx context.Context, id int64,
) (*ports.Listing, error) {
	var resp listingResponse
	if err := c.getJSON(
		ctx, fmt.Sprintf("/api/listings/%d", id), ports.ErrListingNotFound, &resp,
	); err != nil {
		return nil, err
	}

	return &ports.Listing{
		ID:              resp.ListingID,
		OwnerUserID:     resp.OwnerUserID,
		CardID:          resp.CardID,
		ConditionRating: resp.ConditionRating,
		Status:          ports.ListingStatus(strings.ToLower(resp.ListingStatus)),
		CreatedAt:       resp.CreatedAt.Time,
	}, nil
}

func (c *listingClient) MarkListingCompleted(ctx context.Context, id int64) error {
	resp, err := c.do(
		ctx, http.MethodPut, fmt.Sprintf("/api/listings/%d/complete", id),
	)
	if err != nil {
		return err
	}
	if resp.status == http.StatusNotFound {
		return ports.ErrListingNotFound
	}
	return nil
}

package httpinterface

import (
	"time"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

type tradeRequest struct {
	ListingID        int64   `json:"listingId"`
	RequestingUserID int64   `json:"requestingUserId"`
	OfferedCardIDs   []int64 `json:"offeredCardIds"`
}

type tradeResponse struct {
	TradeID            int64     `json:"tradeId"`
	ListingID          int64     `json:"listingId"`
	RequestingUserID   int64     `json:"requestingUserId"`
	ListingOwnerUserID int64     `json:"listingOwnerUserId"`
	TradeStatus        string    `json:"tradeStatus"`
	CreatedAt          time.Time `json:"createdAt"`
	OfferedCardIDs     []int64   `json:"offeredCardIds"`
}

type errorResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

func newTradeResponse(trade domain.Trade) tradeResponse {
	return tradeResponse{
		TradeID:            trade.ID,
		ListingID:          trade.ListingID,
		RequestingUserID:   trade.RequestingUserID,
		ListingOwnerUserID: trade.ListingOwnerUserID,
		TradeStatus:        trade.Status.String(),
		CreatedAt:          trade.CreatedAt,
		OfferedCardIDs:     trade.OfferedCardIDs(),
	}
}

type tradeList []domain.Trade

func (l tradeList) toResponse() []tradeResponse {
	res := make([]tradeResponse, 0, len(l))
	for _, t := range l {
		res = append(res, newTradeResponse(t))
	}
	return res
}

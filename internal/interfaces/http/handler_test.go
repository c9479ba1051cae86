package httpinterface_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application/pubsub"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application/trade"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
	"github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/251027-Java/P3-Group2/trade-service/internal/interfaces/http"
)

type tradeJSON struct {
	TradeID            int64   `json:"tradeId"`
	ListingID          int64   `json:"listingId"`
	RequestingUserID   int64   `json:"requestingUserId"`
	ListingOwnerUserID int64   `json:"listingOwnerUserId"`
	TradeStatus        string  `json:"tradeStatus"`
	CreatedAt          string  `json:"createdAt"`
	OfferedCardIDs     []int64 `json:"offeredCardIds"`
}

type errorJSON struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

func TestTradeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("create", func(t *testing.T) {
		resp, body := doRequest(t, srv, http.MethodPost, "/api/trades", map[string]interface{}{
			"listingId":        1,
			"requestingUserId": 2,
			"offeredCardIds":   []int64{10, 20},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var tr tradeJSON
		require.NoError(t, json.Unmarshal(body, &tr))
		require.NotZero(t, tr.TradeID)
		require.Equal(t, "pending", tr.TradeStatus)
		require.Equal(t, []int64{10, 20}, tr.OfferedCardIDs)
		require.Equal(t, int64(1), tr.ListingOwnerUserID)
		require.NotEmpty(t, tr.CreatedAt)
		require.Equal(t, fmt.Sprintf("/api/trades/%d", tr.TradeID), resp.Header.Get("Location"))
	})

	t.Run("create_competitor", func(t *testing.T) {
		resp, _ := doRequest(t, srv, http.MethodPost, "/api/trades", map[string]interface{}{
			"listingId":        1,
			"requestingUserId": 3,
			"offeredCardIds":   []int64{30},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("get", func(t *testing.T) {
		resp, body := doRequest(t, srv, http.MethodGet, "/api/trades/1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tr tradeJSON
		require.NoError(t, json.Unmarshal(body, &tr))
		require.Equal(t, int64(1), tr.TradeID)
	})

	t.Run("list", func(t *testing.T) {
		for _, path := range []string{"/api/trades", "/api/trades/listing/1"} {
			resp, body := doRequest(t, srv, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var trades []tradeJSON
			require.NoError(t, json.Unmarshal(body, &trades))
			require.Len(t, trades, 2)
		}

		resp, body := doRequest(t, srv, http.MethodGet, "/api/trades/user/3", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var trades []tradeJSON
		require.NoError(t, json.Unmarshal(body, &trades))
		require.Len(t, trades, 1)
		require.Equal(t, []int64{30}, trades[0].OfferedCardIDs)

		resp, body = doRequest(t, srv, http.MethodGet, "/api/trades/user/999", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `[]`, string(body))
	})

	t.Run("accept", func(t *testing.T) {
		resp, body := doRequest(
			t, srv, http.MethodPut, "/api/trades/1/accept?listingOwnerId=1", nil,
		)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tr tradeJSON
		require.NoError(t, json.Unmarshal(body, &tr))
		require.Equal(t, "accepted", tr.TradeStatus)

		resp, body = doRequest(t, srv, http.MethodGet, "/api/trades/2", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(body, &tr))
		require.Equal(t, "rejected", tr.TradeStatus)
	})

	t.Run("accept_again", func(t *testing.T) {
		resp, body := doRequest(
			t, srv, http.MethodPut, "/api/trades/1/accept?listingOwnerId=1", nil,
		)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var e errorJSON
		require.NoError(t, json.Unmarshal(body, &e))
		require.Equal(t, http.StatusBadRequest, e.Status)
		require.Equal(t, "Only pending trades can be accepted", e.Message)
		require.Equal(t, "/api/trades/1/accept", e.Path)
		require.NotEmpty(t, e.Timestamp)
	})

	t.Run("list_by_status", func(t *testing.T) {
		tests := []struct {
			path        string
			expectedIDs []int64
		}{
			{"/api/trades?status=accepted", []int64{1}},
			{"/api/trades/listing/1?status=rejected", []int64{2}},
			{"/api/trades/user/3?status=pending", []int64{}},
		}
		for _, tt := range tests {
			resp, body := doRequest(t, srv, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var trades []tradeJSON
			require.NoError(t, json.Unmarshal(body, &trades))
			ids := make([]int64, 0, len(trades))
			for _, tr := range trades {
				ids = append(ids, tr.TradeID)
			}
			require.Equal(t, tt.expectedIDs, ids)
		}

		resp, body := doRequest(t, srv, http.MethodGet, "/api/trades?status=open", nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var e errorJSON
		require.NoError(t, json.Unmarshal(body, &e))
		require.Equal(t, "Invalid value for status: open", e.Message)
	})
}

func TestTradeEndpointErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodPost, "/api/trades", map[string]interface{}{
		"listingId":        1,
		"requestingUserId": 2,
		"offeredCardIds":   []int64{10},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		rawBody        string
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "trade_not_found",
			method:         http.MethodGet,
			path:           "/api/trades/999",
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Trade not found: 999",
		},
		{
			name:           "non_numeric_trade_id",
			method:         http.MethodGet,
			path:           "/api/trades/abc",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed_body",
			method:         http.MethodPost,
			path:           "/api/trades",
			rawBody:        `{"listingId":`,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid request body",
		},
		{
			name:   "own_listing",
			method: http.MethodPost,
			path:   "/api/trades",
			body: map[string]interface{}{
				"listingId":        1,
				"requestingUserId": 1,
				"offeredCardIds":   []int64{10},
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Cannot create trade request for your own listing",
		},
		{
			name:   "listing_not_found",
			method: http.MethodPost,
			path:   "/api/trades",
			body: map[string]interface{}{
				"listingId":        5,
				"requestingUserId": 2,
				"offeredCardIds":   []int64{10},
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Listing not found: 5",
		},
		{
			name:   "no_offered_cards",
			method: http.MethodPost,
			path:   "/api/trades",
			body: map[string]interface{}{
				"listingId":        1,
				"requestingUserId": 3,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_listing_owner",
			method:         http.MethodPut,
			path:           "/api/trades/1/decline",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not_the_owner",
			method:         http.MethodPut,
			path:           "/api/trades/1/decline?listingOwnerId=999",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Only the listing owner can decline trade requests",
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			var body []byte
			if tt.rawBody != "" {
				resp, body = doRawRequest(t, srv, tt.method, tt.path, []byte(tt.rawBody))
			} else {
				resp, body = doRequest(t, srv, tt.method, tt.path, tt.body)
			}
			require.Equal(t, tt.expectedStatus, resp.StatusCode)

			var e errorJSON
			require.NoError(t, json.Unmarshal(body, &e))
			require.Equal(t, tt.expectedStatus, e.Status)
			require.NotEmpty(t, e.Message)
			if tt.expectedMsg != "" {
				require.Equal(t, tt.expectedMsg, e.Message)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, string(body))

	doRequest(t, srv, http.MethodGet, "/api/trades", nil)
	resp, body = doRequest(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "trade_http_requests_total")
}

func TestNewService(t *testing.T) {
	_, err := httpinterface.NewService(httpinterface.ServiceOpts{})
	require.Error(t, err)

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:  "127.0.0.1:0",
		TradeSvc: newTradeService(t),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	svc.Stop()
}

func newTestServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(httpinterface.NewRouter(newTradeService(t)))
	t.Cleanup(srv.Close)
	return srv
}

func newTradeService(t *testing.T) *trade.Service {
	repoManager := inmemory.NewRepoManager()
	pubsubSvc, err := pubsub.NewService(repoManager.OutboxRepository())
	require.NoError(t, err)

	svc, err := trade.NewService(
		repoManager, listingServiceStub{}, userServiceStub{}, pubsubSvc,
	)
	require.NoError(t, err)
	return svc
}

func doRequest(
	t *testing.T, srv *httptest.Server, method, path string, body interface{},
) (*http.Response, []byte) {
	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		require.NoError(t, err)
	}
	return doRawRequest(t, srv, method, path, buf)
}

func doRawRequest(
	t *testing.T, srv *httptest.Server, method, path string, body []byte,
) (*http.Response, []byte) {
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

// listingServiceStub knows only listing 1, owned by user 1.
type listingServiceStub struct{}

func (listingServiceStub) GetListing(
	_ context.Context, id int64,
) (*ports.Listing, error) {
	if id != 1 {
		return nil, ports.ErrListingNotFound
	}
	return &ports.Listing{
		ID: 1, OwnerUserID: 1, CardID: 100, Status: ports.ListingStatusActive,
	}, nil
}

func (listingServiceStub) MarkListingCompleted(context.Context, int64) error {
	return nil
}

// userServiceStub knows users 1 to 3.
type userServiceStub struct{}

func (userServiceStub) GetUser(_ context.Context, id int64) (*ports.User, error) {
	if id < 1 || id > 3 {
		return nil, ports.ErrUserNotFound
	}
	return &ports.User{ID: id}, nil
}

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	uri    string
	body   map[string]interface{}
}

func TestCLICommands(t *testing.T) {
	requests := make([]recordedRequest, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, uri: r.URL.RequestURI()}
		if buf, _ := io.ReadAll(r.Body); len(buf) > 0 {
			require.NoError(t, json.Unmarshal(buf, &rec.body))
		}
		requests = append(requests, rec)

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/trades/999" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":404,"message":"Trade not found: 999"}`))
			return
		}
		w.Write([]byte(`{"tradeId":1,"tradeStatus":"pending"}`))
	}))
	t.Cleanup(srv.Close)

	withStateDir(t)
	out := &bytes.Buffer{}
	run := func(args ...string) error {
		app := newApp()
		app.Writer = out
		return app.Run(append([]string{"trade-cli"}, args...))
	}

	require.NoError(t, run("config", "init", "--rpcserver", srv.URL))
	state, err := getState()
	require.NoError(t, err)
	require.Equal(t, srv.URL, state["rpcserver"])

	tests := []struct {
		name           string
		args           []string
		expectedMethod string
		expectedURI    string
	}{
		{
			name:           "create",
			args:           []string{"create", "--listing", "1", "--user", "2", "--card", "10", "--card", "20"},
			expectedMethod: http.MethodPost,
			expectedURI:    "/api/trades",
		},
		{
			name:           "accept",
			args:           []string{"accept", "--trade", "1", "--owner", "3"},
			expectedMethod: http.MethodPut,
			expectedURI:    "/api/trades/1/accept?listingOwnerId=3",
		},
		{
			name:           "decline",
			args:           []string{"decline", "--trade", "1", "--owner", "3"},
			expectedMethod: http.MethodPut,
			expectedURI:    "/api/trades/1/decline?listingOwnerId=3",
		},
		{
			name:           "get",
			args:           []string{"trade", "--trade", "1"},
			expectedMethod: http.MethodGet,
			expectedURI:    "/api/trades/1",
		},
		{
			name:           "list_all",
			args:           []string{"trades"},
			expectedMethod: http.MethodGet,
			expectedURI:    "/api/trades",
		},
		{
			name:           "list_by_listing",
			args:           []string{"trades", "--listing", "4"},
			expectedMethod: http.MethodGet,
			expectedURI:    "/api/trades/listing/4",
		},
		{
			name:           "list_by_user",
			args:           []string{"trades", "--user", "5"},
			expectedMethod: http.MethodGet,
			expectedURI:    "/api/trades/user/5",
		},
		{
			name:           "list_by_status",
			args:           []string{"trades", "--listing", "4", "--status", "pending"},
			expectedMethod: http.MethodGet,
			expectedURI:    "/api/trades/listing/4?status=pending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			count := len(requests)

			err := run(tt.args...)
			require.NoError(t, err)
			require.Len(t, requests, count+1)

			req := requests[count]
			require.Equal(t, tt.expectedMethod, req.method)
			require.Equal(t, tt.expectedURI, req.uri)
			require.Contains(t, out.String(), `"tradeId": 1`)
		})
	}

	create := requests[0]
	require.EqualValues(t, 1, create.body["listingId"])
	require.EqualValues(t, 2, create.body["requestingUserId"])
	require.Len(t, create.body["offeredCardIds"], 2)

	err = run("trade", "--trade", "999")
	require.EqualError(t, err, "404: Trade not found: 999")

	err = run("trades", "--listing", "1", "--user", "2")
	require.Error(t, err)

	count := len(requests)
	err = run("trades", "--status", "open")
	require.Error(t, err)
	require.Len(t, requests, count)
}

func TestCLIWithoutConfig(t *testing.T) {
	withStateDir(t)

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"trade-cli", "trades"})
	require.Error(t, err)
}

func withStateDir(t *testing.T) {
	dir, path := tradecliDataDir, statePath
	tradecliDataDir = t.TempDir()
	statePath = filepath.Join(tradecliDataDir, "state.json")
	t.Cleanup(func() {
		tradecliDataDir, statePath = dir, path
	})
}

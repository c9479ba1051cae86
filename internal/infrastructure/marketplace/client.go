package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

const defaultRequestTimeout = 5 * time.Second

// response is what goes through the circuit breaker. Only transport errors
// and unexpected statuses count as failures, a 404 is a legit answer.
type response struct {
	status int
	body   []byte
}

type client struct {
	name    string
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

func newClient(name, baseURL string, timeout time.Duration) (*client, error) {
	if len(baseURL) <= 0 {
		return nil, fmt.Errorf("missing %s url", name)
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cb:      newCircuitBreaker(name),
	}, nil
}

// do sends the request and returns the response if the remote service
// answered with a 2xx or 404 status, ErrServiceUnreachable otherwise.
func (c *client) do(
	ctx context.Context, method, path string,
) (*response, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		rs, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer rs.Body.Close()

		body, err := io.ReadAll(rs.Body)
		if err != nil {
			return nil, err
		}

		if rs.StatusCode != http.StatusNotFound &&
			(rs.StatusCode < 200 || rs.StatusCode >= 300) {
			return nil, fmt.Errorf(
				"%s answered %s %s with status %d",
				c.name, method, path, rs.StatusCode,
			)
		}
		return &response{rs.StatusCode, body}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrServiceUnreachable, err)
	}

	return resp.(*response), nil
}

func (c *client) getJSON(
	ctx context.Context, path string, notFoundErr error, dest interface{},
) error {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if resp.status == http.StatusNotFound {
		return notFoundErr
	}

	if err := json.Unmarshal(resp.body, dest); err != nil {
		return fmt.Errorf(
			"%w: invalid %s response: %s",
			ports.ErrServiceUnreachable, c.name, err,
		)
	}
	return nil
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests > 20 && failureRatio >= 0.7
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Warnf("%s seems down, stop allowing requests", name)
			}
			if from == gobreaker.StateOpen && to == gobreaker.StateHalfOpen {
				log.Infof("checking %s status", name)
			}
			if from == gobreaker.StateHalfOpen && to == gobreaker.StateClosed {
				log.Infof("%s seems ok, restart allowing requests", name)
			}
		},
	})
}

// remoteTime parses the timestamps of the remote services, which may come
// without a zone.
type remoteTime struct {
	time.Time
}

var remoteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t *remoteTime) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if len(str) <= 0 {
		return nil
	}

	for _, layout := range remoteTimeLayouts {
		if tm, err := time.Parse(layout, str); err == nil {
			t.Time = tm.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", str)
}

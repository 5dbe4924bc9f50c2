package identityclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/phira-mp/server/internal/metrics"
)

// UserProfile mirrors the /me response (§3, §6).
type UserProfile struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// ChartInfo mirrors the /chart/{id} response (§6, SPEC_FULL §3).
type ChartInfo struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Composer  string `json:"composer"`
	Charter   string `json:"charter"`
	Difficulty float64 `json:"difficulty"`
}

// RecordResult mirrors the /record/{id} response used by Played (§4.4).
type RecordResult struct {
	Score     int32   `json:"score"`
	Accuracy  float32 `json:"accuracy"`
	FullCombo bool    `json:"fullCombo"`
}

// Client is the bearer-token HTTP adapter to the external identity/chart/
// record service (§6), wrapped in a circuit breaker (SPEC_FULL §4.1, §9):
// 5 consecutive failures trip it open, it probes again after the configured
// timeout.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker

	cache *userInfoCache
}

// New builds a Client. requestTimeout bounds every HTTP round trip (§5: 10s
// default). cacheCapacity/cacheTTL size the get_user_info cache.
func New(baseURL string, requestTimeout time.Duration, maxFailures uint32, openTimeout time.Duration, cacheCapacity int, cacheTTL time.Duration) *Client {
	st := gobreaker.Settings{
		Name:        "identity-service",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			var v float64
			switch to {
			case gobreaker.StateClosed:
				v = 0
			case gobreaker.StateHalfOpen:
				v = 1
			case gobreaker.StateOpen:
				v = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("identity-service").Set(v)
		},
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		breaker: gobreaker.NewCircuitBreaker(st),
		cache:   newUserInfoCache(cacheCapacity, cacheTTL),
	}
}

// GetUserInfo fetches the profile for the bearer token, consulting the TTL
// cache first (§4.4). Only this endpoint is cached.
func (c *Client) GetUserInfo(ctx context.Context, token string) (UserProfile, error) {
	if cached, ok := c.cache.get(tokenCacheKey(token)); ok {
		metrics.IdentityCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.IdentityCacheHits.WithLabelValues("miss").Inc()

	var profile UserProfile
	err := c.doJSON(ctx, "/me", "me", token, &profile)
	if err != nil {
		return UserProfile{}, err
	}
	c.cache.put(tokenCacheKey(token), profile)
	return profile, nil
}

// tokenCacheKey hashes the token down to an int32 bucket purely to reuse
// userInfoCache's user-id-keyed storage; the FNV-1a fold is not a security
// boundary, only a map key.
func tokenCacheKey(token string) int32 {
	var h uint32 = 2166136261
	for i := 0; i < len(token); i++ {
		h ^= uint32(token[i])
		h *= 16777619
	}
	return int32(h)
}

// GetChart fetches chart metadata, used by SelectChart (§4.4). Never cached.
func (c *Client) GetChart(ctx context.Context, chartID int32) (ChartInfo, error) {
	var chart ChartInfo
	err := c.doJSON(ctx, fmt.Sprintf("/chart/%d", chartID), "chart", "", &chart)
	return chart, err
}

// GetRecord fetches a record result, used by Played (§4.4). Never cached.
func (c *Client) GetRecord(ctx context.Context, recordID int32) (RecordResult, error) {
	var record RecordResult
	err := c.doJSON(ctx, fmt.Sprintf("/record/%d", recordID), "record", "", &record)
	return record, err
}

// doJSON issues the request against path, labelling the duration metric
// with the caller-supplied endpoint name rather than path itself, which
// for /chart/{id} and /record/{id} carries an unbounded id suffix.
func (c *Client) doJSON(ctx context.Context, path, endpoint, bearerToken string, out interface{}) error {
	start := time.Now()
	status := "ok"
	defer func() {
		metrics.IdentityRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	}()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		if bearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+bearerToken)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("identity service %s: status %d", path, resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		status = "error"
	}
	return err
}

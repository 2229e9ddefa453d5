// Package blob resolves storage references of product images and artisan pictures into public URLs
// by asking the blob storage service.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	failureThreshold = 5
	openTimeout      = 30 * time.Second
)

type resolution struct {
	url   string
	found bool
}

// Resolver calls GET {base}/v1/blobs/{ref}/url. Consecutive failures open the breaker, after which
// calls fail fast until the storage service is probed again.
type Resolver struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[resolution]
}

func NewResolver(baseURL string, timeout time.Duration, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[resolution](gobreaker.Settings{
			Name:        "blob-service",
			MaxRequests: 1,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
			},
		}),
	}
}

type urlResponse struct {
	URL string `json:"url"`
}

// ResolveURL returns found=false when the storage service does not know the reference.
func (r *Resolver) ResolveURL(ctx context.Context, ref string) (string, bool, error) {
	if ref == "" {
		return "", false, nil
	}
	res, err := r.breaker.Execute(func() (resolution, error) {
		return r.fetch(ctx, ref)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", false, fmt.Errorf("blob service unavailable: %w", err)
	}
	if err != nil {
		return "", false, err
	}
	return res.url, res.found, nil
}

func (r *Resolver) fetch(ctx context.Context, ref string) (resolution, error) {
	endpoint := fmt.Sprintf("%s/v1/blobs/%s/url", r.baseURL, url.PathEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return resolution{}, fmt.Errorf("failed to build blob request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return resolution{}, fmt.Errorf("blob request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resolution{}, nil
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resolution{}, fmt.Errorf("blob service returned %d", resp.StatusCode)
	}

	var body urlResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return resolution{}, fmt.Errorf("failed to decode blob response: %w", err)
	}
	return resolution{url: body.URL, found: body.URL != ""}, nil
}

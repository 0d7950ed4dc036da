// Package upstream provides lakewatch's clients for the external data
// services the dashboard depends on, normalized into typed samples.
//
// Each client issues a bounded, synchronous HTTP GET and decodes the JSON
// response with gjson path extraction. Clients available:
//   - USGSClient    — instantaneous and daily-value time series from the
//     USGS Water Services API (site + parameter-code query model)
//   - WeatherClient — current surface conditions from the Open-Meteo API
//
// Clients are intentionally lightweight: they fetch, schema-check, and
// shape raw readings into [Sample] values, leaving all derivation (status
// categories, bucketing, merges) to the layers above. There is no retry
// machinery; a failed fetch surfaces immediately as one of the typed
// sentinel errors so the presentation layer can map it to an error
// envelope.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Typed upstream failures. Every error returned by this package wraps
// exactly one of these sentinels, so callers can branch with errors.Is.
var (
	// ErrUnreachable covers transport failures and non-200 responses.
	ErrUnreachable = errors.New("upstream unreachable")

	// ErrTimeout covers deadline and transport timeouts.
	ErrTimeout = errors.New("upstream timeout")

	// ErrMalformed covers invalid JSON and responses missing expected fields.
	ErrMalformed = errors.New("malformed upstream response")

	// ErrNoData covers well-formed responses carrying zero usable data points.
	ErrNoData = errors.New("no data available")
)

// Sample is a single upstream measurement. Samples are immutable and
// ephemeral: they are re-fetched on every request and never persisted.
type Sample struct {
	Time  time.Time
	Value float64
	Site  string
}

// DefaultTimeout bounds an outbound request when no client is supplied.
const DefaultTimeout = 10 * time.Second

// classifyTransport maps a transport-level error onto the sentinel set.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// getJSON performs a GET against url and returns the response body.
// Non-200 statuses and transport failures map to the sentinel errors.
func getJSON(ctx context.Context, cli *http.Client, url string) ([]byte, error) {
	if cli == nil {
		cli = &http.Client{Timeout: DefaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}
	return body, nil
}

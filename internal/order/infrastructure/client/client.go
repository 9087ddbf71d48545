// Package client holds the synchronous HTTP clients the order saga uses
// to reach the customer, product, and payment services. Transport and
// 5xx failures are marked transient so the coordinator's retry budget
// applies; 4xx responses surface immediately as business errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Facugl/microservices-ecommerce/pkg/retry"
)

func newHTTPClient() *http.Client {
	// Per-call deadlines come from the caller's context; this is a
	// backstop against a wedged transport.
	return &http.Client{Timeout: 10 * time.Second}
}

func doJSON(ctx context.Context, hc *http.Client, method, url string, body, out any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, retry.MarkTransient(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, retry.MarkTransient(err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return resp.StatusCode, data, retry.MarkTransient(fmt.Errorf("%s %s: status %d", method, url, resp.StatusCode))
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, data, err
		}
	}
	return resp.StatusCode, data, nil
}

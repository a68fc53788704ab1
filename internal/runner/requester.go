package runner

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"trafficmix/internal/scenario"
)

// Requester executes the request behind one task. Implementations never
// retry and never inspect the body; whatever happens is reported as-is.
type Requester interface {
	Do(ctx context.Context, userID string, task scenario.Task) Outcome
}

// HTTPRequester issues GET base+path for each task.
type HTTPRequester struct {
	BaseURL string
	Client  *http.Client
	Headers *HeaderTemplates
}

func NewHTTPRequester(baseURL string, timeout time.Duration, headers *HeaderTemplates) *HTTPRequester {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &HTTPRequester{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: t,
		},
		Headers: headers,
	}
}

func (h *HTTPRequester) Do(ctx context.Context, userID string, task scenario.Task) Outcome {
	start := time.Now()
	out := Outcome{
		TimeStamp: start,
		Task:      task.Name,
		Path:      task.Path,
		UserID:    userID,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+task.Path, nil)
	if err != nil {
		out.Err = err
		return out
	}
	if h.Headers != nil {
		values, err := h.Headers.Render(userID, task.Name)
		if err != nil {
			out.Err = err
			return out
		}
		for k, v := range values {
			req.Header.Set(k, v)
		}
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		out.Latency = time.Since(start)
		out.Err = err
		return out
	}
	n, _ := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	out.Latency = time.Since(start)
	out.Status = resp.StatusCode
	out.Bytes = n
	out.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	return out
}

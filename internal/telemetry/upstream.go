package telemetry

import (
	"net/http"
	"path"
	"strings"
	"time"
)

// UpstreamTransport records a metric for every request made through it.
// Batch files are grouped under one endpoint label so the label set stays
// bounded.
type UpstreamTransport struct {
	Base    http.RoundTripper
	Metrics *Metrics
}

func (t *UpstreamTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)

	class := "error"
	if err == nil {
		class = StatusClass(resp.StatusCode)
	}
	t.Metrics.RecordUpstreamRequest(upstreamEndpoint(req.URL.Path), class, time.Since(start))

	return resp, err
}

// StatusClass buckets an HTTP status code as 2xx, 3xx, 4xx or 5xx.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func upstreamEndpoint(p string) string {
	dir, file := path.Split(p)
	switch {
	case strings.HasSuffix(dir, "/companies/"):
		return "companies/" + file
	case strings.HasSuffix(dir, "/batches/"):
		return "batches"
	default:
		return "other"
	}
}

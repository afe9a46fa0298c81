package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderTransport_SetsUserAgent(t *testing.T) {
	agents := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	hc := &http.Client{Transport: &HeaderTransport{
		Base:    NewTransport(),
		Headers: http.Header{"User-Agent": []string{"yc-mcp-go/test"}},
	}}
	client := NewClient(ts.URL, WithHTTPClient(hc), WithLogger(zerolog.Nop()))

	companies, err := client.FetchCompanies(context.Background(), OpListTopCompanies, "companies/top.json")
	require.NoError(t, err)
	assert.Empty(t, companies)
	assert.Equal(t, "yc-mcp-go/test", <-agents)
}

func TestNewTransport_DisablesKeepAlives(t *testing.T) {
	tr, ok := NewTransport().(*http.Transport)
	require.True(t, ok)
	assert.True(t, tr.DisableKeepAlives)
	assert.False(t, http.DefaultTransport.(*http.Transport).DisableKeepAlives, "default transport must be left alone")
}

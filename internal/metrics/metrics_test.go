// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromhttpExposure(t *testing.T) {
	RecordShorten("created")

	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "eco_shortener_shorten_total")
}

func TestRecordCacheLookup(t *testing.T) {
	hitsBefore := testutil.ToFloat64(cacheLookups.WithLabelValues("memory", "hit"))
	missBefore := testutil.ToFloat64(cacheLookups.WithLabelValues("memory", "miss"))

	RecordCacheLookup("memory", true)
	RecordCacheLookup("memory", false)
	RecordCacheLookup("memory", false)

	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(cacheLookups.WithLabelValues("memory", "hit")))
	assert.Equal(t, missBefore+2, testutil.ToFloat64(cacheLookups.WithLabelValues("memory", "miss")))
}

func TestProxyGaugesAndBytes(t *testing.T) {
	base := testutil.ToFloat64(proxySessions)
	ProxySessionStarted()
	assert.Equal(t, base+1, testutil.ToFloat64(proxySessions))
	ProxySessionEnded()
	assert.Equal(t, base, testutil.ToFloat64(proxySessions))

	before := testutil.ToFloat64(proxyBytes.WithLabelValues("upstream"))
	AddProxyBytes("upstream", 0)
	AddProxyBytes("upstream", 42)
	assert.Equal(t, before+42, testutil.ToFloat64(proxyBytes.WithLabelValues("upstream")))
}

func TestObserveGreeterTask(t *testing.T) {
	before := testutil.ToFloat64(greeterOverBudget)
	ObserveGreeterTask(0.05, false)
	ObserveGreeterTask(0.2, true)
	assert.Equal(t, before+1, testutil.ToFloat64(greeterOverBudget))
}

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modoocon/modoocon/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(url string) *HTTPProvider {
	return New(config.Config{
		Exchange: config.ExchangeConfig{ProviderURL: url},
	}).(*HTTPProvider)
}

func TestFetchUSDKRW(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success","rates":{"KRW":1350.25,"EUR":0.92}}`))
	}))
	defer srv.Close()

	rate, err := newProvider(srv.URL).FetchUSDKRW(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1350.25", rate.String())
}

func TestFetchUSDKRWErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{name: "provider error result", body: `{"result":"error","rates":{}}`, code: http.StatusOK},
		{name: "missing KRW", body: `{"result":"success","rates":{"EUR":0.92}}`, code: http.StatusOK},
		{name: "non-positive rate", body: `{"result":"success","rates":{"KRW":0}}`, code: http.StatusOK},
		{name: "server failure", body: `{}`, code: http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newProvider(srv.URL).FetchUSDKRW(context.Background())
			assert.Error(t, err)
		})
	}
}

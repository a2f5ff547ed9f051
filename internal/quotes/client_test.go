package quotes

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bytebank/banksync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/PETR4", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{"results":[{"symbol":"PETR4","longName":"Petrobras PN","regularMarketPrice":38.52,"regularMarketChangePercent":-1.3,"logourl":"https://example.com/petr4.png"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", testLogger())
	q, err := c.GetQuote(context.Background(), "PETR4")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "PETR4", q.Ticker)
	assert.Equal(t, "Petrobras PN", q.LongName)
	assert.Equal(t, 38.52, q.LastPrice)
	assert.Equal(t, -1.3, q.ChangePercent)
}

func TestGetQuote_DegradesToNoResult(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed payload", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"results": not json`))
		}},
		{"empty results", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"results":[]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, "tok", testLogger())
			q, err := c.GetQuote(context.Background(), "XXXX")
			require.NoError(t, err)
			assert.Nil(t, q)
		})
	}
}

func TestGetQuote_TransportFailureIsNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "tok", testLogger())
	q, err := c.GetQuote(context.Background(), "PETR4")
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"symbol":"VALE3","longName":"Vale ON"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", testLogger())

	// Short inputs never hit the network.
	sugg, err := c.Search(context.Background(), "VA")
	require.NoError(t, err)
	assert.Empty(t, sugg)

	sugg, err = c.Search(context.Background(), "VALE3")
	require.NoError(t, err)
	require.Len(t, sugg, 1)
	assert.Equal(t, "VALE3", sugg[0].ID)
	assert.Equal(t, "Vale ON", sugg[0].Name)
}

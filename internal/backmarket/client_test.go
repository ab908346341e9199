package backmarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/returns-desk/internal/config"
)

func TestGetOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		if user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path == "/ws/orders/12345678" {
			_, _ = w.Write([]byte(`{"order_id":12345678,"state":3}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	c := NewClient(config.BackMarketConfig{BaseURL: srv.URL, Timeout: time.Second})

	raw, err := c.GetOrder(context.Background(), "key", "secret", "12345678")
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":12345678,"state":3}`, string(raw))

	_, err = c.GetOrder(context.Background(), "key", "secret", "1")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = c.GetOrder(context.Background(), "key", "wrong", "12345678")
	assert.Error(t, err)
}

func TestGetOrderRetriesServerErrorOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"order_id":7}`))
	}))
	defer srv.Close()
	c := NewClient(config.BackMarketConfig{BaseURL: srv.URL, Timeout: time.Second})

	raw, err := c.GetOrder(context.Background(), "key", "secret", "7")
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":7}`, string(raw))
	assert.Equal(t, 2, calls)
}

func TestGetOrderGivesUpAfterSecondFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := NewClient(config.BackMarketConfig{BaseURL: srv.URL, Timeout: time.Second})

	_, err := c.GetOrder(context.Background(), "key", "secret", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, 2, calls)
}

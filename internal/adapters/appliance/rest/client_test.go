package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/internal/log"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{Address: srv.URL, Username: "admin", Password: "secret", RequestsPerSecond: 100}, srv.Client(), log.Nop())
	require.NoError(t, err)
	return c
}

func TestClientGetDecodesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/mgmt/tm/ltm/pool/~Common~web", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		_, _ = io.WriteString(w, `{"name":"web","partition":"Common","loadBalancingMode":"round-robin"}`)
	})

	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "ltm/pool/~Common~web", &out))
	assert.Equal(t, "round-robin", out["loadBalancingMode"])
}

func TestClientCreateSendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"web","partition":"Common"}`, string(body))
		_, _ = w.Write(body)
	})

	var out map[string]any
	err := c.Create(context.Background(), "ltm/pool", map[string]any{"name": "web", "partition": "Common"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "web", out["name"])
}

func TestClientUpdateUsesPatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.Update(context.Background(), "ltm/pool/~Common~web", map[string]any{"description": "x"}, nil))
}

func TestClientTokenAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-F5-Auth-Token"))
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Address: srv.URL, Token: "tok"}, srv.Client(), log.Nop())
	require.NoError(t, err)
	require.NoError(t, c.Delete(context.Background(), "ltm/node/~Common~n1"))
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   errors.Code
	}{
		{"not found", http.StatusNotFound, `{"code":404,"message":"01020036:3: The requested Pool (/Common/web) was not found."}`, errors.CodeResourceNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"code":401,"message":"Authorization failed"}`, errors.CodeTransportAuth},
		{"forbidden", http.StatusForbidden, ``, errors.CodeTransportAuth},
		{"bad request", http.StatusBadRequest, `{"code":400,"message":"invalid monitor"}`, errors.CodeTransport},
		{"server error", http.StatusInternalServerError, `boom`, errors.CodeTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			err := c.Get(context.Background(), "ltm/pool/~Common~web", nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestClientNotFoundMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":400,"message":"pool member references missing node"}`)
	})
	err := c.Create(context.Background(), "ltm/pool", map[string]any{}, nil)
	assert.Contains(t, err.Error(), "pool member references missing node")
}

func TestClientConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c, err := NewClient(Config{Address: addr, Username: "u"}, nil, log.Nop())
	require.NoError(t, err)
	err = c.Get(context.Background(), "sys/version", nil)
	assert.True(t, errors.IsTransport(err))
}

func TestClientCancelledContext(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Get(ctx, "sys/version", nil)
	assert.True(t, errors.IsTransport(err))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{}, nil, log.Nop())
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))

	_, err = NewClient(Config{Address: "10.0.0.1"}, nil, log.Nop())
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))

	c, err := NewClient(Config{Address: "10.0.0.1:8443", Username: "admin"}, nil, log.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.1:8443/mgmt/tm/ltm/pool", c.url("ltm/pool"))
}

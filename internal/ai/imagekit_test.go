package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGenerator(endpoint string) *ImageKitGenerator {
	g := NewImageKitGenerator(endpoint+"/", zap.NewNop())
	g.policy = fastRetry
	g.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return g
}

func TestImageKitGenerator_URL(t *testing.T) {
	g := newTestGenerator("https://ik.imagekit.io/demo")

	assert.Equal(t,
		"https://ik.imagekit.io/demo/ik-genimg-prompt-a%20red%20fox/quickgpt/1700000000000.png?tr=w-800,h-800",
		g.URL("a red fox"),
	)
}

func TestImageKitGenerator_Generate(t *testing.T) {
	png := []byte("\x89PNG fake image")

	t.Run("returns image bytes", func(t *testing.T) {
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.EscapedPath()
			_, _ = w.Write(png)
		}))
		defer srv.Close()

		data, err := newTestGenerator(srv.URL).Generate(context.Background(), "a red fox")

		require.NoError(t, err)
		assert.Equal(t, png, data)
		assert.Equal(t, "/ik-genimg-prompt-a%20red%20fox/quickgpt/1700000000000.png", path)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write(png)
		}))
		defer srv.Close()

		data, err := newTestGenerator(srv.URL).Generate(context.Background(), "fox")

		require.NoError(t, err)
		assert.Equal(t, png, data)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestGenerator(srv.URL).Generate(context.Background(), "fox")

		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("empty body fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		_, err := newTestGenerator(srv.URL).Generate(context.Background(), "fox")

		assert.Error(t, err)
	})
}

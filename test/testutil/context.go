package testutil

import (
	"context"
	"testing"
	"time"
)

// TestContext returns a context that is cancelled after ten seconds or when
// the test ends, whichever comes first.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

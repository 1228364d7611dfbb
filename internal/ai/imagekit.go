package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	imageFolder = "quickgpt"
	// imageTransform asks ImageKit for an 800x800 render.
	imageTransform = "w-800,h-800"
	maxImageBytes  = 10 << 20
)

// ImageKitGenerator renders prompts through ImageKit's prompt-to-image URL
// transformation and downloads the result.
type ImageKitGenerator struct {
	endpoint string
	client   *http.Client
	policy   RetryPolicy
	now      func() time.Time
	log      *zap.Logger
}

// NewImageKitGenerator creates a generator for an ImageKit URL endpoint such
// as https://ik.imagekit.io/yourid.
func NewImageKitGenerator(endpoint string, log *zap.Logger) *ImageKitGenerator {
	return &ImageKitGenerator{
		endpoint: strings.TrimRight(endpoint, "/"),
		// Generation can take a while on a cold prompt
		client:   &http.Client{Timeout: 90 * time.Second},
		policy:   DefaultRetryPolicy,
		now:      time.Now,
		log:      log,
	}
}

// URL builds the generation URL for prompt.
func (g *ImageKitGenerator) URL(prompt string) string {
	return fmt.Sprintf("%s/ik-genimg-prompt-%s/%s/%d.png?tr=%s",
		g.endpoint, url.PathEscape(prompt), imageFolder, g.now().UnixMilli(), imageTransform)
}

// Generate fetches the generated image. Server errors are retried, client
// errors are not.
func (g *ImageKitGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	target := g.URL(prompt)

	var image []byte
	err := retry(ctx, g.policy, g.log, "imagekit", func() error {
		data, err := g.fetch(ctx, target)
		if err != nil {
			return err
		}
		image = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("imagekit generate: %w", err)
	}
	return image, nil
}

func (g *ImageKitGenerator) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, backoff.Permanent(fmt.Errorf("image exceeds %d bytes", maxImageBytes))
	}
	if len(data) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("empty image body"))
	}
	return data, nil
}

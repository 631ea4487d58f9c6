package miniapp

import (
	"context"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/metheus/shell/internal/logging"
	"github.com/metheus/shell/internal/shared/types"
)

// Resolver probes a mini-app's primary URL and walks its fallback URLs
// in order, returning the first locator that answers. Non-HTTP locators
// (bundled app paths, file URLs) are handed to the host untouched.
type Resolver struct {
	client *resty.Client
	log    *logging.Logger
}

// NewResolver creates a source resolver with bounded probe retries
func NewResolver(log *logging.Logger, timeout time.Duration) *Resolver {
	if log == nil {
		log = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(200 * time.Millisecond)

	return &Resolver{client: client, log: log.Named("resolver")}
}

// Resolve implements SourceResolver
func (r *Resolver) Resolve(ctx context.Context, cfg types.MiniAppConfig) string {
	candidates := make([]string, 0, 1+len(cfg.Metadata.FallbackURLs))
	candidates = append(candidates, cfg.URL)
	candidates = append(candidates, cfg.Metadata.FallbackURLs...)

	for _, candidate := range candidates {
		if !probeable(candidate) {
			return candidate
		}
		resp, err := r.client.R().SetContext(ctx).Head(candidate)
		if err != nil {
			r.log.Debug("source probe failed",
				zap.String("id", cfg.ID),
				zap.String("url", candidate),
				zap.Error(err))
			continue
		}
		if resp.StatusCode() < 500 {
			if candidate != cfg.URL {
				r.log.Info("falling back to alternate source",
					zap.String("id", cfg.ID),
					zap.String("url", candidate))
			}
			return candidate
		}
	}

	// Every candidate failed; let the host surface the load error.
	return cfg.URL
}

func probeable(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

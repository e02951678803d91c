package catalog

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/logging"
)

// RetryPolicy bounds the exponential backoff applied around a wrapped
// Adapter call.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy mirrors the shape of a typical catalog's transient
// error budget: a handful of attempts, backing off from a quarter second
// up to a few seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  4,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     4 * time.Second,
	}
}

// Client wraps an Adapter with a token-bucket rate limiter and bounded
// exponential backoff. The core must tolerate empty results and transient
// errors without losing candidates; Client is the one place automatic
// retries are permitted.
type Client struct {
	adapter Adapter
	limiter *rate.Limiter
	retry   RetryPolicy
	log     *logging.Logger
	sleep   func(d time.Duration)
}

// New wraps adapter with the given requests-per-second limit and burst
// size. A burst of 1 is a reasonable default for catalogs with no
// documented burst allowance.
func New(adapter Adapter, requestsPerSecond float64, burst int, log *logging.Logger) *Client {
	return &Client{
		adapter: adapter,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		retry:   DefaultRetryPolicy(),
		log:     log,
		sleep:   time.Sleep,
	}
}

// WithRetryPolicy overrides the default retry policy.
func (c *Client) WithRetryPolicy(p RetryPolicy) *Client {
	c.retry = p
	return c
}

// LookupByTitle rate-limits and retries a title lookup.
func (c *Client) LookupByTitle(ctx context.Context, title string) ([]Hypothesis, error) {
	var result []Hypothesis
	err := c.call(ctx, "lookup_by_title", func(ctx context.Context) error {
		r, err := c.adapter.LookupByTitle(ctx, title)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// FetchByExternalID rate-limits and retries a metadata fetch.
func (c *Client) FetchByExternalID(ctx context.Context, sourceType, sourceID string) (Snapshot, error) {
	var result Snapshot
	err := c.call(ctx, "fetch_by_external_id", func(ctx context.Context) error {
		r, err := c.adapter.FetchByExternalID(ctx, sourceType, sourceID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// call runs fn under the rate limiter with bounded exponential backoff.
// Context cancellation aborts immediately without counting as an
// attempt's failure.
func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	delay := c.retry.InitialDelay
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return kinds.Wrap(kinds.ErrorKindCancelled, err, "catalog call cancelled waiting for rate limiter")
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return kinds.Wrap(kinds.ErrorKindCancelled, ctx.Err(), "catalog call cancelled")
		}
		if attempt == c.retry.MaxAttempts {
			break
		}

		wait := jitter(delay)
		if c.log != nil {
			c.log.Debugf("catalog %s attempt %d/%d failed, retrying in %s: %v", op, attempt, c.retry.MaxAttempts, wait, err)
		}
		c.sleep(wait)
		delay *= 2
		if delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}
	}
	return kinds.Wrap(kinds.ErrorKindOperationFailed, lastErr, "catalog "+op+" failed after retries")
}

// jitter adds up to 20% random variance to d to avoid retry storms across
// concurrently scanning instances.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := d / 5
	if spread <= 0 {
		return d
	}
	return d - spread/2 + time.Duration(rand.Int63n(int64(spread)))
}

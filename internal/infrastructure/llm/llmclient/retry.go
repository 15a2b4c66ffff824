package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/contractlens/review-core/internal/infrastructure/resilience"
)

// retryClass distinguishes the two backoff bases assigned to retryable
// failures: connection errors back off harder than other transient ones.
type retryClass int

const (
	classTerminal retryClass = iota
	classConnection
	classOtherTransient
)

func classifyRetry(err error) retryClass {
	if err == nil {
		return classTerminal
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return classOtherTransient
		}
		return classTerminal
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return classConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return classConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return classConnection
		}
		return classOtherTransient
	}

	return classOtherTransient
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func classify(err error) resilience.ErrorClassification {
	class := classifyRetry(err)
	return resilience.ErrorClassification{
		Retryable:     class != classTerminal,
		RecordFailure: class != classTerminal,
	}
}

// backoffFor returns the wait duration before retry attempt `attempt`
// (1-based) for the given failure class: connection failures wait
// 3·2^attempt seconds, other transient failures wait 1·2^attempt seconds.
func backoffFor(class retryClass, attempt int) time.Duration {
	base := 1
	if class == classConnection {
		base = 3
	}
	seconds := base * (1 << uint(attempt))
	return time.Duration(seconds) * time.Second
}

// networkErrorMessage is the Chinese user-facing message surfaced after
// retry exhaustion.
const networkErrorMessage = "网络连接不稳定，请检查网络后重试"

// withRetry runs fn up to maxRetries+1 times total, sleeping between
// attempts per the failure class of the previous error, and wraps the final
// error with networkErrorMessage once every retryable attempt is exhausted.
// Non-retryable failures (4xx, context cancellation) return immediately.
// Each attempt is individually passed through the circuit breaker.
func (c *Client) withRetry(ctx context.Context, operation string, maxRetries int, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.executor.Execute(ctx, operation, fn, classify)
		if err == nil {
			return nil
		}

		class := classifyRetry(err)
		if class == classTerminal || attempt == maxRetries {
			if class != classTerminal {
				return fmt.Errorf("%s: %s: %w", operation, networkErrorMessage, err)
			}
			return err
		}

		wait := backoffFor(class, attempt+1)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}

package errs

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Third-Party API & LLM Specific Errors
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrUpstreamFailure    = errors.New("upstream service failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUnprocessable      = errors.New("unprocessable content")
)

func NewRateLimitError(scope string, retryAfter time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details: fmt.Sprintf("Too many requests to %s, retry in %d seconds",
			scope, int(math.Ceil(retryAfter.Seconds()))),
		Field: "rate_limit",
	}
}

func NewUpstreamError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrUpstreamFailure,
		Details:    fmt.Sprintf("The %s service did not return a usable response", service),
		Cause:      cause,
	}
}

func NewServiceNotConfiguredError(service string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("The %s service is not configured", service),
	}
}

func NewUnprocessableError(details string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnprocessableEntity,
		err:        ErrUnprocessable,
		Details:    details,
		Cause:      cause,
	}
}

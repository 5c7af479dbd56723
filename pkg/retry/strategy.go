package retry

import (
	"errors"
	"math/rand"
	"time"

	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/code-solana-sdk/pkg/retry/backoff"
)

// Strategy is a function that determines whether or not an action should be
// retried. Strategies are allowed to delay or cause other side effects.
type Strategy func(attempts uint, err error) bool

// Limit returns a strategy that limits the total number of attempts.
// maxAttempts should be >= 1, since the action is evaluated first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, err error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors returns a strategy that specifies which errors can be retried.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(attempts uint, err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}

		return false
	}
}

// NonRetriableErrors returns a strategy that specifies which errors should not be retried.
func NonRetriableErrors(nonRetriableErrors ...error) Strategy {
	return func(attempts uint, err error) bool {
		for _, e := range nonRetriableErrors {
			if errors.Is(err, e) {
				return false
			}
		}

		return true
	}
}

// RetriableRPCCodes returns a strategy that specifies which JSON-RPC error
// codes can be retried. Errors that are not JSON-RPC errors are not retried.
func RetriableRPCCodes(retriableCodes ...int) Strategy {
	return func(attempts uint, err error) bool {
		code, ok := rpcCode(err)
		if !ok {
			return false
		}

		for _, c := range retriableCodes {
			if code == c {
				return true
			}
		}

		return false
	}
}

// NonRetriableRPCCodes returns a strategy that specifies which JSON-RPC error
// codes should not be retried.
func NonRetriableRPCCodes(nonRetriableCodes ...int) Strategy {
	return func(attempts uint, err error) bool {
		code, ok := rpcCode(err)
		if !ok {
			return true
		}

		for _, c := range nonRetriableCodes {
			if code == c {
				return false
			}
		}

		return true
	}
}

func rpcCode(err error) (int, bool) {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return 0, false
	}
	return rpcErr.Code, true
}

// Backoff returns a strategy that sleeps for the delay given by strategy,
// capped at maxBackoff, before allowing the next attempt.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter returns a strategy similar to Backoff, but randomizes the
// capped delay by up to +/- jitter of its value. A jitter of 0.1 turns a
// 100ms delay into one between 90ms and 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}

		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + jitter*(2*rand.Float64()-1)))
		}

		sleeperImpl.Sleep(delay)
		return true
	}
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (r *realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = &realSleeper{}

// Package predict suggests expense categories from a description and amount.
package predict

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Predictor returns a category id for an expense.
type Predictor interface {
	PredictCategory(ctx context.Context, name string, amountCents int64) (int, error)
}

// Func adapts a plain function to Predictor.
type Func func(ctx context.Context, name string, amountCents int64) (int, error)

// PredictCategory implements Predictor.
func (f Func) PredictCategory(ctx context.Context, name string, amountCents int64) (int, error) {
	return f(ctx, name, amountCents)
}

// ErrNoPrediction is returned when the backend answered without a usable category.
var ErrNoPrediction = errors.New("no category prediction")

// newLimiter allows requestsPerMinute requests with a burst of the same
// size. Non-positive values disable limiting.
func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}

package xrecover_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xloadkit/pkg/observability/xreport"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
	"github.com/omeyang/xloadkit/pkg/resilience/xrecover"
)

func ExampleWithRecovery() {
	reporter := xreport.ReporterFunc(func(_ context.Context, info *xreport.ErrorInfo) {
		fmt.Printf("attempt %d: %s retry=%v\n",
			info.Failure.Attempt, info.Failure.Category, info.Failure.Decision.ShouldRetry)
	})
	e := xrecover.NewExecutor(xrecover.WithReporter(reporter))

	table := xrecover.DefaultTable().Merge(xrecover.Table{
		xfault.CategoryServerError: {MaxAttempts: 2, Delay: time.Millisecond, Scale: xrecover.ScaleFixed},
	})

	calls := 0
	v, err := xrecover.WithRecovery(context.Background(), e, "load scene", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", xfault.NewStatusError(503)
		}
		return "scene-1", nil
	}, xrecover.TablePolicy[string](table))

	fmt.Println(v, err)
	// Output:
	// attempt 1: SERVER_ERROR retry=true
	// scene-1 <nil>
}

func ExampleDecision_WithFallback() {
	policy := func(xfault.Category, int) xrecover.Decision[[]string] {
		return xrecover.Decision[[]string]{Reason: "offline"}.WithFallback([]string{"cached"})
	}

	v, err := xrecover.WithRecovery(context.Background(), nil, "list", func(context.Context) ([]string, error) {
		return nil, errors.New("network error")
	}, policy)

	fmt.Println(v, err)
	// Output:
	// [cached] <nil>
}

func ExampleDefaultPolicy() {
	for attempt := 1; attempt <= 4; attempt++ {
		d := xrecover.DefaultPolicy[int](xfault.CategoryRateLimit, attempt)
		fmt.Println(attempt, d.ShouldRetry, d.RetryDelay)
	}
	// Output:
	// 1 true 800ms
	// 2 true 1.6s
	// 3 true 2.4s
	// 4 false 0s
}

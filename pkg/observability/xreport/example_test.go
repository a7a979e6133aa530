package xreport_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/omeyang/xloadkit/pkg/observability/xreport"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
)

func ExampleStore() {
	store := xreport.NewStore(xreport.WithHistoryLimit(2))
	cancel := store.Subscribe(func(s xreport.Snapshot) {
		if s.Current != nil {
			fmt.Println("current:", s.Current.Code, s.Current.Operation)
		}
	})
	defer cancel()

	ctx := context.Background()
	store.Report(ctx, xreport.NewErrorInfo("load screen", xfault.NewStatusError(503)))
	store.Report(ctx, xreport.NewErrorInfo("sync", errors.New("network error")))

	fmt.Println("history:", len(store.History()))
	// Output:
	// current: 503 load screen
	// current: NETWORK sync
	// history: 2
}

func ExampleIsSerious() {
	for _, code := range []string{"404", "NETWORK", "LIVE"} {
		fmt.Println(code, xreport.IsSerious(code))
	}
	// Output:
	// 404 true
	// NETWORK false
	// LIVE true
}

package xtrace_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
	"github.com/omeyang/xloadkit/pkg/observability/xtrace"
)

func ExampleInjectToRequest() {
	ctx, _ := xctx.WithTrace(context.Background(), xctx.Trace{
		TraceID:    "0af7651916cd43dd8448eb211c80319c",
		SpanID:     "b7ad6b7169203331",
		TraceFlags: "01",
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://scene.local/v1/scene", nil)
	xtrace.InjectToRequest(ctx, req)
	fmt.Println(req.Header.Get(xtrace.HeaderTraceparent))
	// Output:
	// 00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01
}

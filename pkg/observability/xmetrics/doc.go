// Package xmetrics 定义最小化的观测接口，默认实现基于 OpenTelemetry。
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xrecover",
//		Operation: "load screen",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标
//
//   - xloadkit.operation.total、xloadkit.operation.duration：属性 component / operation / status
//   - xloadkit.failure.total：属性 operation / category / decision，由 [FailureCounter] 记录
package xmetrics

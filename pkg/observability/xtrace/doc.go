// Package xtrace 在 HTTP 调用之间传播链路追踪标识。
//
// 底层存储使用 xctx，xtrace 只做传输层适配：
//   - 出站：[InjectToRequest] 把 context 中的 TraceID、SpanID、RequestID 写入请求头，
//     并生成 W3C traceparent
//   - 入站：[ExtractFromHTTPHeader] 读取请求头，[HTTPMiddleware] 注入 context
//
// 支持的 Header：
//   - X-Trace-ID、X-Span-ID、X-Request-ID
//   - traceparent、tracestate（W3C Trace Context）
//
// traceparent 优先于自定义头。解析时接受大小写十六进制，生成时统一输出小写的 version 00。
// tracestate 不自动存入 context，需要透传时使用 [InjectTraceToHeader]。
package xtrace

// Package xhttp 提供加载操作使用的 HTTP 客户端。
//
// 客户端在每次请求上开启 xmetrics 客户端跨度，通过 xtrace 传播追踪标识，
// 并把非 2xx 响应转换为 [xfault.StatusError]，让 xrecover 的分类与重试策略直接生效：
//
//	client := xhttp.NewClient(xhttp.Config{BaseURL: "https://scene.example"})
//	scene, err := xhttp.GetJSON[Scene](ctx, client, "/v1/scene")
package xhttp

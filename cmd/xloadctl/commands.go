package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/resilience/xbreaker"
	"github.com/omeyang/xloadkit/pkg/resilience/xfault"
	"github.com/omeyang/xloadkit/pkg/resilience/xrecover"
	"github.com/omeyang/xloadkit/pkg/state/xloadable"
	"github.com/omeyang/xloadkit/pkg/transport/xhttp"
)

// maxConcurrency 同时探测的 URL 数上限。
const maxConcurrency = 8

func createProbeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "并发加载 URL（指数退避重试），打印每次状态变化",
		ArgsUsage: "<url>...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "attempts",
				Usage: "覆盖 load.attempts",
			},
		},
		Action: withRuntime(cmdProbe),
	}
}

func cmdProbe(ctx context.Context, cmd *cli.Command, rt *runtime) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return newUsageError("probe: at least one url is required")
	}
	var opts []xloadable.LoadOption
	if cmd.IsSet("attempts") {
		n := int(cmd.Int("attempts"))
		if n < 1 {
			return newUsageError("probe: --attempts must be >= 1, got %d", n)
		}
		opts = append(opts, xloadable.WithAttempts(n))
	}

	reg, err := xloadable.NewRegistry[payload](len(urls), rt.controllerOptions()...)
	if err != nil {
		return err
	}
	p := &printer{w: rt.out}
	failed, err := forEachURL(ctx, urls, func(ctx context.Context, u string) error {
		c := reg.Get(u)
		cancel := c.Subscribe(func(s xloadable.State[payload]) { p.state(u, s) })
		defer cancel()
		_, err := c.LoadWithRetry(ctx, xhttp.Loader[payload](rt.client, u), append(opts, xloadable.WithName(u))...)
		return err
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// forEachURL 并发执行 fn，返回失败数。ctx 结束时返回 ctx.Err()。
func forEachURL(ctx context.Context, urls []string, fn func(ctx context.Context, u string) error) (int, error) {
	var (
		mu     sync.Mutex
		failed int
	)
	var g errgroup.Group
	g.SetLimit(maxConcurrency)
	for _, u := range urls {
		g.Go(func() error {
			if err := fn(ctx, u); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // 任务总是返回 nil
	return failed, ctx.Err()
}

func createRecoverCommand() *cli.Command {
	return &cli.Command{
		Name:      "recover",
		Usage:     "按策略表执行带恢复的请求，打印结果或 fallback",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "fallback",
				Usage: "策略放弃时返回的 JSON 值",
			},
		},
		Action: withRuntime(cmdRecover),
	}
}

func cmdRecover(ctx context.Context, cmd *cli.Command, rt *runtime) error {
	if cmd.Args().Len() != 1 {
		return newUsageError("recover: exactly one url is required")
	}
	u := cmd.Args().First()

	r, err := newRecoverer(rt, []string{u})
	if err != nil {
		return err
	}
	defer r.close()
	if cmd.IsSet("fallback") {
		v := payload(cmd.String("fallback"))
		r.fallback = &v
	}

	v, err := r.run(ctx, u)
	if err != nil {
		fmt.Fprintf(rt.out, "%s failed: %v\n", u, err)
		return &exitError{code: 1}
	}
	fmt.Fprintf(rt.out, "%s\n", v)
	return nil
}

// recoverer 对每个 URL 执行带恢复的请求：可选熔断，记住最近一次成功的值。
type recoverer struct {
	rt       *runtime
	lastGood *xrecover.LastGood[payload]
	breakers map[string]*xbreaker.Breaker
	fallback *payload
}

func newRecoverer(rt *runtime, urls []string) (*recoverer, error) {
	lg, err := xrecover.NewLastGood[payload]()
	if err != nil {
		return nil, err
	}
	r := &recoverer{rt: rt, lastGood: lg, breakers: make(map[string]*xbreaker.Breaker, len(urls))}
	for _, u := range urls {
		if b := rt.newBreaker(u); b != nil {
			r.breakers[u] = b
		}
	}
	return r, nil
}

func (r *recoverer) run(ctx context.Context, u string) (payload, error) {
	op := xhttp.Loader[payload](r.rt.client, u)
	policy := xrecover.HolderPolicy[payload](r.rt.table)
	if b, ok := r.breakers[u]; ok {
		op = xbreaker.Guard(b, op)
		policy = xbreaker.DegradeWhenOpen(b, policy, func() {
			r.rt.logger.Warn(ctx, "breaker open, degrading", xlog.Operation(u))
		})
	}
	if r.fallback != nil {
		policy = withFallback(policy, *r.fallback)
	}
	return r.lastGood.Run(ctx, r.rt.executor, u, op, policy)
}

func (r *recoverer) close() {
	r.lastGood.Close()
}

// withFallback 在 p 放弃且没有 fallback 时使用 v。
func withFallback(p xrecover.Policy[payload], v payload) xrecover.Policy[payload] {
	return func(c xfault.Category, attempt int) xrecover.Decision[payload] {
		d := p(c, attempt)
		if d.ShouldRetry || d.Fallback != nil {
			return d
		}
		d = d.WithFallback(v)
		d.Reason = "static fallback"
		return d
	}
}

func createPolicyCommand() *cli.Command {
	return &cli.Command{
		Name:  "policy",
		Usage: "打印各分类在第 1..N 次失败时的决策",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "attempts",
				Aliases: []string{"n"},
				Usage:   "打印的失败次数",
				Value:   5,
			},
		},
		Action: withRuntime(cmdPolicy),
	}
}

func cmdPolicy(_ context.Context, cmd *cli.Command, rt *runtime) error {
	n := int(cmd.Int("attempts"))
	if n < 1 {
		return newUsageError("policy: --attempts must be >= 1, got %d", n)
	}
	return printPolicy(rt.out, xrecover.TablePolicy[struct{}](rt.settings.Table()), n)
}

func printPolicy(w io.Writer, p xrecover.Policy[struct{}], n int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tATTEMPT\tRETRY\tDELAY\tREASON")
	for _, c := range xfault.Categories() {
		for attempt := 1; attempt <= n; attempt++ {
			d := p(c, attempt)
			delay := "-"
			if d.ShouldRetry {
				delay = d.Delay().String()
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", c, attempt, strconv.FormatBool(d.ShouldRetry), delay, d.Reason)
			if !d.ShouldRetry {
				break
			}
		}
	}
	return tw.Flush()
}

func createErrorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "errors",
		Usage: "查看 Redis 中最近的错误报告",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "显示条数",
				Value:   10,
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "显示后清空列表",
			},
		},
		Action: withRuntime(cmdErrors),
	}
}

func cmdErrors(ctx context.Context, cmd *cli.Command, rt *runtime) error {
	if rt.sink == nil {
		return newUsageError("errors: redis.addr is not configured")
	}
	limit := int(cmd.Int("limit"))
	if limit < 1 {
		return newUsageError("errors: --limit must be >= 1, got %d", limit)
	}

	infos, err := rt.sink.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(rt.out, "no reports")
	}
	tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			info.Timestamp.Format(time.RFC3339), info.Code, info.Operation, info.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if cmd.Bool("clear") {
		if err := rt.sink.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintf(rt.out, "cleared %s\n", rt.sink.Key())
	}
	return nil
}

func createWatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "按计划周期加载 URL，配置文件变更时热更新策略表",
		ArgsUsage: "<url>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "覆盖 watch.schedule（cron 表达式或 @every 描述符）",
			},
		},
		Action: withRuntime(cmdWatch),
	}
}

// watchParser 标准五段表达式加 @every 等描述符。
var watchParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func cmdWatch(ctx context.Context, cmd *cli.Command, rt *runtime) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return newUsageError("watch: at least one url is required")
	}
	schedule := rt.settings.Watch.Schedule
	if cmd.IsSet("schedule") {
		schedule = cmd.String("schedule")
	}

	r, err := newRecoverer(rt, urls)
	if err != nil {
		return err
	}
	defer r.close()
	reg, err := xloadable.NewRegistry[payload](len(urls), rt.controllerOptions()...)
	if err != nil {
		return err
	}
	p := &printer{w: rt.out}
	for _, u := range urls {
		cancel := reg.Get(u).Subscribe(func(s xloadable.State[payload]) {
			if s.Status == xloadable.StatusReady || s.Status == xloadable.StatusError {
				p.state(u, s)
			}
		})
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	sched := cron.New(
		cron.WithParser(watchParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := sched.AddFunc(schedule, func() { watchTick(gctx, reg, r, urls) }); err != nil {
		return newUsageError("watch: invalid schedule %q: %v", schedule, err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	if rt.path != "" {
		g.Go(func() error {
			err := rt.reloader().Watch(gctx, rt.cfg)
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	rt.logger.Info(ctx, "watching", xlog.Component("xloadctl"), xlog.Count(int64(len(urls))))
	return g.Wait()
}

// watchTick 对每个 URL 用控制器执行一次带恢复的加载。
func watchTick(ctx context.Context, reg *xloadable.Registry[payload], r *recoverer, urls []string) {
	_, _ = forEachURL(ctx, urls, func(ctx context.Context, u string) error { //nolint:errcheck // 结果由订阅打印
		_, err := reg.Get(u).Load(ctx, func(ctx context.Context) (payload, error) {
			return r.run(ctx, u)
		}, xloadable.WithName(u))
		return err
	})
}

// printer 串行输出状态变化。
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) state(u string, s xloadable.State[payload]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch s.Status {
	case xloadable.StatusReady:
		fmt.Fprintf(p.w, "%s\t%s\t%d bytes\t%s\n", u, s.Status, len(s.Data), s.Elapsed().Round(time.Millisecond))
	case xloadable.StatusError:
		msg := ""
		if s.Err != nil {
			msg = s.Err.Message
		}
		fmt.Fprintf(p.w, "%s\t%s\t%s\n", u, s.Status, msg)
	default:
		fmt.Fprintf(p.w, "%s\t%s\n", u, s.Status)
	}
}

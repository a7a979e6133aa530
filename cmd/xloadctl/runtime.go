package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xloadkit/internal/settings"
	"github.com/omeyang/xloadkit/pkg/config/xconf"
	"github.com/omeyang/xloadkit/pkg/observability/xlog"
	"github.com/omeyang/xloadkit/pkg/observability/xmetrics"
	"github.com/omeyang/xloadkit/pkg/observability/xreport"
	"github.com/omeyang/xloadkit/pkg/observability/xsampling"
	"github.com/omeyang/xloadkit/pkg/resilience/xbreaker"
	"github.com/omeyang/xloadkit/pkg/resilience/xrecover"
	"github.com/omeyang/xloadkit/pkg/state/xloadable"
	"github.com/omeyang/xloadkit/pkg/transport/xhttp"
)

// payload 探测到的原始 JSON 响应。
type payload = json.RawMessage

// runtime 一次命令执行所需的全部组件。
type runtime struct {
	out      io.Writer
	settings *settings.Settings
	cfg      xconf.Config // 未指定配置文件时为内置默认值
	path     string

	logger   xlog.LoggerWithLevel
	closeLog func() error

	stats    *stats
	store    *xreport.Store
	rdb      *redis.Client // redis.addr 为空时为 nil
	sink     *xreport.RedisSink
	reporter xreport.Reporter
	table    *xrecover.TableHolder
	observer xmetrics.Observer
	client   *xhttp.Client
	executor *xrecover.Executor
}

// newRuntime 按全局选项组装组件。配置错误返回 usageError。
func newRuntime(cmd *cli.Command) (*runtime, error) {
	root := cmd.Root()
	path := root.String("config")
	s, cfg, err := settings.Load(path)
	if err != nil {
		return nil, &usageError{msg: "load config", err: err}
	}
	applyLogFlags(root, &s.Log)
	if err := s.Validate(); err != nil {
		return nil, &usageError{msg: "invalid flags", err: err}
	}

	rt := &runtime{out: root.Writer, settings: s, cfg: cfg, path: path}
	if rt.logger, rt.closeLog, err = s.Log.NewLogger(root.ErrWriter); err != nil {
		return nil, &usageError{msg: "create logger", err: err}
	}
	xlog.SetDefault(rt.logger)

	if err := rt.init(root); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func applyLogFlags(cmd *cli.Command, l *settings.Log) {
	if cmd.IsSet("log-level") {
		l.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		l.Format = cmd.String("log-format")
	}
	if cmd.IsSet("log-file") {
		l.File = cmd.String("log-file")
	}
}

func (rt *runtime) init(root *cli.Command) error {
	rt.stats = newStats(root.Bool("stats"))
	observer, err := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(rt.stats.provider))
	if err != nil {
		return err
	}
	rt.observer = observer
	counter, err := xmetrics.NewFailureCounter(xmetrics.WithMeterProvider(rt.stats.provider))
	if err != nil {
		return err
	}
	metricsReporter, err := xreport.NewMetricsReporter(counter)
	if err != nil {
		return err
	}
	sampler, err := xsampling.NewRateSampler(rt.settings.Report.LogSampleRate)
	if err != nil {
		return &usageError{msg: "report.log_sample_rate", err: err}
	}

	rt.store = xreport.NewStore(xreport.WithHistoryLimit(rt.settings.Report.History))
	reporters := []xreport.Reporter{
		rt.store,
		xreport.NewLogReporter(rt.logger, xreport.WithSampler(sampler)),
		metricsReporter,
	}
	if r := rt.settings.Redis; r.Addr != "" {
		rt.rdb = redis.NewClient(&redis.Options{Addr: r.Addr, ContextTimeoutEnabled: true})
		rt.sink, err = xreport.NewRedisSink(rt.rdb,
			xreport.WithKey(r.Key),
			xreport.WithMaxLen(r.History),
			xreport.WithRateLimit(r.RatePerMinute),
			xreport.WithTimeout(r.Timeout),
			xreport.WithOnError(func(err error) {
				rt.logger.Warn(context.Background(), "push report to redis failed",
					xlog.Component("xloadctl"), xlog.Err(err))
			}),
		)
		if err != nil {
			return &usageError{msg: "redis", err: err}
		}
		reporters = append(reporters, rt.sink)
	}
	rt.reporter = xreport.Multi(reporters...)

	rt.table = xrecover.NewTableHolder(rt.settings.Table())
	rt.client = xhttp.NewClient(xhttp.Config{Timeout: root.Duration("timeout"), Observer: observer})
	rt.executor = xrecover.NewExecutor(
		xrecover.WithReporter(rt.reporter),
		xrecover.WithObserver(observer),
		xrecover.WithLogger(rt.logger),
	)
	return nil
}

// controllerOptions 所有控制器共用的选项。
func (rt *runtime) controllerOptions() []xloadable.Option {
	return []xloadable.Option{
		xloadable.WithReporter(rt.reporter),
		xloadable.WithLogger(rt.logger),
		xloadable.WithObserver(rt.observer),
		xloadable.WithDefaults(rt.settings.LoadOptions()...),
	}
}

// newBreaker 按配置创建熔断器，状态变化写日志。未启用时返回 nil。
func (rt *runtime) newBreaker(name string) *xbreaker.Breaker {
	return rt.settings.NewBreaker(name,
		xbreaker.WithSuccessPolicy(xbreaker.TransientOnly()),
		xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State) {
			rt.logger.Warn(context.Background(), "breaker state changed",
				xlog.Component("xbreaker"), xlog.Operation(name),
				slog.String("from", from.String()), slog.String("to", to.String()))
		}),
	)
}

// reloader 返回热更新策略表和日志级别的 Reloader。
func (rt *runtime) reloader() *settings.Reloader {
	return &settings.Reloader{Table: rt.table, Level: rt.logger, Logger: rt.logger}
}

// close 打印统计并释放资源，可重复调用。
func (rt *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if rt.stats != nil {
		errs = append(errs, rt.stats.flush(ctx, rt.out))
		rt.stats = nil
	}
	if rt.rdb != nil {
		errs = append(errs, rt.rdb.Close())
		rt.rdb = nil
	}
	if rt.closeLog != nil {
		errs = append(errs, rt.closeLog())
		rt.closeLog = nil
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(rt.out, "shutdown: %v\n", err)
	}
}

// withRuntime 包装命令动作：创建 runtime，结束后释放。
func withRuntime(action func(ctx context.Context, cmd *cli.Command, rt *runtime) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.close()
		return action(ctx, cmd, rt)
	}
}

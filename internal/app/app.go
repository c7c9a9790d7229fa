package app

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"runlens/internal/bot"
	"runlens/internal/cache"
	"runlens/internal/config"
	"runlens/internal/eventbus"
	"runlens/internal/loader"
	"runlens/internal/observability/debughttp"
	"runlens/internal/runtime/supervisor"
	"runlens/internal/scheduler"
	"runlens/internal/source"
	"runlens/internal/storage"
	"runlens/internal/transport"
	"runlens/internal/transport/telegram"
	"runlens/pkg/logx"
	"runlens/pkg/sdunit"
)

type App struct {
	cfgPath string

	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	adapter *telegram.Adapter
	loader  *loader.Loader
	sched   *scheduler.Service
	bot     *bot.Bot
	debug   *debughttp.Service

	updates chan transport.Update

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	// Start with the chat sink off, set its target, then apply the real
	// config so Apply does not warn about a missing target. The sender is
	// attached once the adapter exists.
	logCfg := mapLoggingConfig(cfg)
	bootCfg := logCfg
	bootCfg.Chat.Enabled = false
	logSvc, root := logx.New(bootCfg, nil)
	groupLog, _ := config.ParseChatID("telegram.group_log", cfg.Telegram.GroupLog)
	logSvc.SetChatTarget(groupLog, cfg.Logging.Chat.ThreadID)
	log := root.Comp("app")

	tcfg, err := mapTelegramConfig(cfg)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(tcfg, root)
	if err != nil {
		return nil, err
	}
	logSvc.SetSender(ad)
	logSvc.Apply(logCfg)

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, root)
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	ttl, err := mapCacheTTL(cfg)
	if err != nil {
		return nil, err
	}
	var c cache.Cache = cache.NewMemory(ttl)
	if cfg.Cache.Persist {
		if store == nil {
			log.Warn("cache.persist needs storage; using memory cache")
		} else {
			c = cache.NewStored(ttl, store, root)
		}
	}

	src, err := buildSource(cfg, root)
	if err != nil {
		return nil, err
	}
	lopt, err := mapLoaderOptions(cfg)
	if err != nil {
		return nil, err
	}
	bus := eventbus.New()
	ld := loader.New(src, c, bus, lopt, root)

	scfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(scfg, root)

	bcfg, err := mapBotConfig(cfg)
	if err != nil {
		return nil, err
	}
	b := bot.New(bcfg, ad, ld, sched, store, root)
	if unit := strings.TrimSpace(cfg.Systemd.Unit); unit != "" {
		b.SetUnitReporter(sdunit.NewProber(unit, 0))
	}

	dcfg, err := mapDebugConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		adapter: ad,
		loader:  ld,
		sched:   sched,
		bot:     b,
		updates: make(chan transport.Update, 256),
	}
	a.debug = debughttp.New(dcfg, a.health, root)
	if err := a.registerJobs(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

func buildSource(cfg *config.Config, log logx.Logger) (source.Source, error) {
	sc, ok, err := mapSourceConfig(cfg)
	if err != nil || !ok {
		return nil, err
	}
	return source.New(sc, log)
}

// registerJobs (re)creates the refresh and digest schedules from cfg. An
// empty schedule removes the job.
func (a *App) registerJobs(cfg *config.Config) error {
	if spec := strings.TrimSpace(cfg.Scheduler.Refresh); spec != "" {
		if err := a.sched.Add(scheduler.JobRefresh, spec, 0, scheduler.RefreshJob(a.loader, a.log)); err != nil {
			return fmt.Errorf("scheduler.refresh: %w", err)
		}
	} else {
		a.sched.Remove(scheduler.JobRefresh)
	}

	digestChat, err := config.ParseChatID("telegram.digest_chat", cfg.Telegram.DigestChat)
	if err != nil {
		return err
	}
	spec := strings.TrimSpace(cfg.Scheduler.Digest)
	if spec == "" || digestChat == 0 {
		if spec != "" {
			a.log.Warn("scheduler.digest is set but telegram.digest_chat is empty; digest disabled")
		}
		a.sched.Remove(scheduler.JobDigest)
		return nil
	}
	d := scheduler.Digest{
		Data:   a.loader,
		Sender: a.adapter,
		To:     transport.ChatTarget{ChatID: digestChat},
		Log:    a.log.Comp("digest"),
		Now:    time.Now,
	}
	if err := a.sched.Add(scheduler.JobDigest, spec, 0, d.Run); err != nil {
		return fmt.Errorf("scheduler.digest: %w", err)
	}
	return nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.Comp("config"))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	a.sched.Start(a.sup.Context())
	a.debug.Start(a.sup.Context())

	a.sup.Go("bot.dispatch", func(c context.Context) error {
		return a.bot.Run(c, a.updates)
	})

	events, unsub := a.bus.Subscribe(64)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.logEvent(e)
			}
		}
	})

	// warm the cache so the first command does not wait on the fetch
	a.sup.Go0("dataset.warmup", func(c context.Context) {
		wctx, cancel := context.WithTimeout(c, 2*time.Minute)
		defer cancel()
		if _, err := a.loader.Current(wctx); err != nil {
			a.log.Warn("initial dataset load failed", logx.Err(err))
		}
	})

	a.startFileWatch(a.cfgm.Get())

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})
	a.sup.Go("systemd.watchdog", func(c context.Context) error {
		return sdWatchdog(c, a.log)
	})

	sdNotify(a.log, daemon.SdNotifyReady)
	a.log.Info("app started")
	return nil
}

type healthReport struct {
	Status    string    `json:"status"`
	Dataset   string    `json:"dataset,omitempty"`
	ID        string    `json:"id,omitempty"`
	Records   int       `json:"records"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	Stale     bool      `json:"stale"`
	LastError string    `json:"last_error,omitempty"`
	Scheduler bool      `json:"scheduler"`
}

// health backs /healthz: ok once a dataset is loaded.
func (a *App) health() (any, bool) {
	st := a.loader.Status()
	r := healthReport{Status: "no_dataset", Stale: st.Stale, Scheduler: a.sched.Snapshot().Running}
	if st.LastErr != nil {
		r.LastError = st.LastErr.Error()
	}
	if s := st.Snapshot; s != nil {
		r.Status, r.Dataset, r.ID, r.Records, r.LoadedAt = "ok", s.Name, s.ID, s.Report.Kept, s.LoadedAt
		if st.Stale {
			r.Status = "stale"
		}
	}
	return r, st.Snapshot != nil
}

func (a *App) logEvent(e eventbus.Event) {
	switch d := e.Data.(type) {
	case loader.LoadedEvent:
		a.log.Debug("event", logx.String("type", e.Type), logx.String("id", d.ID),
			logx.String("origin", d.Origin), logx.Int("records", d.Records), logx.Int("days", d.Days))
	case loader.FailedEvent:
		a.log.Warn("dataset load failed", logx.String("origin", d.Origin), logx.String("err", d.Err))
	default:
		a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
	}
}

// applyConfig pushes a committed config into the running components.
// Token, poll timeout and storage changes need a restart.
func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	a.log.Debug("config change summary", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
	for _, s := range sections {
		if strings.HasSuffix(s, "(restart)") {
			a.log.Warn("config section changed; restart required for it to take effect", logx.String("section", strings.TrimSuffix(s, "(restart)")))
		}
	}

	groupLog, _ := config.ParseChatID("telegram.group_log", newCfg.Telegram.GroupLog)
	a.logs.SetChatTarget(groupLog, newCfg.Logging.Chat.ThreadID)
	a.logs.Apply(mapLoggingConfig(newCfg))

	if bcfg, err := mapBotConfig(newCfg); err == nil {
		a.bot.Apply(bcfg)
	}

	if oldCfg.Systemd != newCfg.Systemd {
		if unit := strings.TrimSpace(newCfg.Systemd.Unit); unit != "" {
			a.bot.SetUnitReporter(sdunit.NewProber(unit, 0))
		} else {
			a.bot.SetUnitReporter(nil)
		}
	}

	if dcfg, err := mapDebugConfig(newCfg); err == nil {
		a.debug.Reconfigure(ctx, dcfg)
	}

	if !reflect.DeepEqual(oldCfg.Source, newCfg.Source) {
		src, err := buildSource(newCfg, a.log)
		if err != nil {
			a.log.Warn("invalid source config; keeping previous", logx.Err(err))
		} else {
			a.loader.SetSource(ctx, src)
			a.startFileWatch(newCfg)
		}
	}
	if !reflect.DeepEqual(oldCfg.Timeline, newCfg.Timeline) || !reflect.DeepEqual(oldCfg.Source.Columns, newCfg.Source.Columns) ||
		oldCfg.Source.Sheet != newCfg.Source.Sheet {
		if lopt, err := mapLoaderOptions(newCfg); err == nil {
			a.loader.SetOptions(lopt)
		}
	}
	if oldCfg.Cache.TTL != newCfg.Cache.TTL || oldCfg.Cache.Persist != newCfg.Cache.Persist {
		a.log.Warn("cache config changed; restart required for it to take effect")
	}

	if scfg, err := mapSchedulerConfig(newCfg); err == nil {
		if err := a.registerJobs(newCfg); err != nil {
			a.log.Warn("scheduler jobs not updated", logx.Err(err))
		}
		a.sched.Apply(scfg)
	}

	a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
}

// startFileWatch replaces the file watcher. Only file sources with watch
// enabled are watched; a change forces a reload.
func (a *App) startFileWatch(cfg *config.Config) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchCancel = nil
	}
	sc, ok, err := mapSourceConfig(cfg)
	if err != nil || !ok || sc.Kind != "file" || !cfg.Source.Watch {
		return
	}
	wctx, cancel := context.WithCancel(a.sup.Context())
	a.watchCancel = cancel
	a.sup.Go0("source.watch", func(c context.Context) {
		err := source.WatchFile(wctx, sc.Path, 0, a.log, func() {
			rctx, cancel := context.WithTimeout(wctx, time.Minute)
			defer cancel()
			if _, err := a.loader.Refresh(rctx); err != nil {
				a.log.Warn("reload after file change failed", logx.String("path", sc.Path), logx.Err(err))
				return
			}
			a.log.Info("dataset reloaded after file change", logx.String("path", sc.Path))
		})
		if err != nil {
			a.log.Warn("source watch stopped", logx.Err(err))
		}
	})
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	sdNotify(a.log, daemon.SdNotifyStopping)

	a.sup.Cancel()

	// Each step gets an upper bound so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx := ctx
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem < max {
					max = rem
				}
			}
			if max <= 0 {
				a.log.Warn("stop step skipped, deadline reached", logx.String("name", name))
				return
			}
			var cancel context.CancelFunc
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
	}

	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("debughttp", 1*time.Second, func(c context.Context) error { a.debug.Stop(c); return nil })
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("storage", 1*time.Second, func(c context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

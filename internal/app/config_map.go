package app

import (
	"fmt"
	"net"
	"strings"
	"time"

	"runlens/internal/bot"
	"runlens/internal/config"
	"runlens/internal/loader"
	"runlens/internal/observability/debughttp"
	"runlens/internal/scheduler"
	"runlens/internal/source"
	"runlens/internal/storage"
	"runlens/internal/timeline"
	"runlens/internal/transport/telegram"
	"runlens/pkg/logx"
)

const (
	defaultCacheTTL     = 10 * time.Minute
	defaultPollTimeout  = 10 * time.Second
	defaultFetchTimeout = 60 * time.Second
)

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	poll, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, defaultPollTimeout)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{Token: cfg.Telegram.Token, PollTimeout: poll}, nil
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File:    logx.FileConfig{Enabled: lc.File.Enabled, Path: lc.File.Path},
		Chat: logx.ChatConfig{
			Enabled:    lc.Chat.Enabled,
			ThreadID:   lc.Chat.ThreadID,
			MinLevel:   lc.Chat.MinLevel,
			RatePerSec: lc.Chat.RatePerSec,
		},
	}
}

// mapSourceConfig returns ok=false when no source is configured; the bot
// then runs on uploads only.
func mapSourceConfig(cfg *config.Config) (source.Config, bool, error) {
	sc := cfg.Source
	kind := strings.ToLower(strings.TrimSpace(sc.Kind))
	if kind == "" || kind == "none" || kind == "upload" {
		return source.Config{}, false, nil
	}
	timeout, err := config.ParseDurationOrDefault("source.timeout", sc.Timeout, defaultFetchTimeout)
	if err != nil {
		return source.Config{}, false, err
	}
	if sc.RatePerMin < 0 {
		return source.Config{}, false, fmt.Errorf("source.rate_per_min must be >= 0")
	}
	if sc.MaxBytes < 0 {
		return source.Config{}, false, fmt.Errorf("source.max_bytes must be >= 0")
	}
	out := source.Config{
		Kind:       kind,
		URL:        strings.TrimSpace(sc.URL),
		Timeout:    timeout,
		RatePerMin: sc.RatePerMin,
		MaxBytes:   sc.MaxBytes,
		Path:       strings.TrimSpace(sc.Path),
	}
	switch kind {
	case "http", "https", "sharepoint":
		if out.URL == "" {
			return source.Config{}, false, fmt.Errorf("source.url is required when source.kind=%s", kind)
		}
	case "file":
		if out.Path == "" {
			return source.Config{}, false, fmt.Errorf("source.path is required when source.kind=file")
		}
	case "s3", "minio":
		o := sc.ObjectStore
		if o == nil || strings.TrimSpace(o.Bucket) == "" || strings.TrimSpace(o.Key) == "" {
			return source.Config{}, false, fmt.Errorf("source.s3.bucket and source.s3.key are required when source.kind=%s", kind)
		}
		out.Object = source.ObjectConfig{
			Endpoint:  strings.TrimSpace(o.Endpoint),
			AccessKey: o.AccessKey,
			SecretKey: o.SecretKey,
			Bucket:    strings.TrimSpace(o.Bucket),
			Key:       strings.TrimSpace(o.Key),
			UseSSL:    o.UseSSL,
			Region:    strings.TrimSpace(o.Region),
		}
	default:
		return source.Config{}, false, fmt.Errorf("unknown source.kind: %s", sc.Kind)
	}
	return out, true, nil
}

func mapCacheTTL(cfg *config.Config) (time.Duration, error) {
	ttl, err := config.ParseDurationOrDefault("cache.ttl", cfg.Cache.TTL, defaultCacheTTL)
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("cache.ttl must be > 0")
	}
	return ttl, nil
}

func mapTimelineOptions(cfg *config.Config) (timeline.Options, error) {
	tc := cfg.Timeline
	opt := timeline.Options{DayFirst: tc.DayFirst}
	if tz := strings.TrimSpace(tc.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return timeline.Options{}, fmt.Errorf("timeline.timezone: invalid %q: %w", tz, err)
		}
		opt.Location = loc
	}
	inv, err := timeline.ParseInvertedPolicy(tc.Inverted)
	if err != nil {
		return timeline.Options{}, fmt.Errorf("timeline.inverted: %w", err)
	}
	opt.Inverted = inv
	mode, err := timeline.ParseOverlapMode(tc.OverlapMode)
	if err != nil {
		return timeline.Options{}, fmt.Errorf("timeline.overlap_mode: %w", err)
	}
	opt.Overlap = mode
	for _, w := range tc.KnownWorkspaces {
		if w = strings.TrimSpace(w); w != "" {
			opt.KnownWorkspaces = append(opt.KnownWorkspaces, w)
		}
	}
	return opt, nil
}

func mapLoaderOptions(cfg *config.Config) (loader.Options, error) {
	topt, err := mapTimelineOptions(cfg)
	if err != nil {
		return loader.Options{}, err
	}
	// a failed fetch is not retried by views before the cache would expire
	retry, err := mapCacheTTL(cfg)
	if err != nil {
		return loader.Options{}, err
	}
	cols := timeline.DefaultColumns()
	if c := cfg.Source.Columns; c != nil {
		// configured aliases are tried before the built-in ones
		cols = timeline.Columns{
			Workload:  append(append([]string(nil), c.Workload...), cols.Workload...),
			Workspace: append(append([]string(nil), c.Workspace...), cols.Workspace...),
			Date:      append(append([]string(nil), c.Date...), cols.Date...),
			Start:     append(append([]string(nil), c.Start...), cols.Start...),
			End:       append(append([]string(nil), c.End...), cols.End...),
		}
	}
	return loader.Options{
		Sheet:    strings.TrimSpace(cfg.Source.Sheet),
		Columns:  cols,
		Timeline: topt,
		Retry:    retry,
	}, nil
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	sc := scheduler.Config{Enabled: cfg.Scheduler.Enabled, Timezone: strings.TrimSpace(cfg.Scheduler.Timezone)}
	if sc.Timezone != "" {
		if _, err := time.LoadLocation(sc.Timezone); err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler.timezone: invalid %q: %w", sc.Timezone, err)
		}
	}
	for path, raw := range map[string]string{"scheduler.refresh": cfg.Scheduler.Refresh, "scheduler.digest": cfg.Scheduler.Digest} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := scheduler.ParseSchedule(raw); err != nil {
			return scheduler.Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return sc, nil
}

func mapBotConfig(cfg *config.Config) (bot.Config, error) {
	if cfg.Telegram.MaxUploadBytes < 0 {
		return bot.Config{}, fmt.Errorf("telegram.max_upload_bytes must be >= 0")
	}
	return bot.Config{
		Owners:         append([]int64(nil), cfg.Telegram.OwnerUserIDs...),
		MaxUploadBytes: cfg.Telegram.MaxUploadBytes,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapDebugConfig(cfg *config.Config) (debughttp.Config, error) {
	dc := cfg.Debug
	if dc == nil {
		return debughttp.Config{}, nil
	}
	addr := strings.TrimSpace(dc.Addr)
	if addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return debughttp.Config{}, fmt.Errorf("debug.addr: %w", err)
		}
	}
	return debughttp.Config{
		Enabled:       dc.Enabled,
		Addr:          addr,
		Token:         strings.TrimSpace(dc.Token),
		AllowInsecure: dc.AllowInsecure,
		Pprof:         dc.Pprof,
	}, nil
}

// validateConfig rejects configs that would fail to map. It runs before a
// hot reload is committed.
func validateConfig(cfg *config.Config) error {
	if _, err := mapTelegramConfig(cfg); err != nil {
		return err
	}
	if _, _, err := mapSourceConfig(cfg); err != nil {
		return err
	}
	if _, err := mapCacheTTL(cfg); err != nil {
		return err
	}
	if _, err := mapLoaderOptions(cfg); err != nil {
		return err
	}
	if _, err := mapSchedulerConfig(cfg); err != nil {
		return err
	}
	if _, err := mapBotConfig(cfg); err != nil {
		return err
	}
	if _, err := config.ParseChatID("telegram.group_log", cfg.Telegram.GroupLog); err != nil {
		return err
	}
	if _, err := config.ParseChatID("telegram.digest_chat", cfg.Telegram.DigestChat); err != nil {
		return err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	if _, err := mapDebugConfig(cfg); err != nil {
		return err
	}
	return nil
}

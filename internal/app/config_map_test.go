package app

import (
	"strings"
	"testing"
	"time"

	"runlens/internal/config"
	"runlens/internal/timeline"
)

func baseConfig() *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{Token: "123:abc", OwnerUserIDs: []int64{7}},
		Source:   config.SourceConfig{Kind: "http", URL: "https://example.sharepoint.com/:x:/g/doc?e=1"},
	}
}

func TestMapSourceConfigKinds(t *testing.T) {
	cfg := baseConfig()
	sc, ok, err := mapSourceConfig(cfg)
	if err != nil || !ok {
		t.Fatalf("http: ok=%v err=%v", ok, err)
	}
	if sc.Timeout != defaultFetchTimeout || sc.Kind != "http" {
		t.Fatalf("sc=%+v", sc)
	}

	cfg.Source = config.SourceConfig{Kind: "none"}
	if _, ok, err := mapSourceConfig(cfg); err != nil || ok {
		t.Fatalf("none: ok=%v err=%v", ok, err)
	}

	cfg.Source = config.SourceConfig{Kind: "file"}
	if _, _, err := mapSourceConfig(cfg); err == nil {
		t.Fatalf("file without path should fail")
	}

	cfg.Source = config.SourceConfig{Kind: "S3", ObjectStore: &config.S3{Endpoint: "minio:9000", Bucket: "logs", Key: "runs.xlsx"}}
	sc, ok, err = mapSourceConfig(cfg)
	if err != nil || !ok {
		t.Fatalf("s3: ok=%v err=%v", ok, err)
	}
	if sc.Kind != "s3" || sc.Object.Bucket != "logs" || sc.Object.Key != "runs.xlsx" {
		t.Fatalf("sc=%+v", sc)
	}

	cfg.Source = config.SourceConfig{Kind: "ftp"}
	if _, _, err := mapSourceConfig(cfg); err == nil || !strings.Contains(err.Error(), "unknown source.kind") {
		t.Fatalf("err=%v", err)
	}
}

func TestMapLoaderOptions(t *testing.T) {
	cfg := baseConfig()
	cfg.Source.Sheet = " Runs "
	cfg.Source.Columns = &config.ColumnsConfig{Workload: []string{"Job"}}
	cfg.Timeline = config.TimelineConfig{
		Timezone:        "America/Bogota",
		Inverted:        "rollover",
		OverlapMode:     "adjacent",
		KnownWorkspaces: []string{" MAM ", ""},
	}
	opt, err := mapLoaderOptions(cfg)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if opt.Sheet != "Runs" {
		t.Fatalf("sheet=%q", opt.Sheet)
	}
	if opt.Columns.Workload[0] != "Job" || len(opt.Columns.Workload) != len(timeline.DefaultColumns().Workload)+1 {
		t.Fatalf("workload aliases=%v", opt.Columns.Workload)
	}
	if opt.Timeline.Location == nil || opt.Timeline.Location.String() != "America/Bogota" {
		t.Fatalf("loc=%v", opt.Timeline.Location)
	}
	if opt.Timeline.Inverted != timeline.InvertedRollover || opt.Timeline.Overlap != timeline.OverlapAdjacent {
		t.Fatalf("timeline=%+v", opt.Timeline)
	}
	if len(opt.Timeline.KnownWorkspaces) != 1 || opt.Timeline.KnownWorkspaces[0] != "MAM" {
		t.Fatalf("known=%v", opt.Timeline.KnownWorkspaces)
	}
	if opt.Retry != defaultCacheTTL {
		t.Fatalf("retry=%v want cache ttl", opt.Retry)
	}
}

func TestMapLoaderOptionsRejectsBadValues(t *testing.T) {
	for name, tc := range map[string]config.TimelineConfig{
		"timezone": {Timezone: "Mars/Olympus"},
		"inverted": {Inverted: "swap"},
		"overlap":  {OverlapMode: "pairs"},
	} {
		cfg := baseConfig()
		cfg.Timeline = tc
		if _, err := mapLoaderOptions(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestMapCacheTTL(t *testing.T) {
	cfg := baseConfig()
	ttl, err := mapCacheTTL(cfg)
	if err != nil || ttl != defaultCacheTTL {
		t.Fatalf("ttl=%v err=%v", ttl, err)
	}
	cfg.Cache.TTL = "90s"
	if ttl, _ := mapCacheTTL(cfg); ttl != 90*time.Second {
		t.Fatalf("ttl=%v", ttl)
	}
	cfg.Cache.TTL = "soon"
	if _, err := mapCacheTTL(cfg); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMapStorageConfig(t *testing.T) {
	cfg := baseConfig()
	if _, enabled, err := mapStorageConfig(cfg); enabled || err != nil {
		t.Fatalf("nil storage: enabled=%v err=%v", enabled, err)
	}
	cfg.Storage = &config.StorageConfig{Driver: "sqlite"}
	if _, _, err := mapStorageConfig(cfg); err == nil {
		t.Fatalf("sqlite without path should fail")
	}
	cfg.Storage = &config.StorageConfig{Driver: "SQLite", Path: "./runlens.db", BusyTimeout: "3s"}
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil || !enabled {
		t.Fatalf("enabled=%v err=%v", enabled, err)
	}
	if sc.Driver != "sqlite" || sc.BusyTimeout != 3*time.Second {
		t.Fatalf("sc=%+v", sc)
	}
	cfg.Storage = &config.StorageConfig{Driver: "redis"}
	if _, _, err := mapStorageConfig(cfg); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler = config.SchedulerConfig{Enabled: true, Refresh: "15m", Digest: "0 7 * * *"}
	cfg.Telegram.DigestChat = "-100200"
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := baseConfig()
	bad.Scheduler.Refresh = "banana"
	if err := validateConfig(bad); err == nil || !strings.Contains(err.Error(), "scheduler.refresh") {
		t.Fatalf("err=%v", err)
	}

	bad = baseConfig()
	bad.Telegram.GroupLog = "logs"
	if err := validateConfig(bad); err == nil {
		t.Fatalf("non-numeric group_log should fail")
	}

	bad = baseConfig()
	bad.Telegram.PollTimeout = "fast"
	if err := validateConfig(bad); err == nil {
		t.Fatalf("bad poll timeout should fail")
	}
}

func TestMapLoggingConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Logging = config.LoggingConfig{
		Level: "debug",
		File:  config.LoggingFile{Enabled: true, Path: "/tmp/runlens.log"},
		Chat:  config.LoggingChat{Enabled: true, ThreadID: 4, MinLevel: "warn", RatePerSec: 2},
	}
	lc := mapLoggingConfig(cfg)
	if lc.Level != "debug" || !lc.File.Enabled || lc.Chat.ThreadID != 4 || lc.Chat.RatePerSec != 2 {
		t.Fatalf("lc=%+v", lc)
	}
}

func TestMapDebugConfig(t *testing.T) {
	cfg := baseConfig()
	dc, err := mapDebugConfig(cfg)
	if err != nil || dc.Enabled {
		t.Fatalf("nil debug: %+v err=%v", dc, err)
	}
	cfg.Debug = &config.DebugConfig{Enabled: true, Addr: " 127.0.0.1:7070 ", Token: " t ", Pprof: true}
	dc, err = mapDebugConfig(cfg)
	if err != nil || dc.Addr != "127.0.0.1:7070" || dc.Token != "t" || !dc.Pprof {
		t.Fatalf("dc=%+v err=%v", dc, err)
	}
	cfg.Debug.Addr = "7070"
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("addr without port should fail")
	}
}

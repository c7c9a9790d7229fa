package config

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
// Sections map onto component configs in internal/app.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Source    SourceConfig    `json:"source"`
	Cache     CacheConfig     `json:"cache"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	Timeline  TimelineConfig  `json:"timeline"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Systemd   SystemdConfig   `json:"systemd"`
	Debug     *DebugConfig    `json:"debug,omitempty"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// GroupLog is the chat id receiving WARN+ log lines.
	GroupLog string `json:"group_log"`
	// DigestChat is the chat id receiving the daily overlap digest.
	DigestChat string `json:"digest_chat,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
	// MaxUploadBytes caps documents accepted as dataset uploads.
	MaxUploadBytes int64 `json:"max_upload_bytes,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"chat"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingChat struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// SourceConfig selects where the execution log comes from.
//
// Kind values: "http" (share link), "file" (local path), "s3" (object store).
//
// Example:
//
//	"source": { "kind": "http", "url": "https://tenant.sharepoint.com/:x:/g/...?e=abc" }
type SourceConfig struct {
	Kind string `json:"kind"`

	URL         string  `json:"url,omitempty"`
	Timeout     string  `json:"timeout,omitempty"`
	RatePerMin  float64 `json:"rate_per_min,omitempty"`
	MaxBytes    int64   `json:"max_bytes,omitempty"`
	Path        string  `json:"path,omitempty"`
	Watch       bool    `json:"watch,omitempty"`
	Sheet       string  `json:"sheet,omitempty"`
	ObjectStore *S3     `json:"s3,omitempty"`

	// Columns adds header aliases on top of the built-in ones.
	Columns *ColumnsConfig `json:"columns,omitempty"`
}

type S3 struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	UseSSL    bool   `json:"use_ssl"`
	Region    string `json:"region,omitempty"`
}

type ColumnsConfig struct {
	Workload  []string `json:"workload,omitempty"`
	Workspace []string `json:"workspace,omitempty"`
	Date      []string `json:"date,omitempty"`
	Start     []string `json:"start,omitempty"`
	End       []string `json:"end,omitempty"`
}

// CacheConfig controls the dataset cache. TTL defaults to "10m".
// Persist keeps the raw document in storage so restarts within the TTL
// do not refetch (requires storage).
type CacheConfig struct {
	TTL     string `json:"ttl,omitempty"`
	Persist bool   `json:"persist,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./data/runlens" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite
}

// TimelineConfig tunes normalization and overlap detection.
type TimelineConfig struct {
	Timezone        string   `json:"timezone,omitempty"`
	DayFirst        bool     `json:"day_first,omitempty"`
	Inverted        string   `json:"inverted,omitempty"`     // keep|flag|drop|rollover
	OverlapMode     string   `json:"overlap_mode,omitempty"` // sweep|adjacent
	KnownWorkspaces []string `json:"known_workspaces,omitempty"`
}

// SchedulerConfig controls background jobs. Schedules accept cron
// expressions, Go durations or HH:MM intervals.
type SchedulerConfig struct {
	Enabled  bool   `json:"enabled"`
	Timezone string `json:"timezone,omitempty"`
	Refresh  string `json:"refresh,omitempty"`
	Digest   string `json:"digest,omitempty"`
}

// SystemdConfig names the unit runlens runs as; /status then shows its
// state. Empty disables the probe.
type SystemdConfig struct {
	Unit string `json:"unit,omitempty"`
}

// DebugConfig controls the operator HTTP server (/healthz, pprof).
// A non-loopback Addr needs Token unless AllowInsecure is set.
type DebugConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"` // default 127.0.0.1:6060
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	Pprof         bool   `json:"pprof,omitempty"`
}

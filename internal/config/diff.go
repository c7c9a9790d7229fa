package config

import (
	"reflect"
	"strings"

	"runlens/pkg/logx"
)

// SummarizeChange lists the sections that differ between two configs and
// returns log fields describing the new values. Secrets (bot token, object
// store keys) are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var (
		changed []string
		fields  []logx.Field
	)

	if oldCfg.Telegram.Token != newCfg.Telegram.Token ||
		strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout) {
		changed = append(changed, "telegram(restart)")
	}
	if !reflect.DeepEqual(oldCfg.Telegram.OwnerUserIDs, newCfg.Telegram.OwnerUserIDs) ||
		oldCfg.Telegram.GroupLog != newCfg.Telegram.GroupLog ||
		oldCfg.Telegram.DigestChat != newCfg.Telegram.DigestChat ||
		oldCfg.Telegram.MaxUploadBytes != newCfg.Telegram.MaxUploadBytes {
		changed = append(changed, "telegram")
		fields = append(fields,
			logx.Int("telegram.owner_count", len(newCfg.Telegram.OwnerUserIDs)),
			logx.Bool("telegram.group_log_set", strings.TrimSpace(newCfg.Telegram.GroupLog) != ""),
			logx.Bool("telegram.digest_chat_set", strings.TrimSpace(newCfg.Telegram.DigestChat) != ""),
		)
	}
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		fields = append(fields,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file", newCfg.Logging.File.Enabled),
			logx.Bool("logging.chat", newCfg.Logging.Chat.Enabled),
		)
	}
	if !reflect.DeepEqual(oldCfg.Source, newCfg.Source) {
		changed = append(changed, "source")
		fields = append(fields, logx.String("source.kind", newCfg.Source.Kind))
	}
	if oldCfg.Cache != newCfg.Cache {
		changed = append(changed, "cache")
		fields = append(fields, logx.String("cache.ttl", newCfg.Cache.TTL), logx.Bool("cache.persist", newCfg.Cache.Persist))
	}
	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage(restart)")
	}
	if !reflect.DeepEqual(oldCfg.Timeline, newCfg.Timeline) {
		changed = append(changed, "timeline")
		fields = append(fields,
			logx.String("timeline.timezone", newCfg.Timeline.Timezone),
			logx.String("timeline.inverted", newCfg.Timeline.Inverted),
			logx.String("timeline.overlap_mode", newCfg.Timeline.OverlapMode),
		)
	}
	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
		fields = append(fields,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.String("scheduler.refresh", newCfg.Scheduler.Refresh),
			logx.String("scheduler.digest", newCfg.Scheduler.Digest),
		)
	}
	if oldCfg.Systemd != newCfg.Systemd {
		changed = append(changed, "systemd")
		fields = append(fields, logx.String("systemd.unit", newCfg.Systemd.Unit))
	}
	if !reflect.DeepEqual(oldCfg.Debug, newCfg.Debug) {
		changed = append(changed, "debug")
		if newCfg.Debug != nil {
			fields = append(fields, logx.Bool("debug.enabled", newCfg.Debug.Enabled), logx.String("debug.addr", newCfg.Debug.Addr))
		}
	}
	return changed, fields
}

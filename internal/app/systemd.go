package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"runlens/pkg/logx"
)

// sdNotify reports a state change to systemd. Outside a unit with
// Type=notify it is a no-op.
func sdNotify(log logx.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		log.Debug("sd_notify", logx.String("state", state))
	}
}

// sdWatchdog pings the systemd watchdog at half the configured interval
// until ctx is done. It returns at once when WatchdogSec is not set.
func sdWatchdog(ctx context.Context, log logx.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		log.Warn("systemd watchdog unavailable", logx.Err(err))
		return nil
	}
	if interval <= 0 {
		return nil
	}
	tick := time.NewTicker(interval / 2)
	defer tick.Stop()
	log.Info("systemd watchdog enabled", logx.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			sdNotify(log, daemon.SdNotifyWatchdog)
		}
	}
}

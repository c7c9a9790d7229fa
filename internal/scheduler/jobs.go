package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"runlens/internal/loader"
	"runlens/internal/render"
	"runlens/internal/timeline"
	"runlens/internal/transport"
	"runlens/pkg/logx"
	"runlens/pkg/tgui"
)

// Job names registered by the app.
const (
	JobRefresh = "refresh"
	JobDigest  = "digest"
)

type Refresher interface {
	Refresh(ctx context.Context) (*loader.Snapshot, error)
}

type DatasetProvider interface {
	Current(ctx context.Context) (*loader.Snapshot, error)
	Options() loader.Options
}

// RefreshJob forces a reload from the source. A failure while a previous
// snapshot is still served is reported as the job error.
func RefreshJob(r Refresher, log logx.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		snap, err := r.Refresh(ctx)
		if err != nil {
			return err
		}
		log.Debug("scheduled refresh", logx.String("id", snap.ID), logx.Int("records", snap.Report.Kept))
		return nil
	}
}

// Digest sends the overlap report of the previous day to a chat.
type Digest struct {
	Data   DatasetProvider
	Sender transport.Sender
	To     transport.ChatTarget
	Log    logx.Logger
	Now    func() time.Time
}

func (d Digest) Run(ctx context.Context) error {
	if d.Sender == nil || d.To.ChatID == 0 {
		return errors.New("digest: no target chat")
	}
	snap, err := d.Data.Current(ctx)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	opt := d.Data.Options().Timeline
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	day := timeline.DateOf(now().In(snap.Dataset.Location())).AddDays(-1)
	v := timeline.Build(snap.Dataset, timeline.Selection{Day: day, Period: timeline.PeriodAll}, opt)

	sendOpt := &transport.SendOptions{ParseMode: tgui.ParseMode, DisablePreview: true}
	for _, msg := range render.Digest(v) {
		if _, err := d.Sender.SendText(ctx, d.To, msg, sendOpt); err != nil {
			return fmt.Errorf("digest: send: %w", err)
		}
	}
	d.Log.Info("digest sent", logx.String("day", day.String()), logx.Int("overlaps", len(v.Overlaps)))
	return nil
}

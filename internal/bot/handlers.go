package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"runlens/internal/loader"
	"runlens/internal/render"
	"runlens/internal/timeline"
	"runlens/internal/transport"
	"runlens/pkg/logx"
	"runlens/pkg/tgui"
)

const selectionUsage = "[YYYY-MM-DD|today|yesterday] [all|am|pm]"

func (b *Bot) builtinCommands() []*Command {
	return []*Command{
		{Name: "start", Description: "welcome and usage", Handle: b.handleHelp},
		{Name: "help", Aliases: []string{"h"}, Description: "list commands", Handle: b.handleHelp},
		{Name: "days", Description: "days available in the dataset", Handle: b.handleDays},
		{Name: "dataset", Description: "current dataset details", Handle: b.handleDataset},
		{Name: "gantt", Aliases: []string{"timeline"}, Description: "timeline chart of a day", Usage: "/gantt " + selectionUsage, Handle: b.handleGantt},
		{Name: "overlaps", Description: "overlapping executions", Usage: "/overlaps " + selectionUsage, Handle: b.handleOverlaps},
		{Name: "summary", Description: "per-workspace statistics", Usage: "/summary [" + selectionUsage + "]", Handle: b.handleSummary},
		{Name: "export", Description: "CSV of the selected executions", Usage: "/export " + selectionUsage, Handle: b.handleExport},
		{Name: "status", Description: "loader and scheduler status", Handle: b.handleStatus},
		{Name: "refresh", Description: "reload the dataset from the source", OwnerOnly: true, Handle: b.handleRefresh},
	}
}

func htmlOpt() *transport.SendOptions {
	return &transport.SendOptions{ParseMode: tgui.ParseMode, DisablePreview: true}
}

func (b *Bot) sendHTML(ctx context.Context, to transport.ChatTarget, msgs ...string) error {
	for _, m := range msgs {
		if _, err := b.adapter.SendText(ctx, to, m, htmlOpt()); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
	return nil
}

// snapshot loads the current dataset, turning "nothing available" into
// an upload request for the user.
func (b *Bot) snapshot(ctx context.Context, req *Request) (*loader.Snapshot, error) {
	snap, err := b.data.Current(ctx)
	if errors.Is(err, loader.ErrNoDataset) {
		req.Log.Warn("no dataset", logx.Err(err))
		return nil, b.sendHTML(ctx, req.Chat, noDatasetText(err))
	}
	return snap, err
}

func noDatasetText(err error) string {
	return tgui.JoinH("\n",
		tgui.B("⚠️ The execution log could not be loaded."),
		tgui.Code(err.Error()),
		tgui.Esc("Send the exported .xlsx or .csv file in this chat to load it manually."),
	).String()
}

// view builds the view of the selection named by req.Args.
func (b *Bot) view(ctx context.Context, req *Request) (*timeline.View, error) {
	snap, err := b.snapshot(ctx, req)
	if err != nil || snap == nil {
		return nil, err
	}
	sel, err := parseSelection(req.Args, snap.Dataset, b.now)
	if err != nil {
		return nil, err
	}
	req.Target = sel.String()
	return timeline.Build(snap.Dataset, sel, b.data.Options().Timeline), nil
}

func (b *Bot) handleHelp(ctx context.Context, req *Request) error {
	b.mu.RLock()
	cmds := append([]*Command(nil), b.ordered...)
	b.mu.RUnlock()

	parts := []tgui.H{
		tgui.B("runlens"),
		tgui.Esc("Timeline, overlaps and statistics of the job execution log."),
		"",
	}
	for _, c := range cmds {
		line := tgui.JoinH(" ", tgui.Code(usage(c)), tgui.Esc("· "+c.Description))
		if c.OwnerOnly {
			line = tgui.JoinH(" ", line, tgui.Esc("🔒"))
		}
		parts = append(parts, line)
	}
	if b.isOwner(req.Msg.FromID) {
		parts = append(parts, "", tgui.I("Send an .xlsx or .csv file to replace the dataset."))
	}
	return b.sendHTML(ctx, req.Chat, tgui.JoinH("\n", parts...).String())
}

func (b *Bot) handleDays(ctx context.Context, req *Request) error {
	snap, err := b.snapshot(ctx, req)
	if err != nil || snap == nil {
		return err
	}
	return b.sendHTML(ctx, req.Chat, render.Days(snap.Dataset.Days(), 30))
}

func (b *Bot) handleDataset(ctx context.Context, req *Request) error {
	snap, err := b.snapshot(ctx, req)
	if err != nil || snap == nil {
		return err
	}
	return b.sendHTML(ctx, req.Chat, render.Loaded(snap))
}

func (b *Bot) handleGantt(ctx context.Context, req *Request) error {
	v, err := b.view(ctx, req)
	if err != nil || v == nil {
		return err
	}
	return b.sendHTML(ctx, req.Chat, render.Gantt(v, b.config().ChartWidth)...)
}

func (b *Bot) handleOverlaps(ctx context.Context, req *Request) error {
	v, err := b.view(ctx, req)
	if err != nil || v == nil {
		return err
	}
	return b.sendHTML(ctx, req.Chat, render.Overlaps(v)...)
}

func (b *Bot) handleSummary(ctx context.Context, req *Request) error {
	if len(req.Args) == 0 {
		snap, err := b.snapshot(ctx, req)
		if err != nil || snap == nil {
			return err
		}
		return b.sendHTML(ctx, req.Chat, render.Merge(render.Summary(timeline.Summarize(snap.Dataset)), 0)...)
	}
	v, err := b.view(ctx, req)
	if err != nil || v == nil {
		return err
	}
	return b.sendHTML(ctx, req.Chat, render.Merge(render.Selection(v), 0)...)
}

func (b *Bot) handleExport(ctx context.Context, req *Request) error {
	v, err := b.view(ctx, req)
	if err != nil || v == nil {
		return err
	}
	if v.Empty() {
		return b.sendHTML(ctx, req.Chat, render.NoData(v.Selection))
	}
	var buf bytes.Buffer
	if err := timeline.WriteCSV(&buf, v.Executions); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	f := transport.File{
		Name:    timeline.ExportName(v.Selection),
		MIME:    "text/csv",
		Data:    buf.Bytes(),
		Caption: fmt.Sprintf("%d executions · %s", len(v.Executions), v.Selection),
	}
	req.Target = f.Name
	_, err = b.adapter.SendFile(ctx, req.Chat, f, nil)
	return err
}

func (b *Bot) handleStatus(ctx context.Context, req *Request) error {
	var extra []tgui.H
	if b.sched != nil {
		s := b.sched.Snapshot()
		state := "off"
		if s.Running {
			state = "on (" + s.Timezone + ")"
		}
		extra = append(extra, tgui.KV("scheduler", state))
		for _, j := range s.Jobs {
			line := fmt.Sprintf("%s [%s]", j.Name, j.Spec)
			if !j.Next.IsZero() {
				line += " next " + j.Next.Format("01-02 15:04")
			}
			if j.LastErr != "" {
				line += " · last error: " + j.LastErr
			}
			extra = append(extra, tgui.Esc("• "+line))
		}
	}
	if u := b.unitReporter(); u != nil {
		uctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		line, err := u.Summary(uctx)
		cancel()
		if err != nil {
			line = "unavailable: " + err.Error()
		}
		extra = append(extra, tgui.KV(u.Unit(), line))
	}
	return b.sendHTML(ctx, req.Chat, render.Status(b.data.Status(), b.now(), extra...))
}

func (b *Bot) handleRefresh(ctx context.Context, req *Request) error {
	snap, err := b.data.Refresh(ctx)
	if snap == nil {
		if err == nil {
			err = loader.ErrNoDataset
		}
		return b.sendHTML(ctx, req.Chat, noDatasetText(err))
	}
	req.Target = snap.Name
	msg := render.Loaded(snap)
	if err != nil {
		msg = tgui.JoinH("\n",
			tgui.B("⚠️ Reload failed; the previous dataset is still served."),
			tgui.Code(err.Error()),
		).String() + "\n\n" + msg
	}
	if serr := b.sendHTML(ctx, req.Chat, msg); serr != nil {
		return serr
	}
	// the failure is reported above; keep it in the audit trail only
	if err != nil {
		req.Target = strings.TrimSpace(req.Target + " (stale)")
	}
	return nil
}

package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"runlens/internal/loader"
	"runlens/internal/timeline"
	"runlens/internal/transport"
	"runlens/pkg/logx"
)

func TestParseSchedule(t *testing.T) {
	cases := []struct {
		in   string
		kind SpecKind
		spec string
		src  string
	}{
		{"*/10 * * * *", SpecCron, "*/10 * * * *", "cron"},
		{"@hourly", SpecCron, "@hourly", "cron"},
		{"@every 10m", SpecCron, "@every 10m", "cron"},
		{"10m", SpecInterval, "@every 10m0s", "duration"},
		{"01:30", SpecInterval, "@every 1h30m0s", "hhmm"},
		{"interval:00:05", SpecInterval, "@every 5m0s", "hhmm"},
		{"every: 2h", SpecInterval, "@every 2h0m0s", "duration"},
		{"cron:0 7 * * *", SpecCron, "0 7 * * *", "cron"},
	}
	for _, c := range cases {
		ps, err := ParseSchedule(c.in)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if ps.Kind != c.kind || ps.Spec() != c.spec || ps.Source != c.src {
			t.Fatalf("%q: got %+v spec=%q", c.in, ps, ps.Spec())
		}
	}
	for _, bad := range []string{"", "soon", "00:00", "01:75", "-5m", "cron:"} {
		if _, err := ParseSchedule(bad); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

func TestAddValidatesAndUpserts(t *testing.T) {
	s := New(Config{}, logx.Nop())
	noop := func(context.Context) error { return nil }
	if err := s.Add("refresh", "61 * * * *", 0, noop); err == nil {
		t.Fatalf("invalid cron accepted")
	}
	if err := s.Add("refresh", "10m", 0, noop); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("refresh", "@hourly", 0, noop); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Jobs) != 1 || snap.Jobs[0].Spec != "@hourly" || snap.Running {
		t.Fatalf("snapshot=%+v", snap)
	}
	if !s.Remove("refresh") || s.Remove("refresh") {
		t.Fatalf("remove")
	}
}

func TestStartRespectsEnabled(t *testing.T) {
	ctx := context.Background()
	s := New(Config{Enabled: false, Timezone: "UTC"}, logx.Nop())
	_ = s.Add("digest", "0 7 * * *", 0, func(context.Context) error { return nil })
	s.Start(ctx)
	if s.Snapshot().Running {
		t.Fatalf("disabled scheduler started")
	}

	s.Apply(Config{Enabled: true, Timezone: "UTC"})
	snap := s.Snapshot()
	if !snap.Running || snap.Jobs[0].Next.IsZero() || snap.Timezone != "UTC" {
		t.Fatalf("snapshot=%+v", snap)
	}
	if next := snap.Jobs[0].Next.UTC(); next.Hour() != 7 || next.Minute() != 0 {
		t.Fatalf("next=%v", next)
	}

	s.Apply(Config{Enabled: false})
	if s.Snapshot().Running {
		t.Fatalf("still running after disable")
	}
}

func TestRunNowRecordsOutcome(t *testing.T) {
	s := New(Config{}, logx.Nop())
	var gotDeadline bool
	_ = s.Add("refresh", "10m", time.Second, func(ctx context.Context) error {
		_, gotDeadline = ctx.Deadline()
		return errors.New("boom")
	})
	if err := s.RunNow("refresh"); err == nil || err.Error() != "boom" {
		t.Fatalf("err=%v", err)
	}
	if !gotDeadline {
		t.Fatalf("job context has no deadline")
	}
	job := s.Snapshot().Jobs[0]
	if job.Runs != 1 || job.LastErr != "boom" || job.LastRun.IsZero() {
		t.Fatalf("job=%+v", job)
	}
	if err := s.RunNow("missing"); err == nil {
		t.Fatalf("unknown job ran")
	}
}

type fakeRefresher struct {
	snap *loader.Snapshot
	err  error
}

func (f fakeRefresher) Refresh(context.Context) (*loader.Snapshot, error) { return f.snap, f.err }

func TestRefreshJob(t *testing.T) {
	ok := RefreshJob(fakeRefresher{snap: &loader.Snapshot{ID: "x"}}, logx.Nop())
	if err := ok(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	failing := RefreshJob(fakeRefresher{snap: &loader.Snapshot{ID: "x"}, err: errors.New("offline")}, logx.Nop())
	if err := failing(context.Background()); err == nil {
		t.Fatalf("stale refresh should report its error")
	}
}

type fakeProvider struct{ snap *loader.Snapshot }

func (f fakeProvider) Current(context.Context) (*loader.Snapshot, error) { return f.snap, nil }
func (f fakeProvider) Options() loader.Options {
	return loader.Options{Timeline: timeline.Options{Location: time.UTC}}
}

type recordingSender struct {
	mu   sync.Mutex
	to   []transport.ChatTarget
	text []string
}

func (r *recordingSender) SendText(_ context.Context, to transport.ChatTarget, text string, _ *transport.SendOptions) (transport.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, to)
	r.text = append(r.text, text)
	return transport.MessageRef{ChatID: to.ChatID}, nil
}

func TestDigestReportsPreviousDay(t *testing.T) {
	recs := []timeline.Record{
		{Row: 1, Workload: "sales", Workspace: "MAM", Date: "2024-05-01", Start: "08:00", End: "09:00"},
		{Row: 2, Workload: "crm", Workspace: "MAC", Date: "2024-05-01", Start: "08:30", End: "09:30"},
		{Row: 3, Workload: "today", Workspace: "MAM", Date: "2024-05-02", Start: "08:00", End: "09:00"},
	}
	ds, _ := timeline.Normalize(recs, timeline.Options{Location: time.UTC})
	sender := &recordingSender{}
	d := Digest{
		Data:   fakeProvider{snap: &loader.Snapshot{Dataset: ds}},
		Sender: sender,
		To:     transport.ChatTarget{ChatID: -100, ThreadID: 7},
		Log:    logx.Nop(),
		Now:    func() time.Time { return time.Date(2024, 5, 2, 7, 0, 0, 0, time.UTC) },
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	all := strings.Join(sender.text, "\n")
	if !strings.Contains(all, "2024-05-01") || !strings.Contains(all, "08:30–09:00") || strings.Contains(all, "today") {
		t.Fatalf("digest=%s", all)
	}
	if sender.to[0].ThreadID != 7 {
		t.Fatalf("target=%+v", sender.to[0])
	}

	if err := (Digest{Data: d.Data, Sender: sender}).Run(context.Background()); err == nil {
		t.Fatalf("digest without target should fail")
	}
}

package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"runlens/internal/cache"
	"runlens/internal/loader"
	"runlens/internal/storage"
	"runlens/internal/timeline"
	"runlens/internal/transport"
	"runlens/pkg/logx"
)

const ownerID = 42

const sampleCSV = "workspace,workload_name,date,start_time,end_time\n" +
	"MAM,sales,2024-05-01,10:00,10:20\n" +
	"MAM,sales,2024-05-02,08:00,09:00\n" +
	"MAC,crm,2024-05-02,08:30,09:30\n" +
	"MAC,crm,2024-05-02,14:00,14:30\n"

type sent struct {
	to   transport.ChatTarget
	text string
	file *transport.File
}

type fakeAdapter struct {
	mu       sync.Mutex
	sent     []sent
	download []byte
}

func (f *fakeAdapter) SendText(_ context.Context, to transport.ChatTarget, text string, _ *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to: to, text: text})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) SendFile(_ context.Context, to transport.ChatTarget, file transport.File, _ *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to: to, file: &file})
	return transport.MessageRef{ChatID: to.ChatID}, nil
}

func (f *fakeAdapter) Download(context.Context, transport.Attachment, int64) ([]byte, error) {
	return f.download, nil
}

func (f *fakeAdapter) Start(context.Context, chan<- transport.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                           { return nil }

func (f *fakeAdapter) all() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b strings.Builder
	for _, s := range f.sent {
		b.WriteString(s.text)
		b.WriteString("\n")
	}
	return b.String()
}

type memAudit struct {
	mu      sync.Mutex
	entries []storage.AuditEntry
}

func (m *memAudit) PutSnapshot(context.Context, storage.Blob) error { return nil }
func (m *memAudit) GetSnapshot(context.Context) (storage.Blob, error) {
	return storage.Blob{}, storage.ErrNotFound
}
func (m *memAudit) AppendAudit(_ context.Context, e storage.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}
func (m *memAudit) RecentAudit(context.Context, int) ([]storage.AuditEntry, error) { return nil, nil }
func (m *memAudit) Close() error                                                   { return nil }

type fixture struct {
	t     *testing.T
	bot   *Bot
	ad    *fakeAdapter
	data  *loader.Loader
	audit *memAudit
}

func newFixture(t *testing.T, withData bool) *fixture {
	t.Helper()
	opt := loader.Options{Timeline: timeline.Options{Location: time.UTC}}
	l := loader.New(nil, cache.NewMemory(time.Minute), nil, opt, logx.Nop())
	if withData {
		if _, err := l.Upload(context.Background(), "runs.csv", []byte(sampleCSV)); err != nil {
			t.Fatalf("seed upload: %v", err)
		}
	}
	ad := &fakeAdapter{}
	audit := &memAudit{}
	b := New(Config{Owners: []int64{ownerID}}, ad, l, nil, audit, logx.Nop())
	b.now = func() time.Time { return time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC) }
	return &fixture{t: t, bot: b, ad: ad, data: l, audit: audit}
}

// send routes one update and runs the queued job, if any.
func (f *fixture) send(up transport.Update) {
	f.t.Helper()
	f.bot.route(context.Background(), up)
	select {
	case job := <-f.bot.jobs:
		job()
	default:
	}
}

func (f *fixture) command(from int64, text string) string {
	f.t.Helper()
	before := len(f.ad.all())
	f.send(transport.Update{Kind: transport.UpdateMessage, Message: &transport.Message{ChatID: 1, FromID: from, Text: text}})
	return f.ad.all()[before:]
}

func TestGanttDefaultsToNewestDay(t *testing.T) {
	f := newFixture(t, true)
	out := f.command(7, "/gantt")
	if !strings.Contains(out, "2024-05-02 full day") || !strings.Contains(out, "MAC - crm (Ej. 1)") {
		t.Fatalf("out=%s", out)
	}
}

func TestOverlapsWithSelection(t *testing.T) {
	f := newFixture(t, true)
	out := f.command(7, "/overlaps am 2024-05-02")
	if !strings.Contains(out, "1 overlapping pairs") || !strings.Contains(out, "08:30–09:00") {
		t.Fatalf("out=%s", out)
	}
	out = f.command(7, "/overlaps@runlens_bot yesterday")
	if !strings.Contains(out, "2024-05-01") || !strings.Contains(out, "No overlapping") {
		t.Fatalf("yesterday out=%s", out)
	}
}

func TestBadArgumentsAreReported(t *testing.T) {
	f := newFixture(t, true)
	out := f.command(7, "/gantt am pm")
	if !strings.Contains(out, "❌") || !strings.Contains(out, "period given twice") {
		t.Fatalf("out=%s", out)
	}
	out = f.command(7, "/gantt 2024-13-45")
	if !strings.Contains(out, "❌") {
		t.Fatalf("invalid day accepted: %s", out)
	}
}

func TestAbsentDayIsEmptyNotError(t *testing.T) {
	f := newFixture(t, true)
	out := f.command(7, "/gantt 2023-01-01")
	if !strings.Contains(out, "No executions") || strings.Contains(out, "❌") {
		t.Fatalf("out=%s", out)
	}
}

func TestExportSendsCSVAndAudits(t *testing.T) {
	f := newFixture(t, true)
	f.command(7, "/export 2024-05-02 pm")
	f.ad.mu.Lock()
	last := f.ad.sent[len(f.ad.sent)-1]
	f.ad.mu.Unlock()
	if last.file == nil || last.file.Name != "executions_2024-05-02_PM.csv" {
		t.Fatalf("file=%+v", last.file)
	}
	lines := strings.Split(strings.TrimSpace(string(last.file.Data)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "MAC,crm,2024-05-02,14:00,14:30") {
		t.Fatalf("csv=%q", lines)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "export" || f.audit.entries[0].Target != last.file.Name {
		t.Fatalf("audit=%+v", f.audit.entries)
	}
}

func TestRefreshIsOwnerOnly(t *testing.T) {
	f := newFixture(t, true)
	out := f.command(7, "/refresh")
	if !strings.Contains(out, "Only the bot owners") {
		t.Fatalf("out=%s", out)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("denied request audited")
	}

	out = f.command(ownerID, "/refresh")
	if !strings.Contains(out, "Reload failed") || !strings.Contains(out, "Dataset loaded") {
		t.Fatalf("owner out=%s", out)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].ActorID != ownerID {
		t.Fatalf("audit=%+v", f.audit.entries)
	}
}

func TestNoDatasetAsksForUpload(t *testing.T) {
	f := newFixture(t, false)
	out := f.command(7, "/days")
	if !strings.Contains(out, "could not be loaded") || !strings.Contains(out, "Send the exported") {
		t.Fatalf("out=%s", out)
	}
}

func TestOwnerUploadReplacesDataset(t *testing.T) {
	f := newFixture(t, false)
	f.ad.download = []byte(sampleCSV)
	doc := &transport.Attachment{FileID: "f1", FileName: "runs.csv", Size: int64(len(sampleCSV))}

	// strangers in groups are ignored silently
	f.send(transport.Update{Kind: transport.UpdateDocument, Message: &transport.Message{ChatID: -5, FromID: 7, IsGroup: true, Document: doc}})
	if f.ad.all() != "" {
		t.Fatalf("group stranger got a reply: %s", f.ad.all())
	}

	f.send(transport.Update{Kind: transport.UpdateDocument, Message: &transport.Message{ChatID: 1, FromID: ownerID, Document: doc}})
	if out := f.ad.all(); !strings.Contains(out, "Dataset loaded") || !strings.Contains(out, "upload") {
		t.Fatalf("out=%s", out)
	}
	if st := f.data.Status(); st.Snapshot == nil || st.Snapshot.Origin != loader.OriginUpload {
		t.Fatalf("status=%+v", st)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "upload" {
		t.Fatalf("audit=%+v", f.audit.entries)
	}
}

func TestUploadSchemaErrorListsColumns(t *testing.T) {
	f := newFixture(t, false)
	f.ad.download = []byte("workspace,date\nMAM,2024-05-02\n")
	doc := &transport.Attachment{FileID: "f1", FileName: "bad.csv"}
	f.send(transport.Update{Kind: transport.UpdateDocument, Message: &transport.Message{ChatID: 1, FromID: ownerID, Document: doc}})
	out := f.ad.all()
	if !strings.Contains(out, "missing required columns") || !strings.Contains(out, "workload_name") {
		t.Fatalf("out=%s", out)
	}

	f.ad.sent = nil
	f.send(transport.Update{Kind: transport.UpdateDocument, Message: &transport.Message{ChatID: 1, FromID: ownerID, Document: &transport.Attachment{FileName: "notes.pdf"}}})
	if out := f.ad.all(); !strings.Contains(out, "unsupported file") {
		t.Fatalf("out=%s", out)
	}
}

func TestUnknownCommandAndHelp(t *testing.T) {
	f := newFixture(t, true)
	if out := f.command(7, "/nope"); !strings.Contains(out, "Unknown command") {
		t.Fatalf("out=%s", out)
	}
	if out := f.command(7, "hello there"); out != "" {
		t.Fatalf("plain text answered: %s", out)
	}
	out := f.command(ownerID, "/help")
	for _, c := range []string{"/gantt", "/overlaps", "/export", "/refresh", "Send an .xlsx"} {
		if !strings.Contains(out, c) {
			t.Fatalf("help lacks %q: %s", c, out)
		}
	}
	menu := f.bot.MenuCommands()
	if len(menu) != 10 || menu[len(menu)-1].Command != "refresh" {
		t.Fatalf("menu=%+v", menu)
	}
}

func TestSummaryAndStatus(t *testing.T) {
	f := newFixture(t, true)
	out := f.command(7, "/summary")
	if !strings.Contains(out, "Dataset summary") || !strings.Contains(out, "<b>records:</b> 4") {
		t.Fatalf("out=%s", out)
	}
	out = f.command(7, "/status")
	if !strings.Contains(out, "runs.csv") || !strings.Contains(out, "upload") {
		t.Fatalf("status=%s", out)
	}
}

type fakeUnit struct{ err error }

func (fakeUnit) Unit() string { return "runlens.service" }

func (u fakeUnit) Summary(context.Context) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return "active (running)", nil
}

func TestStatusShowsUnit(t *testing.T) {
	f := newFixture(t, true)
	f.bot.SetUnitReporter(fakeUnit{})
	out := f.command(7, "/status")
	if !strings.Contains(out, "<b>runlens.service:</b> active (running)") {
		t.Fatalf("status=%s", out)
	}
	f.bot.SetUnitReporter(fakeUnit{err: errors.New("bus down")})
	out = f.command(7, "/status")
	if !strings.Contains(out, "unavailable: bus down") {
		t.Fatalf("status=%s", out)
	}
}

func TestParseSelection(t *testing.T) {
	ds, _ := timeline.Normalize([]timeline.Record{
		{Row: 1, Workload: "a", Workspace: "MAM", Date: "2024-05-02", Start: "08:00", End: "09:00"},
	}, timeline.Options{Location: time.UTC})
	now := func() time.Time { return time.Date(2024, 5, 3, 1, 0, 0, 0, time.UTC) }

	sel, err := parseSelection(nil, ds, now)
	if err != nil || sel.Day.String() != "2024-05-02" || sel.Period != timeline.PeriodAll {
		t.Fatalf("sel=%v err=%v", sel, err)
	}
	sel, _ = parseSelection([]string{"PM", "yesterday"}, ds, now)
	if sel.Day.String() != "2024-05-02" || sel.Period != timeline.PeriodPM {
		t.Fatalf("sel=%v", sel)
	}
	if _, err := parseSelection([]string{"2024-05-02", "2024-05-01"}, ds, now); err == nil {
		t.Fatalf("two days accepted")
	}
}

func TestTokenize(t *testing.T) {
	got := tokenizeCommandLine(`/gantt "2024-05-02"  am`)
	if len(got) != 3 || got[1] != "2024-05-02" || got[2] != "am" {
		t.Fatalf("got=%q", got)
	}
	if w, ok := commandWord("/Gantt@runlens_bot"); !ok || w != "gantt" {
		t.Fatalf("word=%q", w)
	}
	if _, ok := commandWord("gantt"); ok {
		t.Fatalf("plain word treated as command")
	}
}

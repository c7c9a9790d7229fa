// Package bot routes chat updates to the timeline commands and accepts
// dataset uploads from owners.
package bot

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"runlens/internal/loader"
	"runlens/internal/runtime/supervisor"
	"runlens/internal/scheduler"
	"runlens/internal/storage"
	"runlens/internal/transport"
	"runlens/pkg/logx"
)

const DefaultMaxUpload = 20 << 20 // Telegram bot API download limit

// Datasets is the loader surface the commands need.
type Datasets interface {
	Current(ctx context.Context) (*loader.Snapshot, error)
	Refresh(ctx context.Context) (*loader.Snapshot, error)
	Upload(ctx context.Context, name string, data []byte) (*loader.Snapshot, error)
	Status() loader.Status
	Options() loader.Options
}

// Schedules reports scheduled jobs for /status. Optional.
type Schedules interface {
	Snapshot() scheduler.Snapshot
}

// UnitReporter summarizes the service manager state for /status. Optional.
type UnitReporter interface {
	Unit() string
	Summary(ctx context.Context) (string, error)
}

type Config struct {
	Owners         []int64
	MaxUploadBytes int64
	Timeout        time.Duration // per request; 0 means 60s
	Workers        int
	ChartWidth     int
}

type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	OwnerOnly   bool
	Handle      HandlerFunc
}

type Request struct {
	Msg     *transport.Message
	Chat    transport.ChatTarget
	Command string
	Args    []string
	// Target is recorded in the audit log (selection, file name).
	Target string
	ReqID  string
	Log    logx.Logger
}

type Bot struct {
	adapter transport.Adapter
	data    Datasets
	sched   Schedules
	store   storage.Store
	log     logx.Logger
	now     func() time.Time

	mu       sync.RWMutex
	cfg      Config
	unit     UnitReporter
	commands map[string]*Command
	ordered  []*Command

	jobs chan func()
}

func New(cfg Config, adapter transport.Adapter, data Datasets, sched Schedules, store storage.Store, log logx.Logger) *Bot {
	b := &Bot{
		adapter: adapter,
		data:    data,
		sched:   sched,
		store:   store,
		log:     log.Comp("bot"),
		now:     time.Now,
		jobs:    make(chan func(), 64),
	}
	b.Apply(cfg)
	b.register(b.builtinCommands())
	return b
}

// Apply updates owners and limits; safe during hot reload.
func (b *Bot) Apply(cfg Config) {
	cfg.Owners = append([]int64(nil), cfg.Owners...)
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUpload
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	b.mu.Lock()
	b.cfg = cfg
	b.mu.Unlock()
}

// SetUnitReporter sets or clears (nil) the unit line of /status.
func (b *Bot) SetUnitReporter(u UnitReporter) {
	b.mu.Lock()
	b.unit = u
	b.mu.Unlock()
}

func (b *Bot) unitReporter() UnitReporter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.unit
}

func (b *Bot) config() Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg
}

func (b *Bot) isOwner(id int64) bool {
	for _, o := range b.config().Owners {
		if o == id {
			return true
		}
	}
	return false
}

func (b *Bot) register(cmds []*Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = map[string]*Command{}
	b.ordered = nil
	for _, c := range cmds {
		b.commands[c.Name] = c
		for _, a := range c.Aliases {
			b.commands[a] = c
		}
		b.ordered = append(b.ordered, c)
	}
	sort.SliceStable(b.ordered, func(i, j int) bool {
		if b.ordered[i].OwnerOnly != b.ordered[j].OwnerOnly {
			return !b.ordered[i].OwnerOnly
		}
		return false
	})
}

func (b *Bot) lookup(name string) (*Command, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.commands[name]
	return c, ok
}

// MenuCommands is the Telegram command menu for the registered commands.
func (b *Bot) MenuCommands() []transport.BotCommand {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]transport.BotCommand, 0, len(b.ordered))
	for _, c := range b.ordered {
		out = append(out, transport.BotCommand{Command: c.Name, Description: c.Description})
	}
	return out
}

// Run consumes updates until ctx is done or updates is closed. Requests
// are handled by a small worker pool.
func (b *Bot) Run(ctx context.Context, updates <-chan transport.Update) error {
	workers := b.config().Workers
	if workers <= 0 {
		workers = max(2, runtime.NumCPU())
	}
	sup := supervisor.New(ctx, supervisor.WithLogger(b.log), supervisor.WithCancelOnError(false))
	for i := 0; i < workers; i++ {
		sup.GoRestart("bot.worker."+strconv.Itoa(i), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job := <-b.jobs:
					job()
				}
			}
		}, supervisor.WithRestartBackoff(200*time.Millisecond, 5*time.Second))
	}

	if up, ok := b.adapter.(transport.CommandMenuUpdater); ok {
		sup.Go("bot.menu", func(c context.Context) error {
			mctx, cancel := context.WithTimeout(c, 10*time.Second)
			defer cancel()
			if err := up.UpdateMenuCommands(mctx, b.MenuCommands()); err != nil {
				b.log.Warn("menu update failed", logx.Err(err))
			}
			return nil
		})
	}

	b.log.Info("dispatcher started", logx.Int("workers", workers))
	defer func() {
		sup.Cancel()
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		b.log.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			b.route(ctx, up)
		}
	}
}

func (b *Bot) route(ctx context.Context, up transport.Update) {
	msg := up.Message
	if msg == nil {
		return
	}
	switch up.Kind {
	case transport.UpdateDocument:
		if msg.Document == nil {
			return
		}
		// files shared in groups by other members are not for us
		if msg.IsGroup && !b.isOwner(msg.FromID) {
			return
		}
		b.dispatch(ctx, msg, b.uploadCommand(), nil)
	case transport.UpdateMessage:
		parts := tokenizeCommandLine(msg.Text)
		if len(parts) == 0 {
			return
		}
		word, ok := commandWord(parts[0])
		if !ok {
			return
		}
		cmd, ok := b.lookup(word)
		if !ok {
			if !msg.IsGroup {
				b.reply(ctx, chatOf(msg), "Unknown command. Try /help")
			}
			return
		}
		b.dispatch(ctx, msg, cmd, parts[1:])
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *transport.Message, cmd *Command, args []string) {
	chat := chatOf(msg)
	if cmd.OwnerOnly && !b.isOwner(msg.FromID) {
		b.log.Warn("unauthorized", logx.Int64("from_id", msg.FromID), logx.String("cmd", cmd.Name))
		b.reply(ctx, chat, "⛔ Only the bot owners can do that.")
		return
	}
	req := &Request{
		Msg:     msg,
		Chat:    chat,
		Command: cmd.Name,
		Args:    args,
		ReqID:   newReqID(),
	}
	req.Log = b.log.With(
		logx.String("rid", req.ReqID),
		logx.Int64("chat_id", msg.ChatID),
		logx.Int64("from_id", msg.FromID),
		logx.String("cmd", cmd.Name),
	)
	final := Chain(cmd.Handle,
		MWPanicRecover(),
		MWRequestLog(),
		MWAudit(b.auditStore(cmd)),
		MWTimeout(b.config().Timeout),
	)
	job := func() {
		if err := final(ctx, req); err != nil {
			b.reply(ctx, chat, "❌ "+err.Error())
		}
	}
	select {
	case b.jobs <- job:
	default:
		b.reply(ctx, chat, "Busy, try again in a moment.")
	}
}

// auditStore limits auditing to operator actions.
func (b *Bot) auditStore(cmd *Command) storage.Store {
	if cmd.OwnerOnly || cmd.Name == "export" {
		return b.store
	}
	return nil
}

func chatOf(m *transport.Message) transport.ChatTarget {
	return transport.ChatTarget{ChatID: m.ChatID, ThreadID: m.ThreadID}
}

func (b *Bot) reply(ctx context.Context, to transport.ChatTarget, text string) {
	if _, err := b.adapter.SendText(ctx, to, text, nil); err != nil {
		b.log.Warn("reply failed", logx.Int64("chat_id", to.ChatID), logx.Err(err))
	}
}

func usage(c *Command) string {
	if strings.TrimSpace(c.Usage) != "" {
		return c.Usage
	}
	return "/" + c.Name
}

// Package transport holds the chat-neutral types shared by the bot, the
// log chat sink and the concrete adapters.
package transport

import "context"

type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateDocument UpdateKind = "document"
)

type Update struct {
	Kind    UpdateKind
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	ThreadID     int // forum topic thread id (0 if none)
	FromID       int64
	FromUsername string
	Text         string // text, or caption for documents
	IsGroup      bool

	Document *Attachment
}

// Attachment describes an uploaded file. The content is fetched lazily
// with Adapter.Download.
type Attachment struct {
	FileID   string
	FileName string
	MIME     string
	Size     int64
}

type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// File is an outgoing document.
type File struct {
	Name    string
	MIME    string
	Data    []byte
	Caption string
}

// Sender is the minimal outbound surface (used by the log chat sink).
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

type Adapter interface {
	Sender

	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendFile(ctx context.Context, to ChatTarget, f File, opt *SendOptions) (MessageRef, error)
	Download(ctx context.Context, att Attachment, maxBytes int64) ([]byte, error)
}

// BotCommand represents a single bot command menu entry.
type BotCommand struct {
	Command     string
	Description string
}

// CommandMenuUpdater is an optional interface that adapters can implement
// to update platform-specific bot command menus.
type CommandMenuUpdater interface {
	UpdateMenuCommands(ctx context.Context, cmds []BotCommand) error
}

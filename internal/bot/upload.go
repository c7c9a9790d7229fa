package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"runlens/internal/render"
	"runlens/internal/timeline"
	"runlens/pkg/logx"
	"runlens/pkg/tgui"
)

var uploadExt = map[string]bool{".xlsx": true, ".xlsm": true, ".csv": true}

func (b *Bot) uploadCommand() *Command {
	return &Command{Name: "upload", Description: "replace the dataset", OwnerOnly: true, Handle: b.handleUpload}
}

// handleUpload installs a document sent by an owner as the dataset.
func (b *Bot) handleUpload(ctx context.Context, req *Request) error {
	att := req.Msg.Document
	req.Target = att.FileName
	if !uploadExt[strings.ToLower(filepath.Ext(att.FileName))] {
		return fmt.Errorf("unsupported file %q: send the .xlsx or .csv export", att.FileName)
	}

	data, err := b.adapter.Download(ctx, *att, b.config().MaxUploadBytes)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	req.Log.Info("upload received", logx.String("file", att.FileName), logx.Int("bytes", len(data)))

	snap, err := b.data.Upload(ctx, att.FileName, data)
	if err != nil {
		var se *timeline.SchemaError
		if errors.As(err, &se) {
			return b.sendHTML(ctx, req.Chat, tgui.JoinH("\n",
				tgui.B("⚠️ The file is missing required columns."),
				tgui.KV("missing", strings.Join(se.Missing, ", ")),
				tgui.KV("found", strings.Join(se.Header, ", ")),
			).String())
		}
		return fmt.Errorf("upload rejected: %w", err)
	}
	return b.sendHTML(ctx, req.Chat, render.Loaded(snap))
}

package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"runlens/internal/storage"
	"runlens/pkg/logx"
)

type HandlerFunc func(ctx context.Context, req *Request) error

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func MWTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			if d <= 0 {
				return next(ctx, req)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, req)
		}
	}
}

func MWPanicRecover() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				if r := recover(); r != nil {
					req.Log.Error("panic recovered", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, req)
		}
	}
}

func MWRequestLog() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			err := next(ctx, req)
			d := time.Since(start)
			fields := []logx.Field{logx.Duration("dur", d), logx.Int("args", len(req.Args))}
			switch {
			case err != nil:
				req.Log.Warn("request failed", append(fields, logx.Err(err))...)
			case d >= 750*time.Millisecond:
				req.Log.Info("request ok", fields...)
			default:
				req.Log.Debug("request ok", fields...)
			}
			return err
		}
	}
}

// MWAudit appends one audit entry per request when a store is configured.
func MWAudit(store storage.Store) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if store == nil {
			return next
		}
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			err := next(ctx, req)
			e := storage.AuditEntry{
				At:            start,
				ActorID:       req.Msg.FromID,
				ActorUsername: req.Msg.FromUsername,
				ChatID:        req.Msg.ChatID,
				Action:        req.Command,
				Target:        req.Target,
				TookMS:        time.Since(start).Milliseconds(),
			}
			if err != nil {
				e.Error = err.Error()
			}
			// the request context may already be expired
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if aerr := store.AppendAudit(actx, e); aerr != nil {
				req.Log.Warn("audit append failed", logx.Err(aerr))
			}
			return err
		}
	}
}

// Package logx configures runlens' structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - console output readable (short timestamp and caller)
//   - file output JSON-structured
//   - an optional chat sink for warnings (min-level + rate limiting)
package logx

// Package tgui provides small helpers for Telegram HTML messages:
//   - escaping and inline tags (safe by default for ParseMode="HTML")
//   - rune-aware truncation and padding for monospace tables
//   - splitting long preformatted blocks into balanced message chunks
package tgui

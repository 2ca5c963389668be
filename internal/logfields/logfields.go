package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every package so log queries stay stable.
const (
	KeyRunID      = "run_id"
	KeySubrepo    = "subrepo"
	KeyLocale     = "locale"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyCommit     = "commit"
	KeyFiles      = "files"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func RunID(id string) slog.Attr     { return slog.String(KeyRunID, id) }
func Subrepo(name string) slog.Attr { return slog.String(KeySubrepo, name) }
func Locale(code string) slog.Attr  { return slog.String(KeyLocale, code) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr        { return slog.String(KeyURL, u) }
func Files(n int) slog.Attr         { return slog.Int(KeyFiles, n) }

// Commit logs the abbreviated form of a commit hash.
func Commit(hash string) slog.Attr {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return slog.String(KeyCommit, hash)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

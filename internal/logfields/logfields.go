package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCycleID    = "cycle_id"
	KeyTrigger    = "trigger"
	KeySource     = "source"
	KeyModel      = "model"
	KeyEntryID    = "entry_id"
	KeyEntries    = "entries"
	KeyPages      = "pages"
	KeyURLPath    = "url_path"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCachePath  = "cache_path"
	KeyHash       = "hash"
	KeyError      = "error"
	KeyPath       = "path"
)

func CycleID(id string) slog.Attr     { return slog.String(KeyCycleID, id) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Source(name string) slog.Attr    { return slog.String(KeySource, name) }
func Model(name string) slog.Attr     { return slog.String(KeyModel, name) }
func EntryID(id string) slog.Attr     { return slog.String(KeyEntryID, id) }
func Entries(n int) slog.Attr         { return slog.Int(KeyEntries, n) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func URLPath(p string) slog.Attr      { return slog.String(KeyURLPath, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func CachePath(p string) slog.Attr    { return slog.String(KeyCachePath, p) }
func Hash(h string) slog.Attr         { return slog.String(KeyHash, h) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

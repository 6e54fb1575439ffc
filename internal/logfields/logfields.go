package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRepo         = "repository"
	KeyRemote       = "remote"
	KeyRevision     = "revision"
	KeyCommit       = "commit"
	KeyPath         = "path"
	KeySource       = "source"
	KeyDest         = "dest"
	KeyMapping      = "mapping"
	KeyMappingIndex = "mapping_index"
	KeyMode         = "mode"
	KeyStrategy     = "strategy"
	KeyProvider     = "provider"
	KeyStage        = "stage"
	KeyDurationMS   = "duration_ms"
	KeyError        = "error"
)

func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Remote(url string) slog.Attr     { return slog.String(KeyRemote, url) }
func Revision(rev string) slog.Attr   { return slog.String(KeyRevision, rev) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func Mapping(name string) slog.Attr   { return slog.String(KeyMapping, name) }
func MappingIndex(i int) slog.Attr    { return slog.Int(KeyMappingIndex, i) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Strategy(s string) slog.Attr     { return slog.String(KeyStrategy, s) }
func Provider(name string) slog.Attr  { return slog.String(KeyProvider, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Commit shortens a full hash to eight characters.
func Commit(hash string) slog.Attr {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return slog.String(KeyCommit, hash)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

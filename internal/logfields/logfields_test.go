package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Repository", KeyRepo, "ndarray", Repository("ndarray")},
		{"Remote", KeyRemote, "https://github.com/tensorflow/java", Remote("https://github.com/tensorflow/java")},
		{"Revision", KeyRevision, "v1.1.0", Revision("v1.1.0")},
		{"Mapping", KeyMapping, "core-api", Mapping("core-api")},
		{"Strategy", KeyStrategy, "degraded", Strategy("degraded")},
		{"Commit", KeyCommit, "0123abcd", Commit("0123abcdef0123abcdef")},
		{"ShortCommit", KeyCommit, "abc", Commit("abc")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: key = %q, want %q", c.name, c.attr.Key, c.attrKey)
		}
		if got := c.attr.Value.String(); got != c.attrVal {
			t.Errorf("%s: value = %q, want %q", c.name, got, c.attrVal)
		}
	}
}

func TestMappingIndexIsInt(t *testing.T) {
	a := MappingIndex(3)
	if a.Value.Kind() != slog.KindInt64 || a.Value.Int64() != 3 {
		t.Fatalf("unexpected mapping index attr %v", a)
	}
}

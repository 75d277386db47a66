package shell

import (
	"reflect"
	"testing"
)

// ============================================================================
// Input line parsing
// ============================================================================

func TestSplitRedirect(t *testing.T) {
	tests := []struct {
		line    string
		query   string
		outfile string
	}{
		{"select * from mytab > out.csv", "select * from mytab", "out.csv"},
		{"select * from mytab > /tmp/out.fits", "select * from mytab", "/tmp/out.fits"},
		{"select * from mytab where x > 5", "select * from mytab where x > 5", ""},
		{"select 1 > out.xlsx", "select 1 > out.xlsx", ""},
		{"select * from mytab", "select * from mytab", ""},
	}
	for _, tt := range tests {
		query, outfile := splitRedirect(tt.line)
		if query != tt.query || outfile != tt.outfile {
			t.Errorf("splitRedirect(%q) = %q, %q; want %q, %q",
				tt.line, query, outfile, tt.query, tt.outfile)
		}
	}
}

func TestParseProcCall(t *testing.T) {
	name, args, describe, err := parseProcCall("refresh_stats")
	if err != nil || name != "refresh_stats" || len(args) != 0 || describe {
		t.Errorf("bare call = %q, %v, %v, %v", name, args, describe, err)
	}

	name, _, describe, err = parseProcCall("refresh_stats describe;")
	if err != nil || name != "refresh_stats" || !describe {
		t.Errorf("describe form = %q, %v, %v", name, describe, err)
	}

	// Parenthesized describe form, as the command help documents
	name, _, describe, err = parseProcCall("refresh_stats() describe")
	if err != nil || name != "refresh_stats" || !describe {
		t.Errorf("parenthesized describe form = %q, %v, %v", name, describe, err)
	}
	_, _, describe, err = parseProcCall("refresh_stats() DESCRIBE;")
	if err != nil || !describe {
		t.Errorf("case-folded describe form = %v, %v", describe, err)
	}

	name, args, _, err = parseProcCall("grant_access('my table', 1.5, 42, Y2Q1)")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if name != "grant_access" {
		t.Errorf("name = %q", name)
	}
	want := []any{"my table", 1.5, int64(42), "Y2Q1"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %#v, want %#v", args, want)
	}

	for _, bad := range []string{"", "proc(1", "proc('unterminated)", "proc extra junk", "proc() junk"} {
		if _, _, _, err := parseProcCall(bad); err == nil {
			t.Errorf("parseProcCall(%q) accepted", bad)
		}
	}
}

func TestLikePattern(t *testing.T) {
	if got := likePattern("coadd"); got != "%coadd%" {
		t.Errorf("likePattern(coadd) = %q", got)
	}
	if got := likePattern("Y6%"); got != "Y6%" {
		t.Errorf("explicit wildcard rewritten: %q", got)
	}
}

func TestParseLoadArgs(t *testing.T) {
	o, err := parseLoadArgs("objects.csv --tablename mycat --chunksize 500 --memsize 128")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if o.File != "objects.csv" || o.Table != "mycat" || o.ChunkSize != 500 || o.MemMB != 128 {
		t.Errorf("options = %+v", o)
	}

	o, err = parseLoadArgs("objects.csv")
	if err != nil || o.Table != "" || o.ChunkSize != 0 {
		t.Errorf("defaults = %+v, %v", o, err)
	}

	o, err = parseLoadArgs("--help")
	if err != nil || !o.Help {
		t.Errorf("help = %+v, %v", o, err)
	}

	for _, bad := range []string{"", "a.csv --chunksize", "a.csv --chunksize zero",
		"a.csv --chunksize -5", "a.csv --frobnicate", "a.csv b.csv"} {
		if _, err := parseLoadArgs(bad); err == nil {
			t.Errorf("parseLoadArgs(%q) accepted", bad)
		}
	}
}

func TestDefaultTableName(t *testing.T) {
	if got := defaultTableName("/data/fixtures/objects.csv"); got != "objects" {
		t.Errorf("defaultTableName = %q", got)
	}
}

func TestUnquote(t *testing.T) {
	if got := unquote("'a b'"); got != "a b" {
		t.Errorf("unquote = %q", got)
	}
	if got := unquote("plain"); got != "plain" {
		t.Errorf("unquote = %q", got)
	}
}

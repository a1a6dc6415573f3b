package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}
func TestParseTimeLayoutsRFC1123(t *testing.T) {
    got, ok := ParseTimeLayouts("Mon, 02 Jan 2006 15:04:05 MST", time.RFC1123)
    if !ok || got.Year() != 2006 {
        t.Fatalf("unexpected %v %v", got, ok)
    }
}

func TestTruncate(t *testing.T) {
    if got := Truncate("Apple beats estimates", 5, "..."); got != "Apple..." {
        t.Fatalf("got %q", got)
    }
    if got := Truncate("short", 10, "..."); got != "short" {
        t.Fatalf("got %q", got)
    }
}

func TestParseFloatDefault(t *testing.T) {
    if got := ParseFloatDefault("1.25%", 0); got != 1.25 {
        t.Fatalf("got %v", got)
    }
    if got := ParseFloatDefault("n/a", -1); got != -1 {
        t.Fatalf("got %v", got)
    }
}

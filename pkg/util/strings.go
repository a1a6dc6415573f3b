package util

import (
    "strconv"
    "strings"
    "unicode/utf8"
)

// ParseFloatDefault parses a float, tolerating a trailing percent sign.
func ParseFloatDefault(s string, def float64) float64 {
    s = strings.TrimSuffix(strings.TrimSpace(s), "%")
    if s == "" {
        return def
    }
    v, err := strconv.ParseFloat(s, 64)
    if err != nil {
        return def
    }
    return v
}

// Truncate cuts s to at most n runes, appending suffix when it was cut.
func Truncate(s string, n int, suffix string) string {
    if n <= 0 || utf8.RuneCountInString(s) <= n {
        return s
    }
    r := []rune(s)
    return strings.TrimSpace(string(r[:n])) + suffix
}

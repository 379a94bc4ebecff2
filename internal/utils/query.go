package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryInt parses a non-negative integer query parameter, returning def when
// it is missing or invalid.
func QueryInt(q url.Values, key string, def int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// QueryString returns the trimmed parameter value.
func QueryString(q url.Values, key string) string {
	return strings.TrimSpace(q.Get(key))
}

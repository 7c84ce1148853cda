// Package utils holds helpers shared by the HTTP handlers that carry no
// domain rules of their own: query parameter parsing and calendar layout.
package utils

import (
	"strconv"
	"strings"
)

// IntParam parses a query parameter such as ?page= or ?year=. Surrounding
// spaces are ignored; a missing or non-numeric value yields fallback.
func IntParam(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

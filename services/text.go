package services

import (
	"strings"
	"unicode/utf8"
)

// truncateRunes cuts s to at most limit runes
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// capWords keeps the first max whitespace-separated words of s
func capWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) > max {
		words = words[:max]
	}
	return strings.Join(words, " ")
}

// cleanList trims, drops empties, dedupes case-insensitively, caps each item to
// itemLimit runes and the list to maxItems.
func cleanList(items []string, maxItems, itemLimit int) []string {
	var out []string
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = truncateRunes(strings.Join(strings.Fields(item), " "), itemLimit)
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if len(out) == maxItems {
			break
		}
	}
	return out
}

package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrNoJSONFound is returned when no valid JSON object/array is found in the input
var ErrNoJSONFound = errors.New("no valid JSON object or array found in response")

var (
	codeFencePattern     = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON extracts and validates JSON from LLM responses that may contain
// garbage characters, markdown formatting, or other non-JSON content.
//
// It handles common issues like:
// - Markdown code blocks (```json ... ```)
// - Prose before/after valid JSON
// - Trailing commas and stray control characters
func ExtractJSON(response string) (string, error) {
	return extract(response, "{[")
}

// ExtractJSONObject is ExtractJSON restricted to objects: the first balanced {...} that is
// valid JSON wins.
func ExtractJSONObject(response string) (string, error) {
	return extract(response, "{")
}

// ExtractJSONObjects returns every balanced, valid JSON object in response in order of
// appearance. Objects nested in a returned one are not reported on their own.
func ExtractJSONObjects(response string) []string {
	if strings.TrimSpace(response) == "" {
		return nil
	}
	cleaned := extractFromMarkdown(response)
	if objects := scanCandidates(cleaned, "{", 0); len(objects) > 0 {
		return objects
	}
	if candidate := aggressiveExtract(response, "{"); candidate != "" {
		return []string{candidate}
	}
	return nil
}

// ExtractJSONTo extracts JSON from response and unmarshals it into the target
func ExtractJSONTo(response string, target interface{}) error {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(jsonStr), target)
}

func extract(response, openers string) (string, error) {
	if strings.TrimSpace(response) == "" {
		return "", ErrNoJSONFound
	}

	// Step 1: strip markdown code fences
	cleaned := extractFromMarkdown(response)

	// Step 2: balanced candidates from each opener in turn, repaired when needed
	if candidates := scanCandidates(cleaned, openers, 1); len(candidates) > 0 {
		return candidates[0], nil
	}

	// Step 3: the whole cleaned response, if it already has the right shape
	if strings.ContainsRune(openers, firstRune(cleaned)) && json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	// Step 4: first opener to last closer
	if candidate := aggressiveExtract(response, openers); candidate != "" {
		return candidate, nil
	}

	return "", fmt.Errorf("%w: response length=%d", ErrNoJSONFound, len(response))
}

// scanCandidates walks every opener in s and collects the balanced values starting there
// that are valid JSON as is or after tryFixJSON. The scan resumes after each accepted
// value. limit <= 0 means no limit.
func scanCandidates(s, openers string, limit int) []string {
	var found []string
	for i := 0; i < len(s); {
		rel := strings.IndexAny(s[i:], openers)
		if rel == -1 {
			break
		}
		start := i + rel
		raw := balancedAt(s, start)
		if raw == "" {
			i = start + 1
			continue
		}
		candidate := raw
		if !json.Valid([]byte(candidate)) {
			candidate = tryFixJSON(raw)
		}
		if !json.Valid([]byte(candidate)) {
			i = start + 1
			continue
		}
		found = append(found, candidate)
		if limit > 0 && len(found) == limit {
			break
		}
		i = start + len(raw)
	}
	return found
}

// extractFromMarkdown removes markdown code block formatting
func extractFromMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if matches := codeFencePattern.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// balancedAt returns the object or array opening at s[start] up to its matching closer,
// or "" when it never closes
func balancedAt(s string, start int) string {
	openChar := s[start]
	closeChar := byte('}')
	if openChar == '[' {
		closeChar = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == openChar:
			depth++
		case c == closeChar:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// aggressiveExtract tries first opener to last matching closer
func aggressiveExtract(s, openers string) string {
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		if !strings.Contains(openers, pair[0]) {
			continue
		}
		first := strings.Index(s, pair[0])
		last := strings.LastIndex(s, pair[1])
		if first == -1 || last <= first {
			continue
		}
		candidate := s[first : last+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
		if fixed := tryFixJSON(candidate); json.Valid([]byte(fixed)) {
			return fixed
		}
	}
	return ""
}

// tryFixJSON drops control characters and trailing commas
func tryFixJSON(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return trailingCommaPattern.ReplaceAllString(cleaned, "$1")
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

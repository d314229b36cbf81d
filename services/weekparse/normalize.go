package weekparse

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const monthPattern = `jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec`

var (
	// a "week" keyword, its digits, and an optional date suffix glued onto the digits
	rawMarkerPattern = regexp.MustCompile(`(?i)\b(?:week|wk)\.?[ \t]*(\d{1,4})(?:([-/])(` + monthPattern + `)[a-z]{0,6}\b)?`)
	markerTailPattern = regexp.MustCompile(`^[ \t]*[:.–—]?[ \t]*`)
	spaceRunPattern   = regexp.MustCompile(`[\p{Zs}\t\f\v]+`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
)

// Normalize rewrites raw extracted document text so that week markers are line-initial
// ("Week N " followed by the rest of the row), merged "Week12-Feb" tokens are split,
// whitespace runs collapse to single spaces and blank line runs collapse to one.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := norm.NFKC.String(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = rewriteMarkers(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunPattern.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func rewriteMarkers(text string) string {
	matches := rawMarkerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(matches)*2)
	last := 0
	prevWeek := 0
	for _, m := range matches {
		digits := text[m[2]:m[3]]
		week, dateToken, ok := splitMarker(digits, m, text, prevWeek)
		if !ok {
			continue
		}

		b.WriteString(text[last:m[0]])
		if m[0] > 0 && text[m[0]-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteString("Week ")
		b.WriteString(strconv.Itoa(week))
		b.WriteByte(' ')
		if dateToken != "" {
			b.WriteString(dateToken)
		}

		last = m[1]
		if dateToken == "" {
			// drop the separator between the marker and the rest of the row
			if tail := markerTailPattern.FindStringIndex(text[last:]); tail != nil {
				last += tail[1]
			}
			// a date suffix that could not be split off stays attached to the row
			if m[4] >= 0 {
				last = m[4]
			}
		}
		prevWeek = week
	}
	b.WriteString(text[last:])
	return b.String()
}

// splitMarker decides which week number a marker match carries. When a date is glued to
// the marker digits ("Week12-Feb") the digits are split into a week (1-20) and a day of
// month; continuity with the previous marker breaks ties, then the shortest week wins.
func splitMarker(digits string, m []int, text string, prevWeek int) (int, string, bool) {
	plain := func() (int, string, bool) {
		week, err := strconv.Atoi(digits)
		if err != nil || week < 1 || week > 20 {
			return 0, "", false
		}
		return week, "", true
	}
	if m[4] < 0 || len(digits) < 2 {
		return plain()
	}

	suffix := text[m[4]:m[1]] // "-Feb"
	best, bestDay := 0, ""
	for k := 1; k <= 2 && k < len(digits); k++ {
		week, _ := strconv.Atoi(digits[:k])
		dayDigits := digits[k:]
		day, _ := strconv.Atoi(dayDigits)
		if week < 1 || week > 20 || len(dayDigits) > 2 || day < 1 || day > 31 {
			continue
		}
		if best == 0 || week == prevWeek+1 || (week == prevWeek && best != prevWeek+1) {
			best, bestDay = week, dayDigits
		}
	}
	if best == 0 {
		return plain()
	}
	return best, bestDay + suffix, true
}

package weekparse

import (
	"regexp"
	"strconv"
)

var weekMarkerPattern = regexp.MustCompile(`(?i)\b(?:week|wk)\.?\s*(\d{1,2})\b`)

// WeekMarker is a "week N" occurrence in normalized text.
type WeekMarker struct {
	Week  int
	Index int
}

// FindWeekMarkers lists every week 1-20 marker of text in document order.
func FindWeekMarkers(text string) []WeekMarker {
	matches := weekMarkerPattern.FindAllStringSubmatchIndex(text, -1)
	markers := make([]WeekMarker, 0, len(matches))
	for _, m := range matches {
		week, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || week < 1 || week > 20 {
			continue
		}
		markers = append(markers, WeekMarker{Week: week, Index: m[0]})
	}
	return markers
}

// WeekBlock slices the block of the first marker for week out of normalized text. The
// block runs up to the next marker of any week, or to the end of text. Without an exact
// marker the block is empty; there is no nearest-week fallback.
func WeekBlock(text string, week int) string {
	markers := FindWeekMarkers(text)
	for i, marker := range markers {
		if marker.Week != week {
			continue
		}
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].Index
		}
		return text[marker.Index:end]
	}
	return ""
}

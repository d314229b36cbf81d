package weekparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sahilchouksey/course-week-planner/model"
)

var (
	dateTokenPattern    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[-/](` + monthPattern + `)[a-z]{0,6}\b\.?`)
	sectionTokenPattern = regexp.MustCompile(`\b\d{1,2}(?:\.\d{1,2}){0,2}\b`)
	noQuizPattern       = regexp.MustCompile(`(?i)\bno\s+quiz(?:zes)?\b`)

	// numeric dates and fractions such as "due 3/15" or "2/3 done" are never section numbers
	slashNumberPattern = regexp.MustCompile(`\b\d{1,4}(?:/\d{1,4})+\b`)
)

var monthNumbers = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// noteVocabulary is matched against every row segment; labels keep document order.
var noteVocabulary = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`(?i)\bno\s+quiz(?:zes)?\b`), "No quiz"},
	{regexp.MustCompile(`(?i)\bno\s+class(?:es)?\b`), "No class"},
	{regexp.MustCompile(`(?i)\bholidays?\b`), "Holiday"},
	{regexp.MustCompile(`(?i)\bmid-?terms?\b`), "Midterm"},
	{regexp.MustCompile(`(?i)\bfinals?\b`), "Final"},
	{regexp.MustCompile(`(?i)\bexam(?:s|ination)?\b`), "Exam"},
	{regexp.MustCompile(`(?i)\breview\b`), "Review"},
}

// NoQuizCell is the quiz cell value recorded when a row states there is no quiz
const NoQuizCell = "No Quiz"

// ExtractRows turns a week block into one row per recognized date token. weekStart picks
// the year of each day-month token: the occurrence closest to the week wins.
func ExtractRows(block string, weekStart time.Time) []model.WeekRawRow {
	tokens := dateTokenPattern.FindAllStringSubmatchIndex(block, -1)
	if len(tokens) == 0 {
		return nil
	}

	rows := make([]model.WeekRawRow, 0, len(tokens))
	byDate := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		day, _ := strconv.Atoi(block[tok[2]:tok[3]])
		month := monthNumbers[strings.ToLower(block[tok[4]:tok[5]])]
		date, ok := resolveDate(day, month, weekStart)
		if !ok {
			continue
		}

		segEnd := len(block)
		if i+1 < len(tokens) {
			segEnd = tokens[i+1][0]
		}
		row := parseSegment(block[tok[1]:segEnd])
		row.DateISO = FormatISO(date)
		row.DateToken = block[tok[0]:tok[1]]

		if idx, seen := byDate[row.DateISO]; seen {
			rows[idx] = mergeRows(rows[idx], row)
			continue
		}
		byDate[row.DateISO] = len(rows)
		rows = append(rows, row)
	}
	return rows
}

func resolveDate(day int, month time.Month, weekStart time.Time) (time.Time, bool) {
	anchor := DateOnly(weekStart)
	var best time.Time
	var bestDist time.Duration = -1
	for _, year := range []int{anchor.Year() - 1, anchor.Year(), anchor.Year() + 1} {
		candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if candidate.Day() != day {
			return time.Time{}, false // 31-Feb and friends
		}
		dist := candidate.Sub(anchor)
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	return best, true
}

func parseSegment(segment string) model.WeekRawRow {
	var row model.WeekRawRow
	if noQuizPattern.MatchString(segment) {
		row.QuizCell = NoQuizCell
	}

	slots := []*string{&row.LectureCell, &row.DiscussionCell, &row.QuizCell, &row.SectionCell}
	sections := sectionTokenPattern.FindAllString(slashNumberPattern.ReplaceAllString(segment, " "), 4)
	next := 0
	for _, token := range sections {
		for next < len(slots) && *slots[next] != "" {
			next++
		}
		if next >= len(slots) {
			break
		}
		*slots[next] = token
		next++
	}

	row.Notes = extractNotes(segment)
	return row
}

func extractNotes(segment string) string {
	type hit struct {
		at    int
		label string
	}
	var hits []hit
	for _, v := range noteVocabulary {
		if loc := v.pattern.FindStringIndex(segment); loc != nil {
			hits = append(hits, hit{at: loc[0], label: v.label})
		}
	}
	if len(hits) == 0 {
		return ""
	}
	// insertion sort; the vocabulary is tiny
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].at < hits[j-1].at; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	labels := make([]string, len(hits))
	for i, h := range hits {
		labels[i] = h.label
	}
	return strings.Join(labels, "; ")
}

func mergeRows(into, from model.WeekRawRow) model.WeekRawRow {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&into.LectureCell, from.LectureCell)
	fill(&into.DiscussionCell, from.DiscussionCell)
	fill(&into.QuizCell, from.QuizCell)
	fill(&into.SectionCell, from.SectionCell)
	if from.Notes != "" {
		seen := make(map[string]bool)
		var labels []string
		for _, part := range strings.Split(into.Notes+"; "+from.Notes, "; ") {
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			labels = append(labels, part)
		}
		into.Notes = strings.Join(labels, "; ")
	}
	return into
}

// HasNote reports whether a "; "-joined notes string carries label.
func HasNote(notes, label string) bool {
	for _, part := range strings.Split(notes, "; ") {
		if strings.EqualFold(part, label) {
			return true
		}
	}
	return false
}

// IsNoQuiz reports whether a quiz cell states that there is no quiz.
func IsNoQuiz(cell string) bool {
	return noQuizPattern.MatchString(cell)
}

var hintKeywords = regexp.MustCompile(`(?i)\b(quiz|quizzes|exam|exams|discussion|lecture|reading|readings|homework|assignment|assignments|lab|labs|project|due|section)\b`)

// HintLines collects the lines of text that mention schedule vocabulary, up to limit
// characters in total.
func HintLines(text string, limit int) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !hintKeywords.MatchString(line) {
			continue
		}
		if b.Len()+len(line)+1 > limit {
			if b.Len() == 0 && limit > 0 {
				b.WriteString(truncateRunes(line, limit))
			}
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return s[:cut]
}

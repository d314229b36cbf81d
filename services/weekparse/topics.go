package weekparse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sahilchouksey/course-week-planner/model"
)

const (
	// MaxTopics caps every topic list
	MaxTopics = 10
	// MaxTopicLength caps a single topic, in runes
	MaxTopicLength = 180
)

var (
	categoryWords       = `lecture|lectures|discussion|discussions|quiz|quizzes|section|sections|reading|readings|homework|hw|lab|labs|project|assignment|assignments|exam|exams|topic|topics|chapter|chapters|ch|class|notes|due|review`
	categoryPattern     = regexp.MustCompile(`(?i)\b(?:` + categoryWords + `)\b`)
	candidateSplitter   = regexp.MustCompile(`[;|•·▪●◦\t]`)
	splitBeforeCategory = regexp.MustCompile(`(?i)\b(?:lecture|discussion|quiz|section|reading|homework|lab|project|assignment)s?\b`)
	bulletPattern       = regexp.MustCompile(`^[\-\*•·▪●◦–—>]+\s*`)
	bareSectionPattern  = regexp.MustCompile(`^\d+(?:\.\d+)*$`)
	dottedSection       = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\b`)
	alnumPattern        = regexp.MustCompile(`[\p{L}\p{N}]`)
	edgePunctPattern    = regexp.MustCompile(`^[\s:;,.\-–—]+|[\s:;,\-–—]+$`)
	multiSpacePattern   = regexp.MustCompile(`\s{2,}`)
	sectionTitlePattern = regexp.MustCompile(`(?im)(?:^|[\s(])(?:§\s*|sec(?:tion)?\.?\s+)?(\d{1,2}\.\d{1,2})\b[:.)\-–]?\s+([A-Za-z][^\n]{2,160})`)
	titleStopPattern    = regexp.MustCompile(`\s{2,}|[;|•]|\s\d{1,2}\.\d{1,2}\b|\s\d{1,2}[-/][A-Za-z]{3}\b`)
	trailingPagePattern = regexp.MustCompile(`[\s.·…]*\d*$`)
)

var noisePhrases = map[string]bool{
	"no items": true,
	"no class": true,
	"no quiz":  true,
	"holiday":  true,
	"tba":      true,
	"tbd":      true,
	"none":     true,
	"n/a":      true,
}

// TopicsFromBlock derives a deduplicated topic list from a schedule or syllabus week block.
func TopicsFromBlock(block string) []string {
	if strings.TrimSpace(block) == "" {
		return nil
	}
	var candidates []string
	for _, line := range strings.Split(block, "\n") {
		for _, part := range candidateSplitter.Split(line, -1) {
			candidates = append(candidates, splitAtCategories(part)...)
		}
	}
	return collectTopics(candidates)
}

// TopicsFromDays derives topics from the primary labels of finalized schedule days.
func TopicsFromDays(days []model.WeekScheduleDay) []string {
	candidates := make([]string, 0, len(days))
	for _, day := range days {
		candidates = append(candidates, day.Primary)
	}
	return collectTopics(candidates)
}

// SectionTitles mines "<section-number> <title>" phrases, e.g. "3.2 Limits at infinity",
// out of syllabus text. The first title seen for a number wins.
func SectionTitles(syllabus string) map[string]string {
	titles := make(map[string]string)
	pos := 0
	for pos < len(syllabus) {
		m := sectionTitlePattern.FindStringSubmatchIndex(syllabus[pos:])
		if m == nil {
			break
		}
		number := syllabus[pos+m[2] : pos+m[3]]
		title := syllabus[pos+m[4] : pos+m[5]]
		next := pos + m[5]
		if loc := titleStopPattern.FindStringIndex(title); loc != nil {
			title = title[:loc[0]]
			next = pos + m[4] + loc[0]
		}
		pos = next

		if _, seen := titles[number]; seen {
			continue
		}
		title = cleanTopic(trailingPagePattern.ReplaceAllString(title, ""))
		if isLowSignal(title) {
			continue
		}
		titles[number] = title
	}
	return titles
}

// ContextualizeSections maps the bare section numbers of a schedule week block to titles
// mined from the syllabus, producing topics such as "Section 3.2: Limits at infinity".
func ContextualizeSections(scheduleBlock, syllabus string) []string {
	if scheduleBlock == "" || syllabus == "" {
		return nil
	}
	titles := SectionTitles(syllabus)
	if len(titles) == 0 {
		return nil
	}
	var topics []string
	seen := make(map[string]bool)
	for _, number := range dottedSection.FindAllString(scheduleBlock, -1) {
		title, ok := titles[number]
		if !ok || seen[number] {
			continue
		}
		seen[number] = true
		topics = append(topics, "Section "+number+": "+title)
		if len(topics) == MaxTopics {
			break
		}
	}
	return topics
}

// MergeTopics concatenates topic lists, dropping case-insensitive duplicates, capped at MaxTopics.
func MergeTopics(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, topic := range list {
			key := strings.ToLower(topic)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, topic)
			if len(out) == MaxTopics {
				return out
			}
		}
	}
	return out
}

func splitAtCategories(part string) []string {
	locs := splitBeforeCategory.FindAllStringIndex(part, -1)
	if len(locs) == 0 {
		return []string{part}
	}
	var pieces []string
	start := 0
	for _, loc := range locs {
		if negated(part[:loc[0]]) {
			continue // keep "No Quiz" together
		}
		if loc[0] > start {
			pieces = append(pieces, part[start:loc[0]])
		}
		start = loc[0]
	}
	return append(pieces, part[start:])
}

func negated(prefix string) bool {
	prefix = strings.ToLower(strings.TrimRight(prefix, " :"))
	return prefix == "no" || strings.HasSuffix(prefix, " no")
}

func collectTopics(candidates []string) []string {
	var topics []string
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		topic := cleanTopic(candidate)
		if isLowSignal(topic) {
			continue
		}
		key := strings.ToLower(topic)
		if seen[key] {
			continue
		}
		seen[key] = true
		topics = append(topics, topic)
		if len(topics) == MaxTopics {
			break
		}
	}
	return topics
}

func cleanTopic(s string) string {
	s = weekMarkerPattern.ReplaceAllString(s, " ")
	s = dateTokenPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = bulletPattern.ReplaceAllString(s, "")
	s = multiSpacePattern.ReplaceAllString(s, " ")
	s = edgePunctPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxTopicLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxTopicLength]))
	}
	return s
}

func isLowSignal(topic string) bool {
	if utf8.RuneCountInString(topic) < 3 {
		return true
	}
	lower := strings.ToLower(topic)
	if noisePhrases[lower] || bareSectionPattern.MatchString(topic) || IsNoQuiz(topic) || strings.Contains(lower, "no class") {
		return true
	}
	// a category word with nothing else to say about it
	rest := edgePunctPattern.ReplaceAllString(categoryPattern.ReplaceAllString(topic, ""), "")
	rest = strings.TrimSpace(rest)
	if rest == "" || !alnumPattern.MatchString(rest) {
		return true
	}
	return noisePhrases[strings.ToLower(rest)]
}

package weekparse

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sahilchouksey/course-week-planner/model"
)

func TestTopicsFromBlock(t *testing.T) {
	block := "Week 5 12-Feb\n• Integration by parts\n- Lecture\nQuiz: No Quiz\n3.2\nIntegration By Parts\nNo items"
	got := TopicsFromBlock(block)
	want := []string{"Integration by parts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopicsFromBlock = %q, want %q", got, want)
	}
}

func TestTopicsFromBlockSplitsCategories(t *testing.T) {
	got := TopicsFromBlock("Week 3 10-Mar Lecture 3.1 Discussion 3.2 Quiz: No Quiz")
	want := []string{"Lecture 3.1", "Discussion 3.2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopicsFromBlock = %q, want %q", got, want)
	}
}

func TestTopicsFromBlockKeepsSectionReferences(t *testing.T) {
	got := TopicsFromBlock("Week 5 12-Feb Section 4.2")
	if !reflect.DeepEqual(got, []string{"Section 4.2"}) {
		t.Errorf("TopicsFromBlock = %q", got)
	}
}

func TestTopicsFromBlockCaps(t *testing.T) {
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, "Topic number "+strings.Repeat("z", i+1))
	}
	lines = append(lines, strings.Repeat("long ", 60))
	got := TopicsFromBlock(strings.Join(lines, "\n"))
	if len(got) != MaxTopics {
		t.Fatalf("got %d topics, want %d", len(got), MaxTopics)
	}

	long := TopicsFromBlock(strings.Repeat("long ", 60))
	if len(long) != 1 || len([]rune(long[0])) > MaxTopicLength {
		t.Errorf("long topic not trimmed: %d runes", len([]rune(long[0])))
	}
}

func TestTopicsFromDays(t *testing.T) {
	days := []model.WeekScheduleDay{
		{Primary: "Lecture 3.1"},
		{Primary: model.NoItemsLabel},
		{Primary: model.NoClassLabel},
		{Primary: "lecture 3.1"},
		{Primary: "Midterm review"},
		{Primary: "Quiz"},
	}
	got := TopicsFromDays(days)
	want := []string{"Lecture 3.1", "Midterm review"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopicsFromDays = %q, want %q", got, want)
	}
}

const calculusSyllabus = `Chapter 3
3.1 Limits and continuity ..... 45
3.2 The derivative as a function 52
Section 4.2 Integration by parts
4.3 Quiz`

func TestSectionTitles(t *testing.T) {
	got := SectionTitles(calculusSyllabus)
	want := map[string]string{
		"3.1": "Limits and continuity",
		"3.2": "The derivative as a function",
		"4.2": "Integration by parts",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SectionTitles = %q, want %q", got, want)
	}
}

func TestSectionTitlesSameLine(t *testing.T) {
	got := SectionTitles("3.1 Limits 3.2 Continuity")
	if got["3.1"] != "Limits" || got["3.2"] != "Continuity" {
		t.Errorf("SectionTitles = %q", got)
	}
}

func TestContextualizeSections(t *testing.T) {
	block := "Week 5 12-Feb Lecture 4.2 Discussion 3.2 9.9 4.2"
	got := ContextualizeSections(block, calculusSyllabus)
	want := []string{
		"Section 4.2: Integration by parts",
		"Section 3.2: The derivative as a function",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContextualizeSections = %q, want %q", got, want)
	}

	if got := ContextualizeSections(block, ""); got != nil {
		t.Errorf("without syllabus got %q", got)
	}
}

func TestMergeTopics(t *testing.T) {
	got := MergeTopics([]string{"A topic", "B topic"}, []string{"a TOPIC", "C topic"})
	want := []string{"A topic", "B topic", "C topic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeTopics = %q, want %q", got, want)
	}
}

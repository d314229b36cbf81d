package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/services/weekparse"
	"github.com/sahilchouksey/course-week-planner/utils"
	"github.com/sahilchouksey/course-week-planner/utils/validation"
)

const (
	// SyllabusHintLimit caps the syllabus hint lines sent with a schedule prompt
	SyllabusHintLimit = 1800
	// MaxUpcoming is the largest number of upcoming items a schedule carries
	MaxUpcoming = 3

	maxPrimaryWords   = 6
	maxDayTags        = 4
	maxTagChars       = 40
	maxUpcomingTitle  = 120
	scheduleSchemaKey = "week_schedule"
)

const scheduleSystemPrompt = `You build a one-week study calendar for a university course.
You receive the target week, its Monday-Sunday date range, the calendar rows found for that week in the course schedule, and hint lines from the syllabus.
Return JSON only, shaped as {"days":[{"date":"YYYY-MM-DD","dow":"Mon","primary":"short label","tags":["..."]}],"upcoming":[{"title":"...","dueDate":"YYYY-MM-DD","dueDowLabel":"..."}]}.
Rules:
- one entry per date from week_start to week_end
- "primary" is at most 6 words naming the most important activity of the day (exam, quiz, lecture topic, or "No class")
- a quiz cell that says "No Quiz" means there is no quiz; never label that day as a quiz
- use "No items" when nothing is known about a day
- "upcoming" lists at most 3 deadlines or assessments, soonest first
- never invent dates outside the rows or hints`

var scheduleSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"days": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date":    map[string]interface{}{"type": "string"},
					"dow":     map[string]interface{}{"type": "string"},
					"primary": map[string]interface{}{"type": "string"},
					"tags":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				},
				"required": []string{"date", "primary"},
			},
		},
		"upcoming": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title":       map[string]interface{}{"type": "string"},
					"dueDate":     map[string]interface{}{"type": "string"},
					"dueDowLabel": map[string]interface{}{"type": "string"},
				},
				"required": []string{"title", "dueDate"},
			},
		},
	},
	"required": []string{"days", "upcoming"},
}

// ReconcileInput is everything the reconciler knows about one week
type ReconcileInput struct {
	Week          int
	WeekStart     time.Time
	Rows          []model.WeekRawRow
	SyllabusHints string
}

// ReconcileResult is a finalized week. ModelAnswered reports whether the completer
// returned an answer, parsable or not.
type ReconcileResult struct {
	Days          []model.WeekScheduleDay
	Upcoming      []model.WeekScheduleUpcoming
	ModelAnswered bool
	Model         string
}

// scheduleOutput is the outer shape of the model answer. Elements are decoded one by one
// so a single malformed entry does not discard its siblings.
type scheduleOutput struct {
	Days     []json.RawMessage `json:"days"`
	Upcoming []json.RawMessage `json:"upcoming"`
}

type modelDay struct {
	Date    string   `json:"date" validate:"required,datetime=2006-01-02"`
	Dow     string   `json:"dow"`
	Primary string   `json:"primary" validate:"required"`
	Tags    []string `json:"tags"`
}

type modelUpcoming struct {
	Title       string `json:"title" validate:"required"`
	DueDate     string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	DueDowLabel string `json:"dueDowLabel"`
}

// ScheduleReconciler merges deterministic rows with model output into a 7-day schedule
type ScheduleReconciler struct {
	completer Completer
	validator *validation.Validator
	log       *utils.Logger
}

// NewScheduleReconciler creates a reconciler. A nil completer yields deterministic output.
func NewScheduleReconciler(completer Completer, log *utils.Logger) *ScheduleReconciler {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &ScheduleReconciler{
		completer: completer,
		validator: validation.NewValidator(),
		log:       log.With("component", "schedule_reconciler"),
	}
}

// Reconcile asks the model for the week and merges its answer with in.Rows. Model failures
// degrade to the deterministic path; only context cancellation is returned as an error.
func (r *ScheduleReconciler) Reconcile(ctx context.Context, in ReconcileInput) (*ReconcileResult, error) {
	weekStart := weekparse.DateOnly(in.WeekStart)
	result := &ReconcileResult{}

	var parsed *scheduleOutput
	if r.completer != nil {
		prompt, err := buildSchedulePrompt(in, weekStart)
		if err != nil {
			return nil, err
		}
		raw, err := r.completer.Complete(ctx, prompt)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			r.log.Warn("schedule model call failed, using deterministic rows", "week", in.Week, "error", err)
		default:
			result.ModelAnswered = true
			result.Model = r.completer.Model()
			if parsed = parseScheduleOutput(raw); parsed == nil {
				r.log.Warn("schedule model output unparsable, using deterministic rows", "week", in.Week, "chars", len(raw))
			}
		}
	}

	days, upcoming := r.decode(parsed, weekStart)
	result.Days = NormalizeDays(weekStart, days, in.Rows)
	result.Upcoming = BuildUpcoming(weekStart, upcoming, result.Days)
	return result, nil
}

func buildSchedulePrompt(in ReconcileInput, weekStart time.Time) (Prompt, error) {
	rows := in.Rows
	if rows == nil {
		rows = []model.WeekRawRow{}
	}
	payload := struct {
		Week          int                `json:"week"`
		WeekStart     string             `json:"week_start"`
		WeekEnd       string             `json:"week_end"`
		Rows          []model.WeekRawRow `json:"rows"`
		SyllabusHints string             `json:"syllabus_hints,omitempty"`
	}{
		Week:          in.Week,
		WeekStart:     weekparse.FormatISO(weekStart),
		WeekEnd:       weekparse.FormatISO(weekStart.AddDate(0, 0, 6)),
		Rows:          rows,
		SyllabusHints: truncateRunes(in.SyllabusHints, SyllabusHintLimit),
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to encode schedule prompt: %w", err)
	}
	return Prompt{
		System:     scheduleSystemPrompt,
		User:       string(body),
		SchemaName: scheduleSchemaKey,
		Schema:     scheduleSchema,
	}, nil
}

// parseScheduleOutput accepts a bare JSON object or one embedded in prose. It returns nil
// when no object with the expected shape can be recovered.
func parseScheduleOutput(raw string) *scheduleOutput {
	for _, object := range utils.ExtractJSONObjects(raw) {
		var out scheduleOutput
		if err := json.Unmarshal([]byte(object), &out); err != nil {
			continue
		}
		if out.Days == nil && out.Upcoming == nil {
			continue
		}
		return &out
	}
	return nil
}

// decode validates model entries. Days are keyed by date, first entry per date wins;
// dates outside the week are dropped.
func (r *ScheduleReconciler) decode(out *scheduleOutput, weekStart time.Time) (map[string]model.WeekScheduleDay, []model.WeekScheduleUpcoming) {
	days := make(map[string]model.WeekScheduleDay)
	if out == nil {
		return days, nil
	}

	for _, raw := range out.Days {
		var d modelDay
		if err := json.Unmarshal(raw, &d); err != nil {
			continue
		}
		d.Date = strings.TrimSpace(d.Date)
		if err := r.validator.ValidateStruct(d); err != nil {
			r.log.Debug("model day rejected", "reason", validation.Summary(err))
			continue
		}
		date, _ := weekparse.ParseISO(d.Date)
		if !weekparse.InWeek(date, weekStart) {
			continue
		}
		if _, dup := days[d.Date]; dup {
			continue
		}
		primary := capWords(d.Primary, maxPrimaryWords)
		if primary == "" {
			continue
		}
		days[d.Date] = model.WeekScheduleDay{
			DateISO: d.Date,
			Primary: primary,
			Tags:    cleanList(d.Tags, maxDayTags, maxTagChars),
		}
	}

	var upcoming []model.WeekScheduleUpcoming
	for _, raw := range out.Upcoming {
		var u modelUpcoming
		if err := json.Unmarshal(raw, &u); err != nil {
			continue
		}
		u.Title = strings.TrimSpace(u.Title)
		u.DueDate = strings.TrimSpace(u.DueDate)
		if err := r.validator.ValidateStruct(u); err != nil {
			r.log.Debug("model upcoming item rejected", "reason", validation.Summary(err))
			continue
		}
		upcoming = append(upcoming, model.WeekScheduleUpcoming{Title: u.Title, DueDateISO: u.DueDate})
	}
	return days, upcoming
}

// NormalizeDays returns exactly seven days, weekStart..weekStart+6 in order. A model entry
// for a date wins; other dates are derived from the row of that date. The weekday label
// is always recomputed from the date.
func NormalizeDays(weekStart time.Time, modelDays map[string]model.WeekScheduleDay, rows []model.WeekRawRow) []model.WeekScheduleDay {
	weekStart = weekparse.DateOnly(weekStart)
	rowsByDate := make(map[string]model.WeekRawRow, len(rows))
	for _, row := range rows {
		if _, ok := rowsByDate[row.DateISO]; !ok {
			rowsByDate[row.DateISO] = row
		}
	}

	days := make([]model.WeekScheduleDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i)
		iso := weekparse.FormatISO(date)

		var day model.WeekScheduleDay
		if md, ok := modelDays[iso]; ok && strings.TrimSpace(md.Primary) != "" {
			day = md
		} else if row, ok := rowsByDate[iso]; ok {
			day = deterministicDay(row)
		} else {
			day = model.WeekScheduleDay{Primary: model.NoItemsLabel}
		}
		day.DateISO = iso
		day.DayOfWeek = weekparse.ShortDayName(date)
		day.Source = model.DaySourceAI
		days = append(days, day)
	}
	return days
}

// DeterministicPrimary labels a row: a no-class or holiday note, then the quiz cell unless
// it says there is no quiz, then the lecture cell, then the discussion cell.
func DeterministicPrimary(row model.WeekRawRow) string {
	switch {
	case weekparse.HasNote(row.Notes, model.NoClassLabel):
		return model.NoClassLabel
	case weekparse.HasNote(row.Notes, "Holiday"):
		return "Holiday"
	case row.QuizCell != "" && !weekparse.IsNoQuiz(row.QuizCell):
		return capWords("Quiz "+row.QuizCell, maxPrimaryWords)
	case row.LectureCell != "":
		return capWords("Lecture "+row.LectureCell, maxPrimaryWords)
	case row.DiscussionCell != "":
		return capWords("Discussion "+row.DiscussionCell, maxPrimaryWords)
	default:
		return model.NoItemsLabel
	}
}

func deterministicDay(row model.WeekRawRow) model.WeekScheduleDay {
	primary := DeterministicPrimary(row)
	var tags []string
	if row.Notes != "" {
		for _, note := range strings.Split(row.Notes, "; ") {
			if strings.EqualFold(note, "No quiz") || strings.EqualFold(note, primary) {
				continue
			}
			tags = append(tags, note)
		}
	}
	if row.SectionCell != "" {
		tags = append(tags, "Section "+row.SectionCell)
	}
	return model.WeekScheduleDay{
		Primary: primary,
		Tags:    cleanList(tags, maxDayTags, maxTagChars),
	}
}

// BuildUpcoming keeps up to MaxUpcoming candidates due on or after weekStart, then pads
// from the finalized days that carry information. Candidate labels are ignored and
// recomputed relative to weekStart.
func BuildUpcoming(weekStart time.Time, candidates []model.WeekScheduleUpcoming, days []model.WeekScheduleDay) []model.WeekScheduleUpcoming {
	weekStart = weekparse.DateOnly(weekStart)
	upcoming := make([]model.WeekScheduleUpcoming, 0, MaxUpcoming)
	seen := make(map[string]struct{}, MaxUpcoming)

	add := func(title string, due time.Time) {
		title = truncateRunes(strings.TrimSpace(title), maxUpcomingTitle)
		if title == "" || len(upcoming) == MaxUpcoming {
			return
		}
		iso := weekparse.FormatISO(due)
		key := strings.ToLower(title) + "|" + iso
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		upcoming = append(upcoming, model.WeekScheduleUpcoming{
			Title:       title,
			DueDateISO:  iso,
			DueDowLabel: weekparse.DueDowLabel(due, weekStart),
		})
	}

	for _, item := range candidates {
		due, err := weekparse.ParseISO(item.DueDateISO)
		if err != nil || due.Before(weekStart) {
			continue
		}
		add(item.Title, due)
	}
	for _, day := range days {
		if day.Primary == model.NoItemsLabel {
			continue
		}
		due, err := weekparse.ParseISO(day.DateISO)
		if err != nil {
			continue
		}
		add(day.Primary, due)
	}
	return upcoming
}

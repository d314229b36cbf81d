package week

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
)

type stubSchedules struct {
	schedule *model.WeekSchedule
	err      error
	gotWeek  *int
	gotUser  uint
}

func (s *stubSchedules) GetWeekSchedule(_ context.Context, _, userID uint, week *int) (*model.WeekSchedule, error) {
	s.gotUser = userID
	s.gotWeek = week
	return s.schedule, s.err
}

type stubRecommendations struct {
	rec *model.WeekRecommendation
	err error
}

func (s *stubRecommendations) GetWeekRecommendation(context.Context, uint, uint, *int) (*model.WeekRecommendation, error) {
	return s.rec, s.err
}

func newWeekApp(h *WeekHandler, authenticated bool) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if authenticated {
			c.Locals("user_id", uint(7))
		}
		return c.Next()
	})
	app.Get("/classes/:class_id/weeks/schedule", h.GetSchedule)
	app.Get("/classes/:class_id/weeks/recommendations", h.GetRecommendations)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func TestGetSchedule(t *testing.T) {
	schedules := &stubSchedules{schedule: &model.WeekSchedule{Week: 3, WeekStartISO: "2024-03-04", WeekEndISO: "2024-03-10"}}
	app := newWeekApp(NewWeekHandler(schedules, &stubRecommendations{}, nil), true)

	status, body := get(t, app, "/classes/1/weeks/schedule?week=3")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if schedules.gotUser != 7 || schedules.gotWeek == nil || *schedules.gotWeek != 3 {
		t.Errorf("user = %d, week = %v", schedules.gotUser, schedules.gotWeek)
	}

	status, _ = get(t, app, "/classes/1/weeks/schedule")
	if status != fiber.StatusOK || schedules.gotWeek != nil {
		t.Errorf("without week: status = %d, week = %v", status, schedules.gotWeek)
	}
}

func TestGetScheduleStatuses(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		schedules     *stubSchedules
		authenticated bool
		status        int
	}{
		{"no documents", "/classes/1/weeks/schedule", &stubSchedules{}, true, fiber.StatusUnprocessableEntity},
		{"not owned", "/classes/1/weeks/schedule", &stubSchedules{err: database.ErrClassNotFound}, true, fiber.StatusNotFound},
		{"generation failed", "/classes/1/weeks/schedule", &stubSchedules{err: errors.New("boom")}, true, fiber.StatusServiceUnavailable},
		{"bad week", "/classes/1/weeks/schedule?week=three", &stubSchedules{}, true, fiber.StatusBadRequest},
		{"bad class", "/classes/abc/weeks/schedule", &stubSchedules{}, true, fiber.StatusBadRequest},
		{"zero class", "/classes/0/weeks/schedule", &stubSchedules{}, true, fiber.StatusBadRequest},
		{"anonymous", "/classes/1/weeks/schedule", &stubSchedules{}, false, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		app := newWeekApp(NewWeekHandler(tt.schedules, &stubRecommendations{}, nil), tt.authenticated)
		if status, body := get(t, app, tt.path); status != tt.status {
			t.Errorf("%s: status = %d, want %d (%v)", tt.name, status, tt.status, body)
		}
	}
}

func TestGetRecommendations(t *testing.T) {
	full := &model.WeekRecommendation{
		Week: 3,
		Resources: []model.CuratedResource{
			{Title: "a", URL: "https://www.khanacademy.org/a"},
			{Title: "b", URL: "https://ocw.mit.edu/b"},
			{Title: "c", URL: "https://en.wikipedia.org/wiki/c"},
		},
	}
	tests := []struct {
		name   string
		recs   *stubRecommendations
		status int
	}{
		{"curated", &stubRecommendations{rec: full}, fiber.StatusOK},
		{"no topics", &stubRecommendations{}, fiber.StatusUnprocessableEntity},
		{"nothing qualified", &stubRecommendations{rec: &model.WeekRecommendation{Week: 3}}, fiber.StatusUnprocessableEntity},
		{"not owned", &stubRecommendations{err: database.ErrClassNotFound}, fiber.StatusNotFound},
		{"model down", &stubRecommendations{err: errors.New("model unavailable")}, fiber.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		app := newWeekApp(NewWeekHandler(&stubSchedules{}, tt.recs, nil), true)
		status, body := get(t, app, "/classes/1/weeks/recommendations?week=3")
		if status != tt.status {
			t.Errorf("%s: status = %d, want %d (%v)", tt.name, status, tt.status, body)
		}
	}
}

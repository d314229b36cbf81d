package week

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/utils"
	"github.com/sahilchouksey/course-week-planner/utils/middleware"
	"github.com/sahilchouksey/course-week-planner/utils/response"
)

// ScheduleProvider produces week schedules
type ScheduleProvider interface {
	GetWeekSchedule(ctx context.Context, classID, userID uint, week *int) (*model.WeekSchedule, error)
}

// RecommendationProvider produces week recommendations
type RecommendationProvider interface {
	GetWeekRecommendation(ctx context.Context, classID, userID uint, week *int) (*model.WeekRecommendation, error)
}

// WeekHandler handles class week endpoints
type WeekHandler struct {
	schedules       ScheduleProvider
	recommendations RecommendationProvider
	log             *utils.Logger
}

// NewWeekHandler creates a new week handler
func NewWeekHandler(schedules ScheduleProvider, recommendations RecommendationProvider, log *utils.Logger) *WeekHandler {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &WeekHandler{
		schedules:       schedules,
		recommendations: recommendations,
		log:             log.With("component", "week_handler"),
	}
}

// GetSchedule returns the 7-day schedule of a class week
// GET /api/v1/classes/:class_id/weeks/schedule?week=N
func (h *WeekHandler) GetSchedule(c *fiber.Ctx) error {
	req, ferr := parseWeekRequest(c)
	if ferr != nil {
		return rejectRequest(c, ferr)
	}

	schedule, err := h.schedules.GetWeekSchedule(c.UserContext(), req.classID, req.userID, req.week)
	if err != nil {
		return h.failure(c, "schedule", req.classID, err)
	}
	if schedule == nil {
		return response.NoWeeklyContent(c, "Upload a schedule or syllabus to see this week")
	}
	return response.Success(c, schedule)
}

// GetRecommendations returns curated resources for a class week
// GET /api/v1/classes/:class_id/weeks/recommendations?week=N
func (h *WeekHandler) GetRecommendations(c *fiber.Ctx) error {
	req, ferr := parseWeekRequest(c)
	if ferr != nil {
		return rejectRequest(c, ferr)
	}

	rec, err := h.recommendations.GetWeekRecommendation(c.UserContext(), req.classID, req.userID, req.week)
	if err != nil {
		return h.failure(c, "recommendation", req.classID, err)
	}
	if rec == nil || len(rec.Resources) == 0 {
		return response.NoWeeklyContent(c, "No weekly topics or resources found for this week")
	}
	return response.Success(c, rec)
}

type weekRequest struct {
	userID  uint
	classID uint
	week    *int
}

// parseWeekRequest reads the caller, the class id and the optional week
func parseWeekRequest(c *fiber.Ctx) (weekRequest, *fiber.Error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return weekRequest{}, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
	}

	classID, err := strconv.ParseUint(c.Params("class_id"), 10, 32)
	if err != nil || classID == 0 {
		return weekRequest{}, fiber.NewError(fiber.StatusBadRequest, "Invalid class ID")
	}

	req := weekRequest{userID: userID, classID: uint(classID)}
	if raw := c.Query("week"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return weekRequest{}, fiber.NewError(fiber.StatusBadRequest, "week must be a number")
		}
		req.week = &n
	}
	return req, nil
}

func rejectRequest(c *fiber.Ctx, ferr *fiber.Error) error {
	if ferr.Code == fiber.StatusUnauthorized {
		return response.Unauthorized(c, ferr.Message)
	}
	return response.BadRequest(c, ferr.Message)
}

func (h *WeekHandler) failure(c *fiber.Ctx, what string, classID uint, err error) error {
	if errors.Is(err, database.ErrClassNotFound) {
		return response.NotFound(c, "Class not found")
	}
	h.log.Error("week "+what+" failed", "class_id", classID, "error", err)
	return response.GenerationFailed(c, "Could not generate the "+what+" right now, try again")
}

package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-week-planner/utils"
	"github.com/sahilchouksey/course-week-planner/utils/response"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	log           *utils.Logger
}

func NewAPIServer(listenAddress string, log *utils.Logger) *APIServer {
	if log == nil {
		log = utils.NewNopLogger()
	}
	s := &APIServer{
		listenAddress: listenAddress,
		log:           log.With("component", "api"),
	}
	s.app = fiber.New(fiber.Config{
		AppName:      "course-week-planner",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // a cache miss waits on the model
		ErrorHandler: s.handleError,
	})
	return s
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.log.Info("starting API server", "address", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *APIServer) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return response.NotFound(c, fe.Message)
		case fiber.StatusMethodNotAllowed, fiber.StatusBadRequest:
			return response.Error(c, fe.Code, fe.Message, "BAD_REQUEST")
		}
		return response.Error(c, fe.Code, fe.Message, "ERROR")
	}
	s.log.Error("unhandled request error", "path", c.Path(), "error", err)
	return response.InternalServerError(c, "Internal server error")
}

package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dkorzhov/tasksync/internal/model"
)

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	tok, user, err := s.auth.Register(c.UserContext(), req.Email, req.FullName, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   tok.ExpiresAt,
		User:        user,
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	tok, user, err := s.auth.LoginWithIP(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		s.log.Info("login rejected", zap.String("ip", c.IP()), zap.Error(err))
		return fail(c, err)
	}
	return c.JSON(tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   tok.ExpiresAt,
		User:        user,
	})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	userID, err := s.coord.Authenticate(bearerToken(c))
	if err != nil {
		return fail(c, err)
	}
	user, err := s.auth.GetUser(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

func (s *Server) handleListTasks(c *fiber.Ctx) error {
	var f model.TaskFilter
	if v := c.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "completed must be a boolean")
		}
		f.Completed = &b
	}
	if v := c.Query("top_level"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "top_level must be a boolean")
		}
		f.TopLevelOnly = b
	}

	tasks, err := s.coord.ListTasks(c.UserContext(), bearerToken(c), f)
	if err != nil {
		return fail(c, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.JSON(tasks)
}

func (s *Server) handleCreateTask(c *fiber.Ctx) error {
	var req taskCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := s.coord.CreateTask(c.UserContext(), bearerToken(c), req.toNewTask())
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (s *Server) handleGetTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return badRequest(c, "invalid task id")
	}
	t, err := s.coord.GetTask(c.UserContext(), bearerToken(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(t)
}

func (s *Server) handleUpdateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return badRequest(c, "invalid task id")
	}
	var req taskUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := s.coord.UpdateTask(c.UserContext(), bearerToken(c), id, req.toPatch())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(t)
}

func (s *Server) handleToggleTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return badRequest(c, "invalid task id")
	}
	t, err := s.coord.ToggleTask(c.UserContext(), bearerToken(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(t)
}

func (s *Server) handleDeleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return badRequest(c, "invalid task id")
	}
	if err := s.coord.DeleteTask(c.UserContext(), bearerToken(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSuggest(c *fiber.Ctx) error {
	if _, err := s.coord.Authenticate(bearerToken(c)); err != nil {
		return fail(c, err)
	}
	var req suggestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return badRequest(c, "title is required")
	}
	sug, err := s.sugg.Suggest(c.UserContext(), req.Title)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sug)
}

func taskID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

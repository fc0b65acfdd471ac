package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"boardsync/domain"
	"boardsync/session"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

// Authenticator is implemented by types able to extract user IDs from
// Authorization headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, s *session.Session, auth Authenticator, logger *log.Logger) {
	e.GET("/healthz", healthz())

	e.GET("/api/board", getBoard(s, auth, logger))
	e.GET("/api/tasks", getTasks(s, auth))
	e.GET("/api/contacts", getContacts(s, auth))

	e.POST("/api/tasks", postTask(s, auth))
	e.PATCH("/api/tasks/:id", patchTask(s, auth))
	e.POST("/api/tasks/:id/move", postMove(s, auth))
	e.POST("/api/tasks/:id/subtasks", postSubtask(s, auth))
	e.PATCH("/api/tasks/:id/subtasks/:subtaskID", patchSubtask(s, auth))
	e.DELETE("/api/tasks/:id/subtasks/:subtaskID", deleteSubtask(s, auth))
	e.DELETE("/api/tasks/:id", deleteEntity(s.TaskDeletes, auth))
	e.POST("/api/tasks/:id/delete/cancel", cancelDelete(s.TaskDeletes, auth))

	e.POST("/api/contacts", postContact(s, auth))
	e.PATCH("/api/contacts/:id", patchContact(s, auth))
	e.DELETE("/api/contacts/:id", deleteEntity(s.ContactDeletes, auth))
	e.POST("/api/contacts/:id/delete/cancel", cancelDelete(s.ContactDeletes, auth))

	e.GET("/stream", streamBoard(s, auth))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// authorize verifies the Authorization header. A non-nil error means
// the request is unauthenticated and the handler must stop.
func authorize(c echo.Context, auth Authenticator) error {
	_, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	return err
}

// decodeBody reads a size-capped JSON request body, rejecting unknown
// fields.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeError maps operation failures onto HTTP responses. Validation
// failures never reached the store; not-found targets are gone from
// the remote collection.
func writeError(c echo.Context, err error) error {
	var verr domain.ValidationError
	if errors.As(err, &verr) {
		return c.String(http.StatusBadRequest, verr.Error())
	}
	if errors.Is(err, session.ErrNotFound) {
		return c.NoContent(http.StatusNotFound)
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, err.Error())
}

type boardResponse struct {
	Columns map[domain.Stage][]domain.Task `json:"columns"`
	Stages  []domain.Stage                 `json:"stages"`
}

func getBoard(s *session.Session, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
		}
		var opErr error
		defer func() {
			metrics.Log(c.Response().Status, opErr)
		}()

		authStart := time.Now()
		authErr := authorize(c, auth)
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			opErr = authErr
			return c.String(http.StatusUnauthorized, authErr.Error())
		}

		partitionStart := time.Now()
		columns := s.Board.Columns()
		metrics.ObservePartition(time.Since(partitionStart))

		total := 0
		for _, col := range columns {
			total += len(col)
		}
		metrics.SetTasksReturned(total)

		encodeStart := time.Now()
		opErr = c.JSON(http.StatusOK, boardResponse{Columns: columns, Stages: domain.Stages})
		metrics.ObserveEncode(time.Since(encodeStart))
		if opErr != nil {
			metrics.SetErrorStage("encode_response")
		}
		return opErr
	}
}

func getTasks(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		return c.JSON(http.StatusOK, s.Tasks.Current())
	}
}

func getContacts(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		return c.JSON(http.StatusOK, s.Contacts.Current())
	}
}

func postTask(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var in session.TaskInput
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task, err := s.CreateTask(c.Request().Context(), in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var patch session.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := s.UpdateTask(c.Request().Context(), c.Param("id"), patch); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type moveRequest struct {
	From  domain.Stage `json:"from"`
	To    domain.Stage `json:"to"`
	Index int          `json:"index"`
}

func postMove(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req moveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		id := c.Param("id")
		var task domain.Task
		found := false
		for _, t := range s.Tasks.Current() {
			if t.ID == id {
				task = t
				found = true
				break
			}
		}
		if !found {
			return c.NoContent(http.StatusNotFound)
		}
		if req.From == "" {
			req.From = task.Stage
		}
		if err := s.Reorder.Move(c.Request().Context(), task, req.From, domain.NormalizeStage(req.To), req.Index); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type subtaskRequest struct {
	Title string `json:"title"`
}

func postSubtask(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req subtaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		sub, err := s.AddSubtask(c.Request().Context(), c.Param("id"), req.Title)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, sub)
	}
}

type subtaskToggleResponse struct {
	Done bool `json:"done"`
}

func patchSubtask(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		done, err := s.ToggleSubtask(c.Request().Context(), c.Param("id"), c.Param("subtaskID"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, subtaskToggleResponse{Done: done})
	}
}

func deleteSubtask(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := s.RemoveSubtask(c.Request().Context(), c.Param("id"), c.Param("subtaskID")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postContact(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var in session.ContactInput
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		contact, err := s.CreateContact(c.Request().Context(), in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, contact)
	}
}

func patchContact(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var patch session.ContactPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := s.UpdateContact(c.Request().Context(), c.Param("id"), patch); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

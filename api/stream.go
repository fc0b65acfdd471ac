package api

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"boardsync/domain"
	"boardsync/notify"
	"boardsync/session"
)

type streamPayload struct {
	Tasks        []domain.Task                  `json:"tasks"`
	Contacts     []domain.Contact               `json:"contacts"`
	Board        map[domain.Stage][]domain.Task `json:"board"`
	Notification *notify.Notification           `json:"notification"`
}

// streamBoard pushes the full board state over SSE: one payload right
// after connecting, then one for every mirror push or notification
// change. All stream clients share the session's single remote
// subscription per collection.
func streamBoard(s *session.Session, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" && token != "" {
			authHeader = "Bearer " + token
		}
		if _, err := auth.UserIDFromAuthHeader(authHeader); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}

		taskCh, cancelTasks := s.Tasks.Subscribe()
		defer cancelTasks()
		contactCh, cancelContacts := s.Contacts.Subscribe()
		defer cancelContacts()
		noteCh, cancelNotes := s.Notifier.Subscribe()
		defer cancelNotes()

		send := func() error {
			payload := streamPayload{
				Tasks:        s.Tasks.Current(),
				Contacts:     s.Contacts.Current(),
				Board:        s.Board.Columns(),
				Notification: s.Notifier.Current(),
			}
			data, err := sonic.Marshal(payload)
			if err != nil {
				c.Logger().Error(err)
				return err
			}
			if _, err := c.Response().Write([]byte("data: ")); err != nil {
				return err
			}
			if _, err := c.Response().Write(data); err != nil {
				return err
			}
			if _, err := c.Response().Write([]byte("\n\n")); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}

		if err := send(); err != nil {
			return nil
		}

		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-taskCh:
				if !ok {
					return nil
				}
			case _, ok := <-contactCh:
				if !ok {
					return nil
				}
			case <-noteCh:
			}
			if err := send(); err != nil {
				return nil
			}
		}
	}
}

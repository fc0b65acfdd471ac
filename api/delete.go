package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"boardsync/confirm"
)

type deleteResponse struct {
	Deleted bool   `json:"deleted"`
	Pending string `json:"pending,omitempty"`
}

// deleteEntity maps the two-phase confirmation onto HTTP: the first
// DELETE arms the confirmation and answers 202, a second DELETE for
// the same id inside the confirmation window performs the delete. The
// pending state resets on its own after the confirmation timeout.
func deleteEntity(ctrl *confirm.Controller, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id := c.Param("id")
		confirmed, err := ctrl.Request(c.Request().Context(), id)
		if err != nil {
			return writeError(c, err)
		}
		if confirmed {
			return c.JSON(http.StatusOK, deleteResponse{Deleted: true})
		}
		return c.JSON(http.StatusAccepted, deleteResponse{Pending: id})
	}
}

func cancelDelete(ctrl *confirm.Controller, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		ctrl.Cancel()
		return c.NoContent(http.StatusNoContent)
	}
}

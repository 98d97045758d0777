package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"catalog-service/internal/apperr"
)

// writeError renders a service error as its stable (kind, message) pair. The
// underlying cause is attached only in diagnostic mode.
func writeError(c echo.Context, err error, debug bool) error {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Wrap(err, apperr.Internal, "internal server error")
	}

	body := echo.Map{"error": e.Message}
	if debug && e.Err != nil {
		body["detail"] = e.Err.Error()
	}
	return c.JSON(apperr.HTTPStatus(e.Kind), body)
}

func invalidForm(msg string, cause error) error {
	if cause != nil {
		return apperr.Wrap(cause, apperr.InvalidArgument, msg)
	}
	return apperr.New(apperr.InvalidArgument, msg)
}

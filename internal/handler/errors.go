package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/logging"
)

// ErrorHandler renders every failed request as {"msg": ...}. Domain errors go through
// MapErrorToHTTP; echo's own errors keep their status. Causes of 500s are logged and
// never sent to the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr := toHTTPError(err)
	if httpErr.IsInternal() {
		logging.FromContext(c.Request().Context()).Error("request failed", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(httpErr.StatusCode)
		return
	}
	_ = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func toHTTPError(err error) *apperrors.HTTPError {
	var he *apperrors.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		if ee.Code >= http.StatusInternalServerError {
			return apperrors.NewHTTPError(ee.Code, "Server Error")
		}
		msg, ok := ee.Message.(string)
		if !ok {
			msg = fmt.Sprint(ee.Message)
		}
		return apperrors.NewHTTPError(ee.Code, msg)
	}

	return apperrors.MapErrorToHTTP(err)
}

// badRequest wraps a binding or validation failure so it classifies as ErrValidation.
func badRequest(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}

// invalidSweet is badRequest for the inventory endpoints.
func invalidSweet(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidSweet, err)
}

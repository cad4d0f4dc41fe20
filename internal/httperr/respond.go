// Package httperr maps usecase error kinds onto transport responses.
package httperr

import (
	"net/http"

	"github.com/altastore/catalog-service/pkg/apperrors"
	"github.com/altastore/catalog-service/pkg/i18n"
	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
}

func statusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidReference:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the single structured error for a failed request. Internal
// errors are masked with a localized generic message; the detail stays in
// the logs.
func Respond(c echo.Context, err error) error {
	kind := apperrors.KindOf(err)
	msg := apperrors.MessageOf(err)
	if kind == apperrors.KindInternal {
		msg = i18n.T("ErrInternal", c.Request().Header.Get("Accept-Language"))
	}
	return c.JSON(statusOf(kind), errorBody{Kind: kind, Message: msg})
}

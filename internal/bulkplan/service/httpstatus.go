package service

import (
	"errors"
	"net/http"

	perrors "github.com/openjustice/prisonalerts/internal/platform/errors"
)

// HTTPStatus maps a service error to the REST status a transport handler
// should answer with. Unrecognised errors map to 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var domainErr *perrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Package controllers translates HTTP requests into service calls and
// service results into API responses.
package controllers

import (
	"errors"
	"net/http"

	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/pkg/logger"
	"github.com/herbveda/storefront/pkg/response"
)

// writeServiceError maps a service error to its HTTP response. Anything that
// is not a *services.Error is an internal failure: logged, and answered with
// a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *services.Error
	if errors.As(err, &se) {
		response.Error(w, se.Status, se.Message)
		return
	}
	logger.WithCtx(r.Context()).Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	response.ServerError(w)
}

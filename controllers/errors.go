package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"github.com/yeremiapane/table-order/views"
)

var errInvalidID = errors.New("invalid id")

// statusFor maps service and view errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrNoActiveOrder):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTableSessionOpen),
		errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrOrderChanged),
		errors.Is(err, views.ErrTransitionNotAllowed):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidTable),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrNoValidItems),
		errors.Is(err, services.ErrUnknownMenuItem),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, views.ErrUnknownLane),
		errors.Is(err, views.ErrUnknownWindow):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrPaymentUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
	}
	utils.RespondError(c, code, err)
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errInvalidID)
		return 0, false
	}
	return uint(id), true
}

func paramTable(c *gin.Context) (int, bool) {
	table, err := strconv.Atoi(c.Param("table"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, services.ErrInvalidTable)
		return 0, false
	}
	return table, true
}

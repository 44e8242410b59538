package resputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talent-lab/sourcedash/pkg/repository"
)

// Response is the uniform envelope for every endpoint.
type Response[T any] struct {
	Code ErrorCode `json:"code"`
	Data T         `json:"data"`
	Msg  string    `json:"msg"`
}

func wrapResponse(c *gin.Context, httpCode int, msg string, data any, code ErrorCode) {
	c.JSON(httpCode, gin.H{
		"code": code,
		"data": data,
		"msg":  msg,
	})
}

func Success(c *gin.Context, data any) {
	wrapResponse(c, http.StatusOK, "", data, OK)
}

func Error(c *gin.Context, msg string, errorCode ErrorCode) {
	wrapResponse(c, http.StatusInternalServerError, msg, nil, errorCode)
}

func HTTPError(c *gin.Context, httpCode int, msg string, errorCode ErrorCode) {
	wrapResponse(c, httpCode, msg, nil, errorCode)
}

// StoreError maps repository sentinel errors to their status/code pair;
// anything unrecognized propagates as an internal error unchanged.
func StoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		HTTPError(c, http.StatusNotFound, err.Error(), NotFound)
	case errors.Is(err, repository.ErrEmailExists):
		HTTPError(c, http.StatusConflict, err.Error(), Conflict)
	case errors.Is(err, repository.ErrInvalidAction):
		HTTPError(c, http.StatusBadRequest, err.Error(), InvalidRequest)
	case errors.Is(err, repository.ErrInvalidPassword):
		HTTPError(c, http.StatusBadRequest, err.Error(), InvalidRequest)
	default:
		Error(c, err.Error(), NotSpecified)
	}
}

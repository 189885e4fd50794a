package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/patrolq/internal/contract"
)

// Response is the envelope of every API reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// documentError maps a document load failure to its status code.
func documentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, contract.ErrResultsNotFound):
		fail(c, http.StatusNotFound, contract.ErrResultsNotFound.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

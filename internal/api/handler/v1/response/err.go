package response

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Err is the JSON error envelope. The wrapped error stays server-side; only
// ErrorMsg is rendered to the client.
type Err struct {
	StatusCode int    `json:"-"`
	ErrorMsg   string `json:"error"`
	RequestID  string `json:"request_id,omitempty"`

	err error
}

func (e *Err) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	return e.ErrorMsg
}

func NewErr(statusCode int, err error, msg string) *Err {
	return &Err{
		StatusCode: statusCode,
		ErrorMsg:   msg,
		err:        err,
	}
}

func ErrBadRequest(err error) *Err {
	return NewErr(http.StatusBadRequest, err, err.Error())
}

func ErrWrongCredentials(err error) *Err {
	return NewErr(http.StatusUnauthorized, err, "wrong credentials")
}

func ErrForbidden(err error) *Err {
	return NewErr(http.StatusForbidden, err, err.Error())
}

func ErrNotFound(err error) *Err {
	return NewErr(http.StatusNotFound, err, err.Error())
}

func ErrConflict(err error) *Err {
	return NewErr(http.StatusConflict, err, err.Error())
}

func ErrInternalServerError(err error) *Err {
	return NewErr(http.StatusInternalServerError, err, "something went wrong")
}

// RenderErr writes the error envelope and aborts the handler chain. Server
// faults are logged with the request id; client errors are not.
func RenderErr(ctx *gin.Context, e *Err) {
	e.RequestID = requestid.Get(ctx)

	if e.StatusCode >= http.StatusInternalServerError {
		zap.L().Error("server error",
			zap.String("request_id", e.RequestID),
			zap.Int("status", e.StatusCode),
			zap.Error(e.err))
	}

	ctx.AbortWithStatusJSON(e.StatusCode, e)
}

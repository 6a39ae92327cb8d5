package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sportsclubhq/clubsync/internal/service"
)

var errMutationFailed = errors.New("mutation produced a non-success response")

type bodyCaptureWriter struct {
	gin.ResponseWriter

	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)

	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)

	return w.ResponseWriter.WriteString(s)
}

// Idempotency deduplicates mutations carrying an Idempotency-Key header.
// A replay within the TTL is answered from the cached response without
// running the handler; non-success responses are never cached, so a retry
// after a failure re-executes the mutation.
func Idempotency(svc *service.IdempotencyService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost && ctx.Request.Method != http.MethodPut {
			ctx.Next()

			return
		}

		key := ctx.GetHeader("Idempotency-Key")
		if key == "" {
			ctx.Next()

			return
		}

		principal, ok := CurrentPrincipal(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})

			return
		}

		endpoint := ctx.Request.Method + " " + ctx.FullPath()

		executed := false
		status, body, err := svc.Execute(ctx.Request.Context(), key, principal.ID, endpoint,
			func(context.Context) (int, json.RawMessage, error) {
				executed = true

				writer := &bodyCaptureWriter{ResponseWriter: ctx.Writer}
				ctx.Writer = writer
				ctx.Next()

				if writer.Status() >= http.StatusMultipleChoices {
					return 0, nil, errMutationFailed
				}

				return writer.Status(), writer.body.Bytes(), nil
			})

		if executed {
			// The handler already wrote the response; whether caching
			// succeeded does not change what the client sees.
			return
		}

		if err != nil {
			if errors.Is(err, service.ErrRequestInFlight) {
				ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})

				return
			}

			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "idempotency lookup failed"})

			return
		}

		ctx.Data(status, "application/json; charset=utf-8", body)
		ctx.Abort()
	}
}

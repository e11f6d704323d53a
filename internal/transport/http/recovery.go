package http

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
)

// Recovery turns a handler panic into a 500 with the standard error body.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					observability.GetLogger(r.Context()).Error("panic_recovered",
						zap.Any("error", rec),
						zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					)
					writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: "internal server error", Code: CodeInternal})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

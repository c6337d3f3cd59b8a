package middleware

import (
	"context"
	"net/http"
	"time"

	"accounts-service/internal/usecase"

	"go.uber.org/zap"
)

// VisitRecorder appends a visit-trail record for every authenticated
// request. Recording is best-effort off the request path; a storage failure
// never affects the response.
func VisitRecorder(audit *usecase.AuditUsecase, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := UserID(r.Context()); ok {
				url := r.URL.Path
				referer := r.Referer()
				userAgent := r.UserAgent()

				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					var ref *string
					if referer != "" {
						ref = &referer
					}
					if _, err := audit.RecordVisit(ctx, userID, url, ref, userAgent); err != nil {
						logger.Warn("failed to record visit",
							zap.String("user_id", userID), zap.Error(err))
					}
				}()
			}

			next.ServeHTTP(w, r)
		})
	}
}

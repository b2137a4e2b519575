package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"bizfinance/internal/company"
	"bizfinance/internal/metrics"
	"bizfinance/pkg/authtoken"
	"bizfinance/pkg/config"
)

type CompanyFinder interface {
	FindByID(ctx context.Context, id string) (*company.Company, error)
}

// CompanyAuth resolves the company the request acts for and attaches it to the context.
//
// Expected header:
// - Authorization: Bearer <JWT> carrying a company_id claim.
//
// Outside prod, X-Company-ID is accepted when no bearer token is sent.
func CompanyAuth(cfg config.Config, companies CompanyFinder, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var companyID, actor string

			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			switch {
			case strings.HasPrefix(strings.ToLower(authz), "bearer "):
				v, err := authtoken.Verify(authz[7:], cfg.Auth.JWTAudience, cfg.Auth.JWTSecret, time.Now())
				if err != nil {
					log.WithError(err).Debug("rejecting access token")
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token")
					return
				}
				companyID = v.CompanyID
				actor = v.UserID
			case !cfg.IsProd():
				companyID = strings.TrimSpace(r.Header.Get("X-Company-ID"))
			}

			if companyID == "" {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing company identity")
				return
			}

			c, err := companies.FindByID(r.Context(), companyID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown company")
					return
				}
				log.WithError(err).WithField("companyId", companyID).Error("load company")
				WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
				return
			}

			ctx := WithCompany(r.Context(), c)
			if actor != "" {
				ctx = WithActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActiveSubscription blocks companies whose subscription lapsed.
func RequireActiveSubscription(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := CompanyFromContext(r.Context())
		if c == nil {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing company identity")
			return
		}
		if !c.CanOperate() {
			WriteError(w, http.StatusPaymentRequired, "SUBSCRIPTION_INACTIVE", "subscription is not active")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request and records its latency.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
				Observe(time.Since(start).Seconds())

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"durationMs": time.Since(start).Milliseconds(),
				"requestId":  middleware.GetReqID(r.Context()),
			}).Info("http request")
		})
	}
}

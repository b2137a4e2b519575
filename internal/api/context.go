package api

import (
	"context"
	"net/http"

	"bizfinance/internal/company"
)

type ctxKey string

const (
	ctxKeyCompany ctxKey = "company"
	ctxKeyActor   ctxKey = "actor"
)

const defaultActor = "user"

func WithCompany(ctx context.Context, c *company.Company) context.Context {
	return context.WithValue(ctx, ctxKeyCompany, c)
}

func CompanyFromContext(ctx context.Context) *company.Company {
	v := ctx.Value(ctxKeyCompany)
	if v == nil {
		return nil
	}
	c, _ := v.(*company.Company)
	return c
}

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ActorFromContext names who performed a mutation, for events and audit rows.
func ActorFromContext(ctx context.Context) string {
	if a, _ := ctx.Value(ctxKeyActor).(string); a != "" {
		return a
	}
	return defaultActor
}

// RequireCompany returns the request's company or writes a 401 and returns nil.
func RequireCompany(w http.ResponseWriter, r *http.Request) *company.Company {
	c := CompanyFromContext(r.Context())
	if c == nil {
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing company identity")
	}
	return c
}

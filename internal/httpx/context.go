package httpx

import (
	"context"
	"net/http"
)

type ctxKey int

const (
	subjectCtxKey ctxKey = iota
	roleCtxKey
	requestIDCtxKey
)

func stringValue(r *http.Request, key ctxKey) string {
	s, _ := r.Context().Value(key).(string)
	return s
}

// UserIDFrom returns the token subject set by AuthMiddleware.
func UserIDFrom(r *http.Request) string { return stringValue(r, subjectCtxKey) }

// RoleFrom returns the caller role set by AuthMiddleware.
func RoleFrom(r *http.Request) string { return stringValue(r, roleCtxKey) }

func RequestIDFrom(r *http.Request) string { return stringValue(r, requestIDCtxKey) }

func ContextWithUser(ctx context.Context, subject, role string) context.Context {
	return context.WithValue(context.WithValue(ctx, subjectCtxKey, subject), roleCtxKey, role)
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey, id)
}

package auth

import "context"

type subjectKey struct{}

// WithSubject stamps the authenticated principal's id into the context.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns the authenticated principal's id, or "" when the
// request never passed the JWT middleware.
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teacherpk/assessment/internal/rbac"
)

func TestJWTMiddlewareRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret", "admin", "")
	tok, err := svc.IssueJWT("u-author", "content_author")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotSub, gotRole string
	handler := JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotSub != "u-author" || gotRole != "content_author" {
		t.Fatalf("context carried %q/%q", gotSub, gotRole)
	}
}

func TestJWTMiddlewareRejects(t *testing.T) {
	svc := NewAuthService("test-secret", "admin", "")
	handler := JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}

	// Tokens signed with another key are rejected too.
	other := NewAuthService("other-secret", "admin", "")
	tok, err := other.IssueJWT("u1", "student")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d, want 401", rec.Code)
	}
}

func TestSubjectContext(t *testing.T) {
	ctx := context.Background()
	if SubjectFromContext(ctx) != "" {
		t.Fatal("empty context must yield no subject")
	}
	if got := SubjectFromContext(WithSubject(ctx, "u1")); got != "u1" {
		t.Fatalf("subject = %q, want u1", got)
	}
}

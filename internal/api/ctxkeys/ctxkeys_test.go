package ctxkeys

import (
	"context"
	"testing"
)

func TestWithValue_SetsAndGetsTypedKey(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), Subject, "user-999")
	got, ok := ctx.Value(Subject).(string)
	if !ok {
		t.Fatalf("expected string value")
	}
	if got != "user-999" {
		t.Fatalf("expected user-999, got %q", got)
	}
}

func TestSubjectFrom(t *testing.T) {
	t.Parallel()

	if _, ok := SubjectFrom(context.Background()); ok {
		t.Fatal("empty context reported a subject")
	}
	if _, ok := SubjectFrom(WithValue(context.Background(), Subject, "")); ok {
		t.Fatal("empty subject reported as present")
	}
	//nolint:staticcheck // a plain string key must not be read back as Subject
	plain := context.WithValue(context.Background(), "subject", "x")
	if _, ok := SubjectFrom(plain); ok {
		t.Fatal("string key collided with typed key")
	}
	got, ok := SubjectFrom(WithValue(context.Background(), Subject, "alice"))
	if !ok || got != "alice" {
		t.Fatalf("SubjectFrom = (%q, %v)", got, ok)
	}
}

package ai

import (
	"context"
	"errors"
	"testing"
)

// stubGenerator implements Generator for testing
type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     string
	}{
		{
			name:     "exact match passes through",
			response: "Task",
			want:     "Task",
		},
		{
			name:     "surrounding whitespace is trimmed",
			response: "  Reminder\n",
			want:     "Reminder",
		},
		{
			name:     "unknown label falls back to Other",
			response: "Groceries",
			want:     "Other",
		},
		{
			name:     "wrong case is not a match",
			response: "task",
			want:     "Other",
		},
		{
			name:     "chatty model output falls back to Other",
			response: "The category is: Task",
			want:     "Other",
		},
		{
			name:     "empty model output falls back to Other",
			response: "",
			want:     "Other",
		},
		{
			name:     "model error falls back to Other",
			response: "",
			err:      errors.New("network timeout"),
			want:     "Other",
		},
		{
			name:     "Other passes through",
			response: "Other",
			want:     "Other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&stubGenerator{response: tt.response, err: tt.err})
			got := c.Classify(context.Background(), "some text")
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyFailureIsIdempotent(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	c := NewClassifier(gen)

	for i := 0; i < 3; i++ {
		if got := c.Classify(context.Background(), "Buy milk tomorrow"); got != CategoryOther {
			t.Fatalf("call %d: Classify() = %q, want %q", i, got, CategoryOther)
		}
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 generator calls, got %d", gen.calls)
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = false, want true", c)
		}
	}
	for _, c := range []string{"", "task", "Unknown", " Task"} {
		if ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = true, want false", c)
		}
	}
}

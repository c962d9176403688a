package render

import "testing"

func TestSpinnerCyclesFrames(t *testing.T) {
	s := NewSpinner()
	if len(s.frames) == 0 {
		t.Fatal("NewSpinner produced no frames")
	}
	first := s.Next()
	for i := 0; i < len(s.frames)-1; i++ {
		s.Next()
	}
	if got := s.Next(); got != first {
		t.Fatalf("spinner did not wrap around: got %q, want %q", got, first)
	}
}

func TestFooterFormatting(t *testing.T) {
	if got := Footer("⠋", 2, 5, ""); got != "⠋ 2/5" {
		t.Fatalf("Footer = %q", got)
	}
	if got := Footer("⠋", 2, 5, "ci slow"); got != "⠋ 2/5 ci slow" {
		t.Fatalf("Footer with note = %q", got)
	}
}

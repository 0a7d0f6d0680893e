package quiz

import (
	"errors"
	"testing"

	"trivia-quiz-service/internal/domain"
)

func TestScoreTrackerRecordsOncePerQuestion(t *testing.T) {
	tracker := NewScoreTracker()

	correct, err := tracker.Record(0, "4", "4")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !correct {
		t.Fatalf("expected matching answer to be correct")
	}

	if _, err := tracker.Record(0, "5", "4"); !errors.Is(err, domain.ErrAnswerAlreadyRecorded) {
		t.Fatalf("expected ErrAnswerAlreadyRecorded, got %v", err)
	}
	if tracker.Answered() != 1 || tracker.Correct() != 1 {
		t.Fatalf("rejected record must not count: answered=%d correct=%d", tracker.Answered(), tracker.Correct())
	}
}

func TestScoreTrackerInvariantCorrectNeverExceedsAnswered(t *testing.T) {
	tracker := NewScoreTracker()
	answers := []struct{ selected, correct string }{
		{"a", "a"}, {"b", "x"}, {"c", "c"}, {"d", "y"}, {"e", "e"},
	}
	for i, a := range answers {
		if _, err := tracker.Record(i, a.selected, a.correct); err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
		if tracker.Correct() < 0 || tracker.Correct() > tracker.Answered() {
			t.Fatalf("invariant violated: correct=%d answered=%d", tracker.Correct(), tracker.Answered())
		}
	}
	if tracker.Correct() != 3 || tracker.Answered() != 5 {
		t.Fatalf("expected 3/5, got %d/%d", tracker.Correct(), tracker.Answered())
	}
}

func TestScoreTrackerPercentage(t *testing.T) {
	tracker := NewScoreTracker()
	if got := tracker.Percentage(0); got != 0 {
		t.Fatalf("expected 0%% with nothing to score, got %v", got)
	}

	_, _ = tracker.Record(0, "a", "a")
	_, _ = tracker.Record(1, "b", "x")
	_, _ = tracker.Record(2, "c", "c")

	if got := tracker.Percentage(3); got != 66.7 {
		t.Fatalf("expected 66.7, got %v", got)
	}

	tracker.Reset()
	if tracker.Answered() != 0 || tracker.Percentage(3) != 0 {
		t.Fatalf("expected clean tracker after reset")
	}
	if _, err := tracker.Record(0, "a", "a"); err != nil {
		t.Fatalf("expected indexes reusable after reset: %v", err)
	}
}

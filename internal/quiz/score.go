package quiz

import (
	"math"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// ScoreTracker accumulates per-question correctness for one quiz run. Each
// question index may be recorded at most once; a second record for the same
// index is a caller bug and is rejected rather than double-counted.
type ScoreTracker struct {
	mu       sync.Mutex
	correct  int
	answered int
	recorded map[int]bool
}

func NewScoreTracker() *ScoreTracker {
	return &ScoreTracker{recorded: make(map[int]bool)}
}

// Record scores the selected answer for the question at index against the
// correct answer (exact string match on the decoded text). It reports whether
// the selection was correct.
func (s *ScoreTracker) Record(index int, selected, correct string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorded[index] {
		return false, domain.ErrAnswerAlreadyRecorded
	}
	s.recorded[index] = true
	s.answered++
	isCorrect := selected == correct
	if isCorrect {
		s.correct++
	}
	return isCorrect, nil
}

// Reset clears all counters for a fresh run.
func (s *ScoreTracker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.correct = 0
	s.answered = 0
	s.recorded = make(map[int]bool)
}

// Correct returns the number of correct answers so far.
func (s *ScoreTracker) Correct() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correct
}

// Answered returns the number of questions answered so far.
func (s *ScoreTracker) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answered
}

// Percentage reports correct answers as a share of total, rounded to one
// decimal place. A non-positive total yields 0.
func (s *ScoreTracker) Percentage(total int) float64 {
	if total <= 0 {
		return 0
	}
	s.mu.Lock()
	correct := s.correct
	s.mu.Unlock()
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

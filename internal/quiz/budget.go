package quiz

import (
	"fmt"
	"math"
	"strings"

	"trivia-quiz-service/internal/domain"
)

// BaseSecondsPerQuestion is the allotment for a medium question.
const BaseSecondsPerQuestion = 20

var difficultyMultipliers = map[domain.Difficulty]float64{
	domain.DifficultyEasy:   0.75,
	domain.DifficultyMedium: 1.0,
	domain.DifficultyHard:   1.5,
}

// TotalSeconds computes the countdown budget for a question set: 20 seconds
// per question scaled by difficulty (easy x0.75, hard x1.5), summed and
// rounded. Unrecognized difficulties count as medium. An empty set yields 0.
func TotalSeconds(questions []domain.Question) int {
	total := 0.0
	for _, q := range questions {
		difficulty := domain.Difficulty(strings.ToLower(string(q.Difficulty)))
		multiplier, ok := difficultyMultipliers[difficulty]
		if !ok {
			multiplier = 1.0
		}
		total += BaseSecondsPerQuestion * multiplier
	}
	return int(math.Round(total))
}

// FormatSeconds renders a second count as m:ss for display.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

package domain

import "fmt"

// Difficulty is the remote service's difficulty rating for a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType selects multiple-choice or true/false questions.
type QuestionType string

const (
	TypeMultiple QuestionType = "multiple"
	TypeBoolean  QuestionType = "boolean"
)

// Criteria is the user-selected filter applied to a question fetch.
// Zero-valued optional fields are omitted from the remote query.
type Criteria struct {
	Amount     int          `json:"amount"`
	Category   string       `json:"category,omitempty"`
	Difficulty Difficulty   `json:"difficulty,omitempty"`
	Type       QuestionType `json:"type,omitempty"`
}

// Validate rejects criteria the remote service would refuse anyway.
func (c Criteria) Validate() error {
	if c.Amount <= 0 {
		return ErrInvalidCriteria
	}
	switch c.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: difficulty %q", ErrInvalidCriteria, c.Difficulty)
	}
	switch c.Type {
	case "", TypeMultiple, TypeBoolean:
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidCriteria, c.Type)
	}
	return nil
}

// Question is a single quiz question exactly as the remote service returns
// it. Text fields may contain HTML entities; they are decoded once at
// presentation time, never mutated here.
type Question struct {
	Text             string       `json:"question"`
	CorrectAnswer    string       `json:"correct_answer"`
	IncorrectAnswers []string     `json:"incorrect_answers"`
	Difficulty       Difficulty   `json:"difficulty"`
	Category         string       `json:"category,omitempty"`
	Type             QuestionType `json:"type,omitempty"`
}

// Category is one entry of the remote category list.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Phase names the current state of the quiz state machine.
type Phase string

const (
	PhaseSettings       Phase = "settings"
	PhaseLoading        Phase = "loading"
	PhaseInProgress     Phase = "in_progress"
	PhaseAnswerRevealed Phase = "answer_revealed"
	PhaseFinished       Phase = "finished"
)

// FetchStatus classifies the outcome of a question fetch.
type FetchStatus int

const (
	FetchReady FetchStatus = iota
	FetchNoResults
	FetchInvalidParameters
	FetchTokenInvalid
	FetchTokenExhausted
	FetchRateLimited
	FetchUnknownError
	FetchTransportError
)

// FetchOutcome is the classified result of one question fetch. Transport
// failures carry Err and never a remote code; unrecognized remote codes keep
// the raw code for display.
type FetchOutcome struct {
	Status    FetchStatus
	Questions []Question
	Code      int
	Err       error
}

// Snapshot is the read-only view published to the UI collaborator on every
// state transition. Question and Answers are present only while a question is
// shown; CorrectAnswer and LastAnswerCorrect only after an answer is
// revealed.
type Snapshot struct {
	Phase             Phase    `json:"phase"`
	QuestionIndex     int      `json:"questionIndex"`
	TotalQuestions    int      `json:"totalQuestions"`
	Question          string   `json:"question,omitempty"`
	Answers           []string `json:"answers,omitempty"`
	RemainingSeconds  int      `json:"remainingSeconds"`
	TotalSeconds      int      `json:"totalSeconds"`
	TimeDisplay       string   `json:"timeDisplay"`
	Score             int      `json:"score"`
	TotalAnswered     int      `json:"totalAnswered"`
	LastAnswerCorrect *bool    `json:"lastAnswerCorrect,omitempty"`
	CorrectAnswer     string   `json:"correctAnswer,omitempty"`
	Percentage        float64  `json:"percentage"`
	ErrorMessage      string   `json:"errorMessage,omitempty"`
}

package domain

import "errors"

var (
	// ErrInvalidCriteria is returned when fetch criteria are unusable before
	// any request is made.
	ErrInvalidCriteria = errors.New("criteria must request at least one question")
	// ErrFetchInFlight is returned when a start or retake arrives while a
	// question fetch is still outstanding.
	ErrFetchInFlight = errors.New("a question fetch is already in flight")
	// ErrAnswerAlreadyRecorded indicates a second answer for the same
	// question index; callers must record each question at most once.
	ErrAnswerAlreadyRecorded = errors.New("answer already recorded for this question")
	// ErrSelectionClosed is returned when an answer arrives after the
	// current question was revealed or the quiz ended.
	ErrSelectionClosed = errors.New("answer selection is closed")
	// ErrNextUnavailable is returned when advancing without a revealed answer.
	ErrNextUnavailable = errors.New("no revealed answer to advance from")
	// ErrRetakeUnavailable is returned when retaking before a quiz finished.
	ErrRetakeUnavailable = errors.New("no finished quiz to retake")
)

// Package quiz holds the core quiz session logic: time budget, countdown,
// scoring, session tokens and the state machine tying them together.
package quiz

import (
	"context"
	"fmt"
	"html"
	"log"
	"math/rand"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// User-facing messages, one distinct message per failure mode.
const (
	msgNoResults         = "Not enough questions found for your selected criteria. Please try different settings or a smaller amount."
	msgInvalidParameters = "There was an issue with the quiz parameters. (Invalid Parameter)"
	msgTokenInvalid      = "Your quiz session has expired or is invalid. Please start a new quiz."
	msgTokenExhausted    = "You've answered all available questions for this session! Please reset the session or try different settings."
	msgTokenReset        = "You've answered all available questions for this session. The session was reset; retake to continue with fresh questions."
	msgRateLimited       = "Too many requests. Please wait a few seconds and try again."
	msgTransportError    = "Failed to fetch questions. Please check your connection and try again."
	msgTokenUnavailable  = "Could not obtain a session token. Please try again."
)

// QuestionFetcher fetches a question set from the remote bank and classifies
// the response. Implemented by triviadb.Client.
type QuestionFetcher interface {
	FetchQuestions(ctx context.Context, criteria domain.Criteria, token string) domain.FetchOutcome
}

// TokenSource is the session-token lifecycle the machine depends on.
// Implemented by TokenStore.
type TokenSource interface {
	Current() string
	Request(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Machine drives one quiz session through its phases. All session state is
// owned here and mutated only behind the machine mutex; collaborators receive
// read-only snapshots. Network results and timer events re-enter through
// generation-checked handlers so anything issued before a reset is discarded.
type Machine struct {
	fetcher QuestionFetcher
	tokens  TokenSource

	autoResetOnExhausted bool
	rnd                  *rand.Rand
	timer                *Countdown

	mu          sync.Mutex
	phase       domain.Phase
	criteria    domain.Criteria
	questions   []domain.Question
	current     int
	score       *ScoreTracker
	generation  uint64
	fetching    bool
	total       int
	remaining   int
	errMsg      string
	lastCorrect *bool

	// Presentation of the current question: decoded text and the shuffled
	// answer order, fixed until the next question is shown.
	questionText  string
	answers       []string
	correctAnswer string

	subscribers map[chan domain.Snapshot]struct{}
}

// Option configures a Machine.
type Option func(*Machine)

// WithTickInterval shortens the countdown cadence; tests use milliseconds.
func WithTickInterval(interval time.Duration) Option {
	return func(m *Machine) { m.timer = NewCountdown(interval) }
}

// WithAutoResetOnExhausted makes an exhausted token reset itself before the
// user retries. Off by default: the remote session is advised to reset, not
// reset behind the user's back.
func WithAutoResetOnExhausted(enabled bool) Option {
	return func(m *Machine) { m.autoResetOnExhausted = enabled }
}

// WithRand injects the shuffle source for deterministic tests.
func WithRand(rnd *rand.Rand) Option {
	return func(m *Machine) { m.rnd = rnd }
}

// NewMachine builds a machine in the Settings phase.
func NewMachine(fetcher QuestionFetcher, tokens TokenSource, opts ...Option) *Machine {
	m := &Machine{
		fetcher:     fetcher,
		tokens:      tokens,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		timer:       NewCountdown(time.Second),
		phase:       domain.PhaseSettings,
		score:       NewScoreTracker(),
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins a quiz run with the given criteria. The fetch happens
// asynchronously; progress arrives through subscribed snapshots. A second
// Start while a fetch is outstanding is rejected so one session never has
// two fetches in flight.
func (m *Machine) Start(ctx context.Context, criteria domain.Criteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.fetching {
		m.mu.Unlock()
		return domain.ErrFetchInFlight
	}
	m.resetRunLocked()
	m.criteria = criteria
	m.phase = domain.PhaseLoading
	m.fetching = true
	gen := m.generation
	m.broadcastLocked()
	m.mu.Unlock()

	go m.runFetch(ctx, criteria, gen)
	return nil
}

// Retake re-runs the quiz with the same criteria. Only valid once the
// previous run finished.
func (m *Machine) Retake(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != domain.PhaseFinished {
		m.mu.Unlock()
		return domain.ErrRetakeUnavailable
	}
	criteria := m.criteria
	m.mu.Unlock()
	return m.Start(ctx, criteria)
}

// SelectAnswer records the user's answer for the current question and
// reveals the outcome. Selection after the question was revealed, or after
// the timer expired, is rejected.
func (m *Machine) SelectAnswer(answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != domain.PhaseInProgress {
		return domain.ErrSelectionClosed
	}
	correct, err := m.score.Record(m.current, answer, m.correctAnswer)
	if err != nil {
		return err
	}
	m.lastCorrect = &correct
	m.phase = domain.PhaseAnswerRevealed
	m.broadcastLocked()
	return nil
}

// Next advances past a revealed answer: either the next question is
// presented or the quiz finishes.
func (m *Machine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != domain.PhaseAnswerRevealed {
		return domain.ErrNextUnavailable
	}
	m.current++
	m.lastCorrect = nil
	if m.current < len(m.questions) {
		m.presentLocked()
		m.phase = domain.PhaseInProgress
		m.broadcastLocked()
		return nil
	}
	m.finishLocked("")
	return nil
}

// NewSettings discards the current run and returns to the settings phase.
func (m *Machine) NewSettings() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetRunLocked()
	m.phase = domain.PhaseSettings
	m.broadcastLocked()
}

// Close stops the timer and drops all subscribers. The machine is unusable
// afterwards.
func (m *Machine) Close() {
	m.timer.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	for ch := range m.subscribers {
		delete(m.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the current state view.
func (m *Machine) Snapshot() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot on every transition,
// starting with the current state. The cancel function must be called to
// release the subscription.
func (m *Machine) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	// Sent under the lock so no broadcast can land ahead of the initial
	// snapshot; the fresh buffered channel cannot block here.
	ch <- m.snapshotLocked()
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Machine) runFetch(ctx context.Context, criteria domain.Criteria, gen uint64) {
	if m.tokens.Current() == "" {
		if err := m.tokens.Request(ctx); err != nil {
			m.settleFetch(gen, func() {
				m.finishLocked(msgTokenUnavailable)
			})
			return
		}
	}

	outcome := m.fetcher.FetchQuestions(ctx, criteria, m.tokens.Current())
	m.applyOutcome(ctx, gen, outcome)
}

// settleFetch runs apply under the machine lock unless the run it belongs to
// has been superseded.
func (m *Machine) settleFetch(gen uint64, apply func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		// The session was reset while the fetch was outstanding; the
		// result is stale and must not leak into the new run.
		return false
	}
	m.fetching = false
	apply()
	return true
}

func (m *Machine) applyOutcome(ctx context.Context, gen uint64, outcome domain.FetchOutcome) {
	switch outcome.Status {
	case domain.FetchReady:
		if len(outcome.Questions) == 0 {
			m.settleFetch(gen, func() { m.finishLocked(msgNoResults) })
			return
		}
		m.settleFetch(gen, func() {
			m.questions = outcome.Questions
			m.current = 0
			m.score.Reset()
			m.total = TotalSeconds(m.questions)
			m.remaining = m.total
			m.presentLocked()
			m.phase = domain.PhaseInProgress
			m.startTimerLocked()
			m.broadcastLocked()
		})

	case domain.FetchNoResults:
		m.settleFetch(gen, func() { m.finishLocked(msgNoResults) })

	case domain.FetchInvalidParameters:
		m.settleFetch(gen, func() { m.finishLocked(msgInvalidParameters) })

	case domain.FetchTokenInvalid:
		// The remote token no longer exists: replace it, then send the
		// user back to settings to start over.
		if err := m.tokens.Reset(ctx); err != nil {
			log.Printf("token replacement after invalid token failed: %v", err)
		}
		m.settleFetch(gen, func() { m.settingsErrorLocked(msgTokenInvalid) })

	case domain.FetchTokenExhausted:
		msg := msgTokenExhausted
		if m.autoResetOnExhausted {
			if err := m.tokens.Reset(ctx); err != nil {
				log.Printf("token reset after exhaustion failed: %v", err)
			} else {
				msg = msgTokenReset
			}
		}
		m.settleFetch(gen, func() { m.finishLocked(msg) })

	case domain.FetchRateLimited:
		m.settleFetch(gen, func() { m.settingsErrorLocked(msgRateLimited) })

	case domain.FetchTransportError:
		log.Printf("question fetch failed: %v", outcome.Err)
		m.settleFetch(gen, func() { m.finishLocked(msgTransportError) })

	default:
		m.settleFetch(gen, func() {
			m.finishLocked(fmt.Sprintf("An unknown error occurred (Code: %d).", outcome.Code))
		})
	}
}

// startTimerLocked arms the countdown for the current run. The callbacks
// carry the run's generation so an event from a superseded run is discarded
// even if it slips past the countdown's own cancellation. Starting under the
// machine lock means no reset can slide between the generation check in
// settleFetch and the timer taking off.
func (m *Machine) startTimerLocked() {
	gen := m.generation
	m.timer.Start(m.total,
		func(remaining int) { m.handleTick(gen, remaining) },
		func() { m.handleExpire(gen) },
	)
}

func (m *Machine) handleTick(gen uint64, remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	if m.phase != domain.PhaseInProgress && m.phase != domain.PhaseAnswerRevealed {
		return
	}
	m.remaining = remaining
	m.broadcastLocked()
}

func (m *Machine) handleExpire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	if m.phase != domain.PhaseInProgress && m.phase != domain.PhaseAnswerRevealed {
		return
	}
	// An answer already revealed keeps its recorded outcome; an unanswered
	// question simply goes unscored.
	m.remaining = 0
	m.finishLocked("")
}

// presentLocked prepares the current question for display: decodes the HTML
// entities once and fixes a fair shuffle of the answers for this
// presentation.
func (m *Machine) presentLocked() {
	q := m.questions[m.current]
	m.questionText = html.UnescapeString(q.Text)
	m.correctAnswer = html.UnescapeString(q.CorrectAnswer)

	answers := make([]string, 0, len(q.IncorrectAnswers)+1)
	for _, a := range q.IncorrectAnswers {
		answers = append(answers, html.UnescapeString(a))
	}
	answers = append(answers, m.correctAnswer)
	m.rnd.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	m.answers = answers
}

// finishLocked ends the run: the timer stops, score and index freeze, and an
// optional error message lands on the results view.
func (m *Machine) finishLocked(errMsg string) {
	m.phase = domain.PhaseFinished
	m.errMsg = errMsg
	m.timer.Stop()
	m.broadcastLocked()
}

// settingsErrorLocked routes the user back to settings with an error banner.
func (m *Machine) settingsErrorLocked(errMsg string) {
	m.phase = domain.PhaseSettings
	m.errMsg = errMsg
	m.timer.Stop()
	m.broadcastLocked()
}

// resetRunLocked discards all per-run state. Bumping the generation makes any
// outstanding fetch result or timer event stale.
func (m *Machine) resetRunLocked() {
	m.generation++
	m.fetching = false
	m.questions = nil
	m.current = 0
	m.score.Reset()
	m.total = 0
	m.remaining = 0
	m.errMsg = ""
	m.lastCorrect = nil
	m.questionText = ""
	m.answers = nil
	m.correctAnswer = ""
	m.timer.Stop()
}

func (m *Machine) snapshotLocked() domain.Snapshot {
	s := domain.Snapshot{
		Phase:            m.phase,
		QuestionIndex:    m.current,
		TotalQuestions:   len(m.questions),
		RemainingSeconds: m.remaining,
		TotalSeconds:     m.total,
		TimeDisplay:      FormatSeconds(m.remaining),
		Score:            m.score.Correct(),
		TotalAnswered:    m.score.Answered(),
		ErrorMessage:     m.errMsg,
	}
	switch m.phase {
	case domain.PhaseInProgress, domain.PhaseAnswerRevealed:
		s.Question = m.questionText
		s.Answers = append([]string(nil), m.answers...)
		if m.phase == domain.PhaseAnswerRevealed {
			s.CorrectAnswer = m.correctAnswer
			s.LastAnswerCorrect = m.lastCorrect
		}
	case domain.PhaseFinished:
		s.Percentage = m.score.Percentage(len(m.questions))
	}
	return s
}

func (m *Machine) broadcastLocked() {
	snapshot := m.snapshotLocked()
	for ch := range m.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drop the oldest pending snapshot so a slow reader never
			// blocks a transition.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Package session implements the state machine of a single timed exam attempt.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/model"
	"github.com/lautarok/yourstack/internal/scoring"
	"github.com/lautarok/yourstack/internal/timer"
)

// ExamProvider is the read-only exam data source a session loads from.
type ExamProvider interface {
	GetExam(ctx context.Context, examID string) (*model.ExamRecord, error)
}

const (
	eventLoad   = "load"
	eventSubmit = "submit"
)

// Controller owns one exam attempt: loading, answering, navigation, the
// countdown and the final score. Every operation is one atomic transition
// under mu; none of them suspends while holding it.
type Controller struct {
	id       string
	examID   string
	provider ExamProvider
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	phase       *fsm.FSM
	started     bool
	closed      bool
	record      *model.ExamRecord
	answers     map[int]int
	index       int
	remaining   int
	reason      model.SubmitReason
	submittedAt time.Time
	result      *model.Result

	countdown *timer.Countdown
	quit      chan struct{}
	quitOnce  sync.Once

	subscribers map[int]chan Event
	nextSubID   int
}

// Option configures a Controller.
type Option func(*Controller)

// WithTickInterval overrides the countdown tick length.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// New creates a controller in the loading phase. Call Start to fetch the exam.
func New(id, examID string, provider ExamProvider, opts ...Option) *Controller {
	c := &Controller{
		id:          id,
		examID:      examID,
		provider:    provider,
		interval:    timer.DefaultInterval,
		log:         zerolog.Nop(),
		now:         time.Now,
		answers:     make(map[int]int),
		quit:        make(chan struct{}),
		subscribers: make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("session_id", id).Str("exam_id", examID).Logger()

	c.phase = fsm.NewFSM(
		string(model.PhaseLoading),
		fsm.Events{
			{Name: eventLoad, Src: []string{string(model.PhaseLoading)}, Dst: string(model.PhaseInProgress)},
			{Name: eventSubmit, Src: []string{string(model.PhaseInProgress)}, Dst: string(model.PhaseSubmitted)},
		},
		fsm.Callbacks{
			"enter_" + string(model.PhaseSubmitted): c.onEnterSubmitted,
		},
	)
	return c
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// ExamID returns the id of the exam being taken.
func (c *Controller) ExamID() string { return c.examID }

// Start loads the exam and begins the attempt. Any provider failure ends the
// attempt with ErrExamNotFound. If the session is closed or ctx is cancelled
// while the fetch is in flight, the late record is discarded.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.started {
		c.mu.Unlock()
		return phaseError("start", c.phase.Current())
	}
	c.started = true
	c.mu.Unlock()

	record, err := c.provider.GetExam(ctx, c.examID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || ctx.Err() != nil {
		c.closeLocked()
		c.log.Debug().Msg("Discarding exam load for abandoned session")
		return ErrSessionClosed
	}
	if err != nil || record == nil {
		c.closeLocked()
		c.log.Warn().Err(err).Msg("Exam load failed")
		return fmt.Errorf("%w: %s", ErrExamNotFound, c.examID)
	}

	if err := c.phase.Event(context.WithoutCancel(ctx), eventLoad); err != nil {
		return fmt.Errorf("enter in_progress: %w", err)
	}
	c.record = record
	c.answers = make(map[int]int)
	c.index = 0
	c.remaining = record.DurationSeconds()

	cd := timer.NewCountdown(c.interval, c.onTick)
	c.countdown = cd
	if err := cd.Start(c.remaining); err != nil {
		return fmt.Errorf("start countdown: %w", err)
	}

	// A zero budget has already expired; submit inside this same transition so
	// no ticking in_progress state is ever observable.
	select {
	case <-cd.Done():
		c.submitLocked(ctx, model.SubmitExpired)
	default:
		go c.watch(cd)
	}

	c.log.Info().
		Int("questions", len(record.Questions)).
		Int("seconds", record.DurationSeconds()).
		Msg("Session started")
	return nil
}

// SelectAnswer records optionID for questionID, overwriting a previous choice.
func (c *Controller) SelectAnswer(questionID, optionID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireInProgressLocked("select answer"); err != nil {
		return err
	}
	q, ok := c.record.Question(questionID)
	if !ok {
		return fmt.Errorf("%w (question %d)", ErrUnknownQuestion, questionID)
	}
	if !q.HasOption(optionID) {
		return fmt.Errorf("%w (question %d, option %d)", ErrUnknownOption, questionID, optionID)
	}
	c.answers[questionID] = optionID
	return nil
}

// GoNext advances to the next question. Answering is not required.
func (c *Controller) GoNext() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireInProgressLocked("go next"); err != nil {
		return err
	}
	if c.index >= len(c.record.Questions)-1 {
		return ErrAtLastQuestion
	}
	c.index++
	return nil
}

// GoPrevious moves back one question. On the first question it returns
// ErrAtFirstQuestion and leaves the index untouched.
func (c *Controller) GoPrevious() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireInProgressLocked("go previous"); err != nil {
		return err
	}
	if c.index == 0 {
		return ErrAtFirstQuestion
	}
	c.index--
	return nil
}

// Submit ends the attempt. It does not check completeness. Submitting an
// already submitted session is a no-op returning the same result.
func (c *Controller) Submit(ctx context.Context) (model.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return model.Result{}, ErrSessionClosed
	}
	if c.phase.Is(string(model.PhaseLoading)) {
		return model.Result{}, phaseError("submit", c.phase.Current())
	}
	c.submitLocked(ctx, model.SubmitManual)
	return *c.result, nil
}

// OnTimerExpired submits on behalf of the countdown.
func (c *Controller) OnTimerExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.phase.Is(string(model.PhaseInProgress)) {
		return
	}
	c.submitLocked(context.Background(), model.SubmitExpired)
}

// Result returns the score of a submitted attempt.
func (c *Controller) Result() (model.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return model.Result{}, ErrSessionClosed
	}
	if !c.phase.Is(string(model.PhaseSubmitted)) {
		return model.Result{}, phaseError("compute result", c.phase.Current())
	}
	return *c.result, nil
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() model.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := model.SessionState{
		ID:                   c.id,
		ExamID:               c.examID,
		Phase:                model.Phase(c.phase.Current()),
		CurrentQuestionIndex: c.index,
		SecondsRemaining:     c.remaining,
		Clock:                timer.Format(c.remaining),
		TimeLevel:            timer.LevelFor(c.remaining),
		Answers:              make(map[int]int, len(c.answers)),
		AnsweredCount:        len(c.answers),
		SubmitReason:         c.reason,
	}
	for q, o := range c.answers {
		state.Answers[q] = o
	}
	if c.record != nil {
		state.TotalQuestions = len(c.record.Questions)
		if state.Phase == model.PhaseInProgress {
			q := c.record.Questions[c.index]
			state.CurrentQuestion = &q
		}
	}
	if !c.submittedAt.IsZero() {
		at := c.submittedAt
		state.SubmittedAt = &at
	}
	return state
}

// Record returns the loaded exam, or nil while loading.
func (c *Controller) Record() *model.ExamRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// Closed reports whether the session was abandoned or failed to load.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Subscribe registers for tick and terminal events. The channel is closed
// when the session closes; call cancel to unsubscribe earlier.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

// Close releases the session: the countdown stops, subscribers are
// released and every later operation fails with ErrSessionClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.publishLocked(Event{Type: EventClosed, SecondsRemaining: c.remaining, Clock: timer.Format(c.remaining), TimeLevel: timer.LevelFor(c.remaining)})
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
}

func (c *Controller) requireInProgressLocked(op string) error {
	if c.closed {
		return ErrSessionClosed
	}
	if !c.phase.Is(string(model.PhaseInProgress)) {
		return phaseError(op, c.phase.Current())
	}
	return nil
}

// submitLocked performs the single terminal transition. Later calls are no-ops.
func (c *Controller) submitLocked(ctx context.Context, reason model.SubmitReason) {
	if !c.phase.Is(string(model.PhaseInProgress)) {
		return
	}
	c.reason = reason
	// The transition must complete even if the triggering request goes away.
	if err := c.phase.Event(context.WithoutCancel(ctx), eventSubmit); err != nil {
		c.log.Error().Err(err).Msg("Submit transition failed")
	}
}

func (c *Controller) onEnterSubmitted(_ context.Context, _ *fsm.Event) {
	c.stopTimerLocked()
	c.submittedAt = c.now()

	res := scoring.Compute(c.record, c.answers)
	res.Reason = c.reason
	c.result = &res

	c.publishLocked(Event{Type: EventSubmitted, SecondsRemaining: c.remaining, Clock: timer.Format(c.remaining), TimeLevel: timer.LevelFor(c.remaining), Result: &res})

	c.log.Info().
		Str("reason", string(c.reason)).
		Int("correct", res.CorrectCount).
		Int("total", res.TotalCount).
		Int("percentage", res.Percentage).
		Bool("passed", res.Passed).
		Msg("Session submitted")
}

func (c *Controller) onTick(remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.phase.Is(string(model.PhaseInProgress)) {
		return
	}
	c.remaining = remaining
	c.publishLocked(Event{Type: EventTick, SecondsRemaining: remaining, Clock: timer.Format(remaining), TimeLevel: timer.LevelFor(remaining)})
}

// watch forwards countdown expiry until the session ends.
func (c *Controller) watch(cd *timer.Countdown) {
	select {
	case <-cd.Done():
		c.OnTimerExpired()
	case <-c.quit:
	}
}

func (c *Controller) stopTimerLocked() {
	if c.countdown != nil {
		c.countdown.Stop()
	}
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c *Controller) publishLocked(ev Event) {
	for _, ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

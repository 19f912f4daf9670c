package service

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
)

const DefaultQuestionSeconds = 20

type State int

const (
	StateSetup State = iota
	StateLoading
	StateActive
	StateAnswered
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateAnswered:
		return "answered"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// QuestionSource loads a batch of questions for the given parameters.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, params Params) ([]QuizQuestion, error)
}

type Snapshot struct {
	State     State
	SessionID string
	Index     int
	Score     int
	Answered  int
	Total     int
	Progress  float64
}

// Controller drives one quiz: setup, loading, the question rounds and the result.
// It is not safe for concurrent use; all calls, including the ones the countdown and
// the loader post back, must go through the dispatcher's goroutine.
type Controller struct {
	source          QuestionSource
	view            View
	dispatch        Dispatcher
	timer           *Countdown
	questionSeconds int

	state      State
	session    *QuizSession
	round      *Round
	generation uint64
	cancelLoad context.CancelFunc
}

func NewController(source QuestionSource, view View, dispatch Dispatcher, questionSeconds int) *Controller {
	if questionSeconds <= 0 {
		questionSeconds = DefaultQuestionSeconds
	}

	return &Controller{
		source:          source,
		view:            view,
		dispatch:        dispatch,
		timer:           NewCountdown(time.Second, dispatch),
		questionSeconds: questionSeconds,
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Session() *QuizSession {
	return c.session
}

func (c *Controller) Round() *Round {
	return c.round
}

func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{State: c.state, Progress: c.Progress()}
	if c.session != nil {
		snap.SessionID = c.session.ID
		snap.Index = c.session.CurrentQuestion
		snap.Score = c.session.Score
		snap.Answered = c.session.Answered
		snap.Total = c.session.Total()
	}
	return snap
}

// Progress is CurrentQuestion/Total during a quiz and 1 once it is finished.
func (c *Controller) Progress() float64 {
	switch c.state {
	case StateActive, StateAnswered:
		if c.session.Total() == 0 {
			return 0
		}
		return float64(c.session.CurrentQuestion) / float64(c.session.Total())
	case StateFinished:
		return 1
	default:
		return 0
	}
}

// Owns reports whether sessionID and index name the question currently on display.
func (c *Controller) Owns(sessionID string, index int) bool {
	return c.session != nil && c.session.ID == sessionID && c.session.CurrentQuestion == index
}

// Submit starts loading questions. The fetch runs in the background and its result is
// applied through the dispatcher only if no newer load or exit happened in between.
func (c *Controller) Submit(ctx context.Context, params Params) error {
	if c.state != StateSetup {
		return errors.Wrapf(ErrInvalidTransition, "submit while %v", c.state)
	}

	params.Amount = ClampAmount(params.Amount)
	c.state = StateLoading
	c.generation++
	generation := c.generation
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancelLoad = cancel

	c.view.ShowLoading(params)

	go func() {
		questions, err := c.source.FetchQuestions(loadCtx, params)
		c.dispatch(func() { c.loaded(generation, questions, err) })
	}()

	return nil
}

func (c *Controller) loaded(generation uint64, questions []QuizQuestion, err error) {
	if generation != c.generation || c.state != StateLoading {
		log.Printf("Discarding stale question load #%d (current #%d, %v)", generation, c.generation, c.state)
		return
	}
	c.stopLoading()

	if err == nil && len(questions) == 0 {
		err = ErrNoQuestions
	}
	if err != nil {
		log.Printf("Error loading questions: %v", err)
		c.state = StateSetup
		c.view.ShowError(err)
		c.view.ShowSetup()
		return
	}

	c.session = NewQuizSession(questions)
	c.startRound()
}

func (c *Controller) startRound() {
	c.timer.Cancel()

	question, _ := c.session.Current()
	c.round = newRound(question, c.questionSeconds)
	c.state = StateActive
	c.view.ShowQuestion(c.questionView())

	c.timer.Start(c.questionSeconds, c.onTick, c.onExpire)
}

func (c *Controller) onTick(remaining int) {
	if c.state != StateActive {
		return
	}
	c.round.Remaining = remaining
	c.view.ShowTick(remaining)
}

func (c *Controller) onExpire() {
	if c.state != StateActive {
		return
	}
	c.round.expire()
	c.lock()
}

// Select answers the question on display with the given option text.
func (c *Controller) Select(answer string) error {
	if c.state != StateActive {
		return errors.Wrapf(ErrInvalidTransition, "select while %v", c.state)
	}

	correct, err := c.round.answer(answer)
	if err != nil {
		return err
	}
	if correct {
		c.session.Score++
	}
	c.lock()

	return nil
}

// SelectOption answers by option position, rejecting presses that belong to another round.
func (c *Controller) SelectOption(sessionID string, index, option int) error {
	if c.state != StateActive || !c.Owns(sessionID, index) {
		return errors.Wrapf(ErrStaleRound, "session %v question %d", sessionID, index)
	}
	if option < 0 || option >= len(c.round.Question.Options) {
		return errors.Wrapf(ErrUnknownAnswer, "option %d", option)
	}

	return c.Select(c.round.Question.Options[option])
}

func (c *Controller) lock() {
	c.timer.Cancel()
	c.session.Answered++
	c.state = StateAnswered
	c.view.ShowAnswered(c.questionView())
}

// Next moves on from an answered question, finishing the quiz after the last one.
func (c *Controller) Next() error {
	if c.state != StateAnswered {
		return errors.Wrapf(ErrInvalidTransition, "next while %v", c.state)
	}

	c.session.CurrentQuestion++
	c.round = nil
	if c.session.Finished() {
		c.finish()
		return nil
	}
	c.startRound()

	return nil
}

func (c *Controller) finish() {
	c.timer.Cancel()
	c.state = StateFinished
	c.view.ShowResult(Result{
		SessionID: c.session.ID,
		Score:     c.session.Score,
		Total:     c.session.Total(),
		ScoreLine: c.session.ScoreLine(),
		Summary:   c.session.Summary(),
	})
}

// Restart returns a finished quiz to the setup screen. The API token is left alone.
func (c *Controller) Restart() error {
	if c.state != StateFinished {
		return errors.Wrapf(ErrInvalidTransition, "restart while %v", c.state)
	}
	c.reset()

	return nil
}

// Exit abandons a loading or running quiz.
func (c *Controller) Exit() error {
	switch c.state {
	case StateLoading, StateActive, StateAnswered:
	default:
		return errors.Wrapf(ErrInvalidTransition, "exit while %v", c.state)
	}
	c.stopLoading()
	c.reset()

	return nil
}

// Close stops the countdown and any in-flight load without touching the view.
func (c *Controller) Close() {
	c.timer.Cancel()
	c.stopLoading()
}

func (c *Controller) reset() {
	c.timer.Cancel()
	c.session = nil
	c.round = nil
	c.state = StateSetup
	c.view.ShowSetup()
}

func (c *Controller) stopLoading() {
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
}

func (c *Controller) questionView() QuestionView {
	q := c.round.Question
	options := make([]OptionView, len(q.Options))
	for i, text := range q.Options {
		options[i] = OptionView{Text: text, Mark: c.round.Marks[i]}
	}

	return QuestionView{
		SessionID:  c.session.ID,
		Index:      c.session.CurrentQuestion,
		Position:   c.session.Position(),
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Question:   q.Question,
		Options:    options,
		Remaining:  c.round.Remaining,
		Progress:   c.Progress(),
		Locked:     c.round.Locked,
	}
}

package service

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	MinAmount     = 5
	MaxAmount     = 20
	DefaultAmount = 10
	OptionsCount  = 4
)

var (
	ErrNoQuestions       = errors.New("no questions loaded")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnknownAnswer     = errors.New("unknown answer option")
	ErrStaleRound        = errors.New("round is no longer active")
	ErrInvalidParams     = errors.New("invalid quiz parameters")
)

type Difficulty string

const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the selectable difficulties, "any" first.
var Difficulties = []Difficulty{DifficultyAny, DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) Label() string {
	if d == DifficultyAny {
		return "Any"
	}
	return string(d)
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyAny, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	}
	if s == "any" {
		return DifficultyAny, nil
	}
	return DifficultyAny, errors.Wrapf(ErrInvalidParams, "unknown difficulty %q", s)
}

// Category is an OpenTDB category; the empty ID means "no filter".
type Category struct {
	ID   string
	Name string
}

var AnyCategory = Category{ID: "", Name: "Any"}

// QuizQuestion is immutable once built: Options keeps the order it was shuffled into.
type QuizQuestion struct {
	Category   string
	Difficulty Difficulty
	Question   string
	Correct    string
	Options    []string
}

// NewQuizQuestion combines the correct answer with the incorrect ones and shuffles them.
func NewQuizQuestion(r *rand.Rand, category string, difficulty Difficulty, question, correct string, incorrect []string) QuizQuestion {
	options := make([]string, 0, len(incorrect)+1)
	options = append(options, correct)
	options = append(options, incorrect...)

	return QuizQuestion{
		Category:   category,
		Difficulty: difficulty,
		Question:   question,
		Correct:    correct,
		Options:    ShuffleOptions(r, options),
	}
}

func (q QuizQuestion) CorrectIndex() int {
	for i, option := range q.Options {
		if option == q.Correct {
			return i
		}
	}
	return -1
}

type Params struct {
	Amount     int
	Category   string
	Difficulty Difficulty
}

// ClampAmount keeps the requested question count within [MinAmount, MaxAmount].
func ClampAmount(n int) int {
	return max(MinAmount, min(MaxAmount, n))
}

type SummaryEntry struct {
	Question string
	Correct  string
}

type QuizSession struct {
	ID              string
	CurrentQuestion int
	Score           int
	Answered        int
	Questions       []QuizQuestion
}

func NewQuizSession(questions []QuizQuestion) *QuizSession {
	return &QuizSession{
		ID:        uuid.NewString(),
		Questions: questions,
	}
}

func (s *QuizSession) Total() int {
	return len(s.Questions)
}

func (s *QuizSession) Current() (QuizQuestion, bool) {
	if s.CurrentQuestion >= len(s.Questions) {
		return QuizQuestion{}, false
	}
	return s.Questions[s.CurrentQuestion], true
}

func (s *QuizSession) Finished() bool {
	return s.CurrentQuestion >= len(s.Questions)
}

// Position is the 1-based "i/N" label of the question on display.
func (s *QuizSession) Position() string {
	return fmt.Sprintf("%d/%d", min(s.CurrentQuestion+1, len(s.Questions)), len(s.Questions))
}

func (s *QuizSession) ScoreLine() string {
	return fmt.Sprintf("%d / %d", s.Score, len(s.Questions))
}

func (s *QuizSession) Summary() []SummaryEntry {
	summary := make([]SummaryEntry, 0, len(s.Questions))
	for _, q := range s.Questions {
		summary = append(summary, SummaryEntry{Question: q.Question, Correct: q.Correct})
	}
	return summary
}

// CheckInvariants verifies 0 <= Score <= Answered <= len(Questions) and CurrentQuestion <= len(Questions).
func (s *QuizSession) CheckInvariants() error {
	total := len(s.Questions)
	switch {
	case s.Score < 0 || s.Score > s.Answered:
		return errors.Errorf("score %d out of range [0, %d]", s.Score, s.Answered)
	case s.Answered > total:
		return errors.Errorf("answered %d exceeds %d questions", s.Answered, total)
	case s.CurrentQuestion < 0 || s.CurrentQuestion > total:
		return errors.Errorf("current question %d out of range [0, %d]", s.CurrentQuestion, total)
	}
	return nil
}

type Mark int

const (
	MarkNone Mark = iota
	MarkCorrect
	MarkWrong
)

// Round is the answer state of the question on display.
type Round struct {
	Question  QuizQuestion
	Marks     []Mark
	Locked    bool
	Selected  string
	Remaining int
}

func newRound(q QuizQuestion, seconds int) *Round {
	return &Round{
		Question:  q,
		Marks:     make([]Mark, len(q.Options)),
		Remaining: seconds,
	}
}

// answer locks the round and marks the options. It reports whether the answer was correct.
func (r *Round) answer(answer string) (bool, error) {
	if r.Locked {
		return false, errors.Wrap(ErrInvalidTransition, "round already locked")
	}
	selected := -1
	for i, option := range r.Question.Options {
		if option == answer {
			selected = i
			break
		}
	}
	if selected < 0 {
		return false, errors.Wrapf(ErrUnknownAnswer, "%q", answer)
	}

	r.Locked = true
	r.Selected = answer
	if answer == r.Question.Correct {
		r.Marks[selected] = MarkCorrect
		return true, nil
	}
	r.Marks[selected] = MarkWrong
	r.markCorrect()
	return false, nil
}

func (r *Round) expire() {
	r.Locked = true
	r.Remaining = 0
	r.markCorrect()
}

func (r *Round) markCorrect() {
	if i := r.Question.CorrectIndex(); i >= 0 {
		r.Marks[i] = MarkCorrect
	}
}

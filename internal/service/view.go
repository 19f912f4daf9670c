package service

// View renders controller state. Every method is called on the dispatcher's goroutine.
type View interface {
	ShowSetup()
	ShowLoading(params Params)
	ShowQuestion(q QuestionView)
	ShowTick(remaining int)
	ShowAnswered(q QuestionView)
	ShowResult(r Result)
	ShowError(err error)
}

type OptionView struct {
	Text string
	Mark Mark
}

type QuestionView struct {
	SessionID  string
	Index      int
	Position   string
	Category   string
	Difficulty Difficulty
	Question   string
	Options    []OptionView
	Remaining  int
	Progress   float64
	Locked     bool
}

type Result struct {
	SessionID string
	Score     int
	Total     int
	ScoreLine string
	Summary   []SummaryEntry
}

package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/PoluyanbIch/GoTriviaBot/internal/service"
)

const (
	progressCells  = 10
	maxMessageSize = 4000
)

var amountChoices = []int{5, 10, 15, 20}

const helpText = "🎯 <b>Trivia quiz</b>\n\n" +
	"Questions come from the Open Trivia Database. Every question has four options " +
	"and a countdown; answer before it runs out.\n\n" +
	"/quiz – pick a category, difficulty and number of questions\n" +
	"/quiz 15 hard – same, with the amount and difficulty given up front\n" +
	"/start – main menu"

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start quiz", cbStartQuiz),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", cbHelp),
		),
	)
}

func categoryKeyboard(categories []service.Category) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(categories); i += 2 {
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(categories[i].Name, categoryData(categories[i].ID)),
		)
		if i+1 < len(categories) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(categories[i+1].Name, categoryData(categories[i+1].ID)))
		}
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func difficultyKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(service.Difficulties))
	for _, d := range service.Difficulties {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(d.Label(), difficultyData(string(d))))
	}

	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func amountKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(amountChoices))
	for _, n := range amountChoices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprint(n), amountData(n)))
	}

	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func progressBar(progress float64) string {
	filled := int(progress*progressCells + 0.5)
	filled = max(0, min(progressCells, filled))

	return strings.Repeat("▓", filled) + strings.Repeat("░", progressCells-filled) +
		fmt.Sprintf(" %d%%", int(progress*100+0.5))
}

func renderQuestion(q service.QuestionView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "❓ <b>Question %s</b>\n", q.Position)
	fmt.Fprintf(&sb, "📚 %s · %s\n", escape(q.Category), escape(q.Difficulty.Label()))
	fmt.Fprintf(&sb, "%s\n", progressBar(q.Progress))
	if q.Locked {
		sb.WriteString("⏱ --\n\n")
	} else {
		fmt.Fprintf(&sb, "⏱ %ds\n\n", q.Remaining)
	}
	sb.WriteString(escape(q.Question))

	return sb.String()
}

func optionLabel(option service.OptionView) string {
	switch option.Mark {
	case service.MarkCorrect:
		return "✅ " + option.Text
	case service.MarkWrong:
		return "❌ " + option.Text
	default:
		return option.Text
	}
}

func questionKeyboard(q service.QuestionView) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options)+2)
	for i, option := range q.Options {
		data := answerData(q.SessionID, q.Index, i)
		if q.Locked {
			data = cbNoop
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(optionLabel(option), data),
		))
	}

	if q.Locked {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➡️ Next", nextData(q.SessionID, q.Index)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🚪 Exit quiz", cbExit),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func renderResult(r service.Result) string {
	var sb strings.Builder
	sb.WriteString("🏁 <b>Quiz finished!</b>\n\n")
	fmt.Fprintf(&sb, "📊 Your score: %s\n", r.ScoreLine)
	for i, entry := range r.Summary {
		fmt.Fprintf(&sb, "\n<b>Q%d:</b> %s\n<i>Correct: %s</i>\n", i+1,
			escape(entry.Question), escape(entry.Correct))
	}

	return sb.String()
}

func resultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Play again", cbRestart),
			tgbotapi.NewInlineKeyboardButtonData("🔙 Menu", cbMenu),
		),
	)
}

// splitMessage cuts text on line boundaries into chunks Telegram accepts.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		for _, piece := range cutLine(line, limit) {
			if current.Len() > 0 && current.Len()+len(piece) > limit {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			current.WriteString(piece)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// cutLine breaks a line longer than limit after its last fitting space, or on a rune
// boundary when there is none. Escaped entities and tags contain no spaces.
func cutLine(line string, limit int) []string {
	var pieces []string
	for len(line) > limit {
		cut := strings.LastIndexByte(line[:limit], ' ') + 1
		if cut == 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				_, cut = utf8.DecodeRuneInString(line)
			}
		}
		pieces = append(pieces, line[:cut])
		line = line[cut:]
	}

	return append(pieces, line)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/PoluyanbIch/GoTriviaBot/internal/service"
)

const loadFailedText = "⚠️ Failed to load questions. Try different settings."

// messenger is the part of tgbotapi.BotAPI the bot sends through.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// chatView renders one chat's controller state as Telegram messages. The question on
// display is a single message that is edited as the timer runs and when it is answered.
type chatView struct {
	chatID     int64
	api        messenger
	categories func() []service.Category

	questionMsgID int
	current       service.QuestionView
}

func (v *chatView) ShowSetup() {
	v.questionMsgID = 0
	v.current = service.QuestionView{}
	msg := tgbotapi.NewMessage(v.chatID, "📚 <b>Choose a category</b>")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = categoryKeyboard(v.categories())
	v.send(msg, "setup")
}

func (v *chatView) askDifficulty() {
	msg := tgbotapi.NewMessage(v.chatID, "🎚 <b>Choose a difficulty</b>")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = difficultyKeyboard()
	v.send(msg, "difficulty keyboard")
}

func (v *chatView) askAmount() {
	msg := tgbotapi.NewMessage(v.chatID, "🔢 <b>How many questions?</b>")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = amountKeyboard()
	v.send(msg, "amount keyboard")
}

func (v *chatView) ShowLoading(params service.Params) {
	v.send(tgbotapi.NewMessage(v.chatID, fmt.Sprintf("⏳ Loading %d questions...", params.Amount)), "loading")
}

func (v *chatView) ShowQuestion(q service.QuestionView) {
	v.current = q
	v.sendQuestion()
}

// sendQuestion posts the question as a new message. On failure the next update posts it again.
func (v *chatView) sendQuestion() {
	msg := tgbotapi.NewMessage(v.chatID, renderQuestion(v.current))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = questionKeyboard(v.current)

	sent, err := v.api.Send(msg)
	if err != nil {
		log.Printf("Error sending question: %v", err)
		v.questionMsgID = 0
		return
	}
	v.questionMsgID = sent.MessageID
}

// ShowTick refreshes the countdown every five seconds and on each of the last five.
func (v *chatView) ShowTick(remaining int) {
	v.current.Remaining = remaining
	if remaining%5 != 0 && remaining > 5 {
		return
	}
	v.editQuestion()
}

func (v *chatView) ShowAnswered(q service.QuestionView) {
	v.current = q
	v.editQuestion()
}

func (v *chatView) ShowResult(r service.Result) {
	v.questionMsgID = 0
	v.current = service.QuestionView{}
	chunks := splitMessage(renderResult(r), maxMessageSize)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(v.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		if i == len(chunks)-1 {
			msg.ReplyMarkup = resultKeyboard()
		}
		v.send(msg, "result")
	}
}

func (v *chatView) ShowError(err error) {
	log.Printf("Chat %d: %v", v.chatID, err)
	v.send(tgbotapi.NewMessage(v.chatID, loadFailedText), "error")
}

func (v *chatView) editQuestion() {
	if v.current.SessionID == "" {
		return
	}
	if v.questionMsgID == 0 {
		v.sendQuestion()
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(v.chatID, v.questionMsgID, renderQuestion(v.current), questionKeyboard(v.current))
	edit.ParseMode = tgbotapi.ModeHTML
	v.send(edit, "question update")
}

func (v *chatView) send(c tgbotapi.Chattable, what string) {
	if _, err := v.api.Send(c); err != nil {
		log.Printf("Error sending %s: %v", what, err)
	}
}

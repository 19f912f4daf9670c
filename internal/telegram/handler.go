package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/PoluyanbIch/GoTriviaBot/internal/service"
)

type Options struct {
	QuestionSeconds int
	DefaultAmount   int
	Debug           bool
}

// Bot serializes Telegram updates and controller events (timer ticks, finished
// loads) through the single goroutine running Start, so controllers need no locks.
type Bot struct {
	api        *tgbotapi.BotAPI
	sender     messenger
	source     service.QuestionSource
	categories []service.Category
	opts       Options

	chats  map[int64]*chat
	events chan func()
	done   chan struct{}
	ctx    context.Context
}

type chat struct {
	id   int64
	ctrl *service.Controller
	view *chatView
	form setupForm
}

// setupForm collects the quiz parameters across the setup keyboards.
type setupForm struct {
	params service.Params
	quick  bool
}

func NewBot(token string, source service.QuestionSource, categories []service.Category, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to telegram")
	}
	api.Debug = opts.Debug

	b := newBot(api, source, categories, opts)
	b.api = api

	return b, nil
}

func newBot(sender messenger, source service.QuestionSource, categories []service.Category, opts Options) *Bot {
	if len(categories) == 0 {
		categories = []service.Category{service.AnyCategory}
	}
	if opts.DefaultAmount <= 0 {
		opts.DefaultAmount = service.DefaultAmount
	}

	return &Bot{
		sender:     sender,
		source:     source,
		categories: categories,
		opts:       opts,
		chats:      make(map[int64]*chat),
		events:     make(chan func()),
		done:       make(chan struct{}),
		ctx:        context.Background(),
	}
}

// Start polls Telegram until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	log.Printf("Authorised on account: %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.run(ctx, updates)
}

func (b *Bot) run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	b.ctx = ctx
	defer close(b.done)
	defer b.closeChats()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		case fn := <-b.events:
			fn()
		}
	}
}

// dispatch hands fn to the loop; it is dropped once the loop has stopped.
func (b *Bot) dispatch(fn func()) {
	select {
	case b.events <- fn:
	case <-b.done:
	}
}

func (b *Bot) closeChats() {
	for _, c := range b.chats {
		c.ctrl.Close()
	}
}

func (b *Bot) chat(chatID int64) *chat {
	if c, ok := b.chats[chatID]; ok {
		return c
	}

	view := &chatView{
		chatID:     chatID,
		api:        b.sender,
		categories: func() []service.Category { return b.categories },
	}
	c := &chat{
		id:   chatID,
		view: view,
		ctrl: service.NewController(b.source, view, b.dispatch, b.opts.QuestionSeconds),
	}
	b.chats[chatID] = c

	return c
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		chatID := update.Message.Chat.ID
		switch update.Message.Command() {
		case "start":
			b.sendMainMenu(chatID)
		case "quiz":
			b.startQuiz(b.chat(chatID), update.Message.CommandArguments())
		case "help":
			b.handleInfo(chatID)
		default:
			b.sendMessage(chatID, "Unknown command. Try /quiz or /help.")
		}
	}
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	notice := ""
	defer func() {
		if _, err := b.sender.Request(tgbotapi.NewCallback(query.ID, notice)); err != nil {
			log.Printf("Error answering callback: %v", err)
		}
	}()

	cb, err := parseCallback(query.Data)
	if err != nil {
		log.Printf("Chat %d: %v", chatID, err)
		return
	}

	switch cb.kind {
	case cbStartQuiz:
		b.startQuiz(b.chat(chatID), "")
	case cbMenu:
		b.sendMainMenu(chatID)
	case cbHelp:
		b.handleInfo(chatID)
	case cbNoop:
	case cbCategory, cbDifficulty, cbAmount:
		notice = b.handleSetup(b.chat(chatID), cb)
	case cbAnswer:
		notice = b.handleAnswer(b.chat(chatID), cb)
	case cbNext:
		c := b.chat(chatID)
		if !c.ctrl.Owns(cb.sessionID, cb.index) {
			notice = "This question is no longer active"
			return
		}
		if err := c.ctrl.Next(); err != nil {
			notice = "Answer the question first"
		}
	case cbExit:
		if err := b.chat(chatID).ctrl.Exit(); err != nil {
			notice = "No quiz is running"
		}
	case cbRestart:
		c := b.chat(chatID)
		if err := c.ctrl.Restart(); err != nil {
			notice = "Finish the current quiz first"
			return
		}
		c.form = setupForm{params: service.Params{Amount: b.opts.DefaultAmount}}
	}
}

// startQuiz opens the setup keyboards. Arguments fill in the amount and difficulty,
// leaving only the category to pick.
func (b *Bot) startQuiz(c *chat, args string) {
	params, err := service.ParseParams(args, b.opts.DefaultAmount)
	if err != nil {
		b.sendMessage(c.id, "Usage: /quiz [5-20] [easy|medium|hard]")
		return
	}

	switch c.ctrl.State() {
	case service.StateSetup:
		c.form = setupForm{params: params, quick: args != ""}
		c.view.ShowSetup()
	case service.StateFinished:
		c.form = setupForm{params: params, quick: args != ""}
		if err = c.ctrl.Restart(); err != nil {
			log.Printf("Chat %d: %v", c.id, err)
		}
	default:
		b.sendMessage(c.id, "A quiz is already running. Finish it or press Exit.")
	}
}

func (b *Bot) handleSetup(c *chat, cb callback) string {
	if c.ctrl.State() != service.StateSetup {
		return "A quiz is already running"
	}

	switch cb.kind {
	case cbCategory:
		c.form.params.Category = cb.value
		if !c.form.quick {
			c.view.askDifficulty()
			return ""
		}
	case cbDifficulty:
		difficulty, err := service.ParseDifficulty(cb.value)
		if err != nil {
			return "Unknown difficulty"
		}
		c.form.params.Difficulty = difficulty
		c.view.askAmount()
		return ""
	case cbAmount:
		c.form.params.Amount = service.ClampAmount(cb.option)
	}

	if err := c.ctrl.Submit(b.ctx, c.form.params); err != nil {
		log.Printf("Chat %d: %v", c.id, err)
		return "A quiz is already running"
	}

	return ""
}

func (b *Bot) handleAnswer(c *chat, cb callback) string {
	err := c.ctrl.SelectOption(cb.sessionID, cb.index, cb.option)
	switch {
	case err == nil:
		if c.ctrl.Round().Selected == c.ctrl.Round().Question.Correct {
			return "✅ Correct!"
		}
		return "❌ Wrong!"
	case errors.Is(err, service.ErrStaleRound):
		return "This question is no longer active"
	default:
		log.Printf("Chat %d: %v", c.id, err)
		return ""
	}
}

func (b *Bot) sendMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "📋 <b>Main menu</b>")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	if _, err := b.sender.Send(msg); err != nil {
		log.Printf("Error sending start message: %v", err)
	}
}

func (b *Bot) handleInfo(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start quiz", cbStartQuiz),
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", cbMenu),
		),
	)
	if _, err := b.sender.Send(msg); err != nil {
		log.Printf("Error sending info: %v", err)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		log.Printf("Error sending msg: %v", err)
	}
}

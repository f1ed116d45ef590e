package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"kartochka-bot/internal/gencli"
	"kartochka-bot/internal/ledger"
	"kartochka-bot/internal/payment"
	"kartochka-bot/internal/referral"
	"kartochka-bot/internal/session"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Action costs in credits.
const (
	CardGenerationCost  = 1
	PhotoProcessingCost = 40
)

type Bot struct {
	Instance  *telego.Bot
	Ledger    *ledger.Ledger
	Referral  *referral.Service
	Payments  *payment.Handler
	Gen       *gencli.Client
	Sessions  *session.Store
	CardGate  *ledger.Gate
	PhotoGate *ledger.Gate

	limiters *userLimiters
	username string
}

type Options struct {
	Token        string
	Ledger       *ledger.Ledger
	Referral     *referral.Service
	Payments     *payment.Handler
	Gen          *gencli.Client
	Sessions     *session.Store
	CardTimeout  time.Duration
	PhotoTimeout time.Duration
}

func NewBot(opts Options) (*Bot, error) {
	tgBot, err := telego.NewBot(opts.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance:  tgBot,
		Ledger:    opts.Ledger,
		Referral:  opts.Referral,
		Payments:  opts.Payments,
		Gen:       opts.Gen,
		Sessions:  opts.Sessions,
		CardGate:  ledger.NewGate(opts.Ledger, opts.CardTimeout),
		PhotoGate: ledger.NewGate(opts.Ledger, opts.PhotoTimeout),
		limiters:  newUserLimiters(),
	}, nil
}

// NotifyBonus implements referral.Notifier.
func (b *Bot) NotifyBonus(ctx context.Context, referrerID int64, bonus int, purchaserID int64) error {
	_, err := b.Instance.SendMessage(ctx, tu.Message(
		tu.ID(referrerID),
		fmt.Sprintf("🎉 Вам начислен реферальный бонус: <b>%d</b> кредитов!\nВаш друг (ID: %d) совершил покупку.", bonus, purchaserID),
	).WithParseMode(telego.ModeHTML))
	return err
}

func (b *Bot) Start() {
	if me, err := b.Instance.GetMe(context.Background()); err == nil {
		b.username = me.Username
	} else {
		log.Printf("Failed to get bot username: %v", err)
	}

	updates, _ := b.Instance.UpdatesViaLongPolling(context.Background(), nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)

	handler.Use(b.rateLimitMiddleware)
	handler.Use(b.ensureUserMiddleware)

	// /start command, optionally with a referral deep link argument
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		telegramID := message.From.ID

		args := ""
		if parts := strings.Split(message.Text, " "); len(parts) > 1 {
			args = parts[1]
		}

		referrerID := parseReferralArg(args)
		user, created, err := b.Ledger.GetOrCreate(ctx.Context(), telegramID, displayOf(message.From), referrerID)
		if err != nil {
			log.Printf("Failed to get/create user %d: %v", telegramID, err)
			return nil
		}
		if created && user.ReferredByID != nil {
			log.Printf("User %d registered via referral %d", telegramID, referrerID)
		}

		_ = b.Sessions.Clear(ctx.Context(), telegramID)

		text := fmt.Sprintf(
			"Здравствуйте, %s!\n\nЭтот бот — ваш личный помощник в мире контента. Готов помочь с созданием описаний для товаров и улучшением ваших фотографий.",
			message.From.FirstName,
		)
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID), text,
		).WithReplyMarkup(mainMenuKeyboard()))
		return nil
	}, th.CommandEqual("start"))

	// /buy_credits command
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		return b.showBuyMenu(ctx, update.Message.From.ID)
	}, th.CommandEqual("buy_credits"))

	// Main menu navigation
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(callback.From.ID),
			"Что вы хотите сделать?",
		).WithReplyMarkup(mainMenuKeyboard()))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("back_to_main_menu"))

	// Profile / balance
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		return b.handleProfile(ctx, update.CallbackQuery)
	}, th.CallbackDataEqual("profile"))

	// Partner program
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		return b.handleInviteFriend(ctx, update.CallbackQuery)
	}, th.CallbackDataEqual("invite_friend"))

	// Buy menu and purchases
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		err := b.showBuyMenu(ctx, callback.From.ID)
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return err
	}, th.CallbackDataEqual("show_buy_menu"))

	handler.Handle(b.handleBuyCallback, th.CallbackDataPrefix(payment.BuyCallbackPrefix))
	handler.Handle(b.handlePreCheckout, predicatePreCheckout)
	handler.Handle(b.handleSuccessfulPayment, predicateSuccessfulPayment)

	// Card generation flow
	handler.Handle(b.handleStartCardGeneration, th.CallbackDataEqual("start_card_generation"))
	handler.Handle(b.handleCancelCardGeneration, th.CallbackDataEqual("cancel_card_generation"))

	// Photo processing flow
	handler.Handle(b.handleStartPhotoProcessing, th.CallbackDataEqual("start_photo_processing"))
	handler.Handle(b.handleCancelPhotoProcessing, th.CallbackDataEqual("cancel_photo_processing"))

	// Flow input: photos first, then any text
	handler.Handle(b.handlePhotoInput, predicateMessageWithPhoto)
	handler.Handle(b.handleTextInput, th.AnyMessageWithText())

	handler.Start()
}

func (b *Bot) ensureUserMiddleware(ctx *th.Context, update telego.Update) error {
	b.ensureUser(ctx.Context(), update)
	return ctx.Next(update)
}

// ensureUser creates the row for users whose first contact is not /start.
// /start itself registers in its handler, because only there is the
// referral deep link argument available; creating the row earlier would
// register the user without the referrer.
func (b *Bot) ensureUser(ctx context.Context, update telego.Update) {
	if isStartCommand(update) {
		return
	}
	if from := updateFrom(update); from != nil {
		if _, _, err := b.Ledger.GetOrCreate(ctx, from.ID, displayOf(from), 0); err != nil {
			log.Printf("Failed to ensure user %d: %v", from.ID, err)
		}
	}
}

func isStartCommand(update telego.Update) bool {
	if update.Message == nil {
		return false
	}
	text := update.Message.Text
	return text == "/start" || strings.HasPrefix(text, "/start ") || strings.HasPrefix(text, "/start@")
}

func updateFrom(update telego.Update) *telego.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From
	case update.PreCheckoutQuery != nil:
		return &update.PreCheckoutQuery.From
	}
	return nil
}

func displayOf(user *telego.User) ledger.Display {
	return ledger.Display{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// parseReferralArg extracts the referrer's Telegram ID from a deep link
// argument like "ref_123456". Anything else means no referrer.
func parseReferralArg(args string) int64 {
	code, ok := strings.CutPrefix(args, "ref_")
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func predicateMessageWithPhoto(_ context.Context, update telego.Update) bool {
	return update.Message != nil && len(update.Message.Photo) > 0
}

func predicateSuccessfulPayment(_ context.Context, update telego.Update) bool {
	return update.Message != nil && update.Message.SuccessfulPayment != nil
}

func predicatePreCheckout(_ context.Context, update telego.Update) bool {
	return update.PreCheckoutQuery != nil
}

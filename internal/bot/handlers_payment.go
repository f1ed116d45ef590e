package bot

import (
	"errors"
	"fmt"
	"log"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"kartochka-bot/internal/payment"
)

// handleBuyCallback sends a Stars invoice for the chosen credit package.
func (b *Bot) handleBuyCallback(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	telegramID := callback.From.ID

	pkg, err := payment.ParseBuyCallback(callback.Data)
	if err != nil {
		log.Printf("Invalid buy callback from %d: %v", telegramID, err)
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID).
			WithText("Произошла ошибка. Попробуйте снова.").WithShowAlert())
		return nil
	}

	_, err = ctx.Bot().SendInvoice(ctx.Context(), &telego.SendInvoiceParams{
		ChatID:      tu.ID(telegramID),
		Title:       fmt.Sprintf("Покупка %d кредитов", pkg.Credits),
		Description: fmt.Sprintf("Пополнение баланса на %d кредитов для генерации контента.", pkg.Credits),
		Payload:     payment.EncodePayload(pkg.Credits),
		// Telegram Stars invoices carry no provider token.
		ProviderToken: "",
		Currency:      "XTR",
		Prices: []telego.LabeledPrice{
			{Label: "кредитов", Amount: pkg.Stars},
		},
	})
	if err != nil {
		log.Printf("Failed to send invoice to %d: %v", telegramID, err)
	}
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	return nil
}

func (b *Bot) handlePreCheckout(ctx *th.Context, update telego.Update) error {
	query := update.PreCheckoutQuery
	err := ctx.Bot().AnswerPreCheckoutQuery(ctx.Context(), &telego.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: query.ID,
		Ok:                 true,
	})
	if err != nil {
		log.Printf("Failed to answer pre-checkout from %d: %v", query.From.ID, err)
	}
	return nil
}

func (b *Bot) handleSuccessfulPayment(ctx *th.Context, update telego.Update) error {
	message := update.Message
	telegramID := message.From.ID
	info := message.SuccessfulPayment

	credits, err := b.Payments.Settle(ctx.Context(), telegramID, info.InvoicePayload, info.TelegramPaymentChargeID, info.TotalAmount)
	if err != nil {
		var malformed *payment.ErrMalformedPayload
		if errors.As(err, &malformed) {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(telegramID),
				"Произошла ошибка при зачислении кредитов. Пожалуйста, обратитесь в поддержку.",
			))
			return nil
		}
		log.Printf("Failed to settle payment from %d: %v", telegramID, err)
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"Произошла ошибка при зачислении кредитов. Пожалуйста, обратитесь в поддержку.",
		))
		return nil
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		fmt.Sprintf("🎉 Успешно! Вам начислено %d кредитов.", credits),
	).WithReplyMarkup(mainMenuKeyboard()))
	return nil
}

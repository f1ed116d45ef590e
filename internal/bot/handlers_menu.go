package bot

import (
	"fmt"
	"log"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"kartochka-bot/internal/referral"
)

func (b *Bot) showBuyMenu(ctx *th.Context, telegramID int64) error {
	user, err := b.Ledger.Get(ctx.Context(), telegramID)
	if err != nil {
		log.Printf("Failed to fetch user %d for buy menu: %v", telegramID, err)
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка: пользователь не найден."))
		return nil
	}

	text := fmt.Sprintf(
		"<b>💎 Покупка кредитов</b>\n\n"+
			"Выберите пакет, который хотите приобрести. Кредиты используются для всех типов генераций.\n\n"+
			"• Генерация текста: %d кредит\n"+
			"• Генерация фото: %d кредитов\n\n"+
			"Ваш текущий баланс: <b>%d</b> кредитов.",
		CardGenerationCost, PhotoProcessingCost, user.CreditsRemaining,
	)

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID), text,
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(buyMenuKeyboard()))
	return nil
}

func (b *Bot) handleProfile(ctx *th.Context, callback *telego.CallbackQuery) error {
	telegramID := callback.From.ID

	user, err := b.Ledger.Get(ctx.Context(), telegramID)
	if err != nil {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка: пользователь не найден."))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}

	msg := fmt.Sprintf(
		"👤 <b>Профиль</b>\n\n"+
			"🔹 ID: %d\n"+
			"🔹 Баланс: %d кредитов\n"+
			"🔹 Потрачено за всё время: %d кредитов",
		telegramID, user.CreditsRemaining, user.CreditsUsed,
	)

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID), msg,
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(backToMainMenuKeyboard()))
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	return nil
}

func (b *Bot) handleInviteFriend(ctx *th.Context, callback *telego.CallbackQuery) error {
	telegramID := callback.From.ID

	code, err := b.Ledger.EnsureReferralCode(ctx.Context(), telegramID)
	if err != nil {
		log.Printf("Failed to ensure referral code for %d: %v", telegramID, err)
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Не удалось получить реферальную ссылку. Попробуйте позже."))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}

	stats, err := b.Referral.Stats(ctx.Context(), telegramID)
	if err != nil {
		log.Printf("Failed to load referral stats for %d: %v", telegramID, err)
	}

	msg := fmt.Sprintf(
		"🤝 <b>Партнерская программа</b>\n\n"+
			"Приглашайте друзей и получайте %d%% от каждой их покупки кредитами!\n\n"+
			"👥 Приглашено: %d\n"+
			"💰 Заработано: %d кредитов\n\n"+
			"🔗 <b>Ваша ссылка:</b>\n<code>%s</code>",
		referral.BonusPercent, stats.Invited, stats.Earned, referral.Link(b.username, code),
	)

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID), msg,
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(backToMainMenuKeyboard()))
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	return nil
}

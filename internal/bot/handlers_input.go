package bot

import (
	"log"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"kartochka-bot/internal/session"
)

// handlePhotoInput routes an incoming photo to whichever flow is waiting
// for one.
func (b *Bot) handlePhotoInput(ctx *th.Context, update telego.Update) error {
	message := update.Message
	telegramID := message.From.ID

	sess, err := b.Sessions.Get(ctx.Context(), telegramID)
	if err != nil {
		log.Printf("Failed to load session for %d: %v", telegramID, err)
		return nil
	}
	if sess == nil {
		return nil
	}

	// The largest size is last.
	fileID := message.Photo[len(message.Photo)-1].FileID

	switch sess.State {
	case session.StateCardWaitingPhoto:
		return b.cardPhotoReceived(ctx, telegramID, sess, fileID)
	case session.StatePhotoWaitingPhoto:
		return b.photoReceived(ctx, telegramID, sess, fileID)
	}
	return nil
}

// handleTextInput routes free text to the step the active flow is on. Users
// without an active flow get the main menu hint.
func (b *Bot) handleTextInput(ctx *th.Context, update telego.Update) error {
	message := update.Message
	telegramID := message.From.ID
	text := message.Text

	sess, err := b.Sessions.Get(ctx.Context(), telegramID)
	if err != nil {
		log.Printf("Failed to load session for %d: %v", telegramID, err)
		return nil
	}
	if sess == nil {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"Выберите действие в меню:",
		).WithReplyMarkup(mainMenuKeyboard()))
		return nil
	}

	switch sess.State {
	case session.StateCardWaitingPhoto:
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"❗️ Ожидается изображение. Пожалуйста, отправьте фотографию вашего товара.",
		))
	case session.StateCardWaitingName, session.StateCardWaitingBrand, session.StateCardWaitingCategory:
		return b.cardCharacteristicReceived(ctx, telegramID, sess, text)
	case session.StateCardWaitingAudience:
		return b.cardAudienceReceived(ctx, telegramID, sess, text)
	case session.StateCardWaitingSellingPoints:
		return b.cardSellingPointsReceived(ctx, telegramID, sess, text)
	case session.StatePhotoWaitingPhoto:
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"Это не похоже на фото. Пожалуйста, отправьте изображение.",
		))
	case session.StatePhotoWaitingPrompt:
		return b.photoPromptReceived(ctx, telegramID, sess, text)
	}
	return nil
}

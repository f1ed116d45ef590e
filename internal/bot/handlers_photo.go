package bot

import (
	"bytes"
	"context"
	"encoding/base64"
	"log"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"kartochka-bot/internal/gencli"
	"kartochka-bot/internal/ledger"
	"kartochka-bot/internal/session"
)

const (
	promptMinLen = 5
	promptMaxLen = 1500
)

func (b *Bot) handleStartPhotoProcessing(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	telegramID := callback.From.ID

	log.Printf("User %d started photo processing", telegramID)

	sess := &session.Session{State: session.StatePhotoWaitingPhoto}
	if err := b.Sessions.Save(ctx.Context(), telegramID, sess); err != nil {
		log.Printf("Failed to start photo session for %d: %v", telegramID, err)
		return nil
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"🖼️ <b>Мастерская изображений</b>\n\n"+
			"Готов преобразить ваше фото! Просто отправьте его мне.\n\n"+
			"<b>Этап 1:</b> Жду ваше изображение.",
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(photoProcessingKeyboard()))
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	return nil
}

func (b *Bot) handleCancelPhotoProcessing(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	telegramID := callback.From.ID

	log.Printf("User %d cancelled photo processing", telegramID)

	_ = b.Sessions.Clear(ctx.Context(), telegramID)

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"Хорошо, отменил. Вы вернулись в главное меню.",
	).WithReplyMarkup(mainMenuKeyboard()))
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	return nil
}

func (b *Bot) photoReceived(ctx *th.Context, telegramID int64, sess *session.Session, fileID string) error {
	sess.PhotoFileID = fileID
	sess.State = session.StatePhotoWaitingPrompt
	if err := b.Sessions.Save(ctx.Context(), telegramID, sess); err != nil {
		return err
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"✨ <b>Отличное фото!</b>\n\n"+
			"<b>Этап 2:</b> Теперь расскажите, что бы вы хотели с ним сделать?\n\n"+
			"<i>Например: «убери фон», «сделай в стиле аниме», «добавь солнечных лучей».</i>",
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(photoProcessingKeyboard()))
	return nil
}

func (b *Bot) photoPromptReceived(ctx *th.Context, telegramID int64, sess *session.Session, text string) error {
	prompt := strings.TrimSpace(text)

	if len([]rune(prompt)) < promptMinLen {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"Слишком короткое описание. Попробуйте рассказать подробнее, что нужно сделать.",
		))
		return nil
	}
	if len([]rune(prompt)) > promptMaxLen {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"Ваше описание слишком длинное. Пожалуйста, будьте лаконичнее (до 1500 символов).",
		))
		return nil
	}

	sess.Prompt = prompt
	return b.processPhoto(ctx, telegramID, sess)
}

func (b *Bot) processPhoto(ctx *th.Context, telegramID int64, sess *session.Session) error {
	defer func() {
		_ = b.Sessions.Clear(ctx.Context(), telegramID)
	}()

	if sess.PhotoFileID == "" || sess.Prompt == "" {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"Что-то пошло не так, не хватает данных. Давайте начнем сначала.",
		).WithReplyMarkup(mainMenuKeyboard()))
		return nil
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"🔮 <b>Колдую над вашим изображением...</b>\n\nОбычно это занимает не больше минуты.",
	).WithParseMode(telego.ModeHTML))

	var photoURL string
	outcome, err := b.PhotoGate.Run(ctx.Context(), telegramID, PhotoProcessingCost, func(actionCtx context.Context) error {
		result, err := b.Gen.ProcessPhoto(actionCtx, gencli.PhotoRequest{
			TelegramID:   telegramID,
			PhotoFileIDs: []string{sess.PhotoFileID},
			Prompt:       sess.Prompt,
		})
		if err != nil {
			return err
		}
		photoURL = result
		return nil
	})
	if err != nil {
		log.Printf("Photo processing ledger failure for %d: %v", telegramID, err)
		b.sendInternalError(ctx, telegramID)
		return nil
	}

	switch outcome.Status {
	case ledger.StatusDelivered:
		b.sendResultPhoto(ctx, telegramID, photoURL)
	case ledger.StatusInsufficient:
		b.sendInsufficient(ctx, telegramID, outcome)
		return nil
	case ledger.StatusExternalError:
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"Возникла проблема: "+outcome.Message,
		))
	case ledger.StatusUnreachable:
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"Сервис обработки изображений сейчас не отвечает. Пожалуйста, попробуйте позже.",
		))
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"Хотите сделать что-то еще?",
	).WithReplyMarkup(mainMenuKeyboard()))
	return nil
}

// sendResultPhoto delivers the processed image: data URIs are decoded and
// uploaded, plain URLs are passed to Telegram as-is.
func (b *Bot) sendResultPhoto(ctx *th.Context, telegramID int64, photoURL string) {
	caption := "Готово! Вот ваше новое изображение."

	if strings.HasPrefix(photoURL, "data:image") {
		b64 := photoURL
		if idx := strings.Index(photoURL, ","); idx >= 0 {
			b64 = photoURL[idx+1:]
		}
		imageBytes, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			log.Printf("Failed to decode result image for %d: %v", telegramID, err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(telegramID),
				"Не удалось получить результат. Попробуйте еще раз.",
			))
			return
		}
		_, _ = ctx.Bot().SendPhoto(ctx.Context(), tu.Photo(
			tu.ID(telegramID),
			tu.File(tu.NameReader(bytes.NewReader(imageBytes), "result.png")),
		).WithCaption(caption))
		return
	}

	_, _ = ctx.Bot().SendPhoto(ctx.Context(), tu.Photo(
		tu.ID(telegramID),
		tu.FileFromURL(photoURL),
	).WithCaption(caption))
}

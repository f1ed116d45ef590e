package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"kartochka-bot/internal/gencli"
	"kartochka-bot/internal/ledger"
	"kartochka-bot/internal/session"
)

func (b *Bot) handleStartCardGeneration(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	telegramID := callback.From.ID

	log.Printf("User %d started card generation", telegramID)

	sess := &session.Session{
		State:           session.StateCardWaitingPhoto,
		Characteristics: make(map[string]string),
	}
	if err := b.Sessions.Save(ctx.Context(), telegramID, sess); err != nil {
		log.Printf("Failed to start card session for %d: %v", telegramID, err)
		return nil
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"✍️ <b>Создание описания для товара</b>\n\n"+
			"Давайте вместе подготовим продающий текст для вашего товара.\n\n"+
			"<b>Шаг 1 из 4:</b> Загрузите основное изображение товара.",
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(cardGenerationKeyboard()))
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	return nil
}

func (b *Bot) handleCancelCardGeneration(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	telegramID := callback.From.ID

	log.Printf("User %d cancelled card generation", telegramID)

	_ = b.Sessions.Clear(ctx.Context(), telegramID)

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"Операция отменена. Вы вернулись в главное меню.",
	).WithReplyMarkup(mainMenuKeyboard()))
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	return nil
}

func (b *Bot) cardPhotoReceived(ctx *th.Context, telegramID int64, sess *session.Session, fileID string) error {
	sess.PhotoFileID = fileID
	sess.State = session.StateCardWaitingName
	if err := b.Sessions.Save(ctx.Context(), telegramID, sess); err != nil {
		return err
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"🖼️ <b>Изображение принято.</b>\n\n"+
			"<b>Шаг 2 из 4:</b> Теперь укажите основные данные о товаре.\n\n"+
			"Начнем с <b>названия</b>. Как называется ваш товар?",
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(cardGenerationKeyboard()))
	return nil
}

func (b *Bot) cardCharacteristicReceived(ctx *th.Context, telegramID int64, sess *session.Session, text string) error {
	if sess.Characteristics == nil {
		sess.Characteristics = make(map[string]string)
	}

	var reply string
	switch sess.State {
	case session.StateCardWaitingName:
		sess.Characteristics["name"] = text
		sess.State = session.StateCardWaitingBrand
		reply = fmt.Sprintf("👍 <b>Название принято:</b> %s\n\nТеперь введите <b>бренд</b>.", text)
	case session.StateCardWaitingBrand:
		sess.Characteristics["brand"] = text
		sess.State = session.StateCardWaitingCategory
		reply = fmt.Sprintf("👍 <b>Бренд сохранен:</b> %s\n\nК какой <b>категории</b> относится товар?", text)
	case session.StateCardWaitingCategory:
		sess.Characteristics["category"] = text
		sess.State = session.StateCardWaitingAudience
		reply = "👍 <b>Все данные записаны.</b>\n\n" +
			"<b>Шаг 3 из 4:</b> Опишите вашу целевую аудиторию.\n\n" +
			"<i>Например: молодые мамы, геймеры, любители активного отдыха.</i>"
	}

	if err := b.Sessions.Save(ctx.Context(), telegramID, sess); err != nil {
		return err
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID), reply,
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(cardGenerationKeyboard()))
	return nil
}

func (b *Bot) cardAudienceReceived(ctx *th.Context, telegramID int64, sess *session.Session, text string) error {
	sess.TargetAudience = text
	sess.State = session.StateCardWaitingSellingPoints
	if err := b.Sessions.Save(ctx.Context(), telegramID, sess); err != nil {
		return err
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"👍 <b>Аудитория определена.</b>\n\n"+
			"<b>Шаг 4 из 4:</b> Перечислите главные достоинства или уникальные особенности вашего товара.\n\n"+
			"<i>Например: ручная работа, водонепроницаемый, гипоаллергенный материал.</i>",
	).WithParseMode(telego.ModeHTML).WithReplyMarkup(cardGenerationKeyboard()))
	return nil
}

func (b *Bot) cardSellingPointsReceived(ctx *th.Context, telegramID int64, sess *session.Session, text string) error {
	sess.SellingPoints = text
	return b.generateCard(ctx, telegramID, sess)
}

func (b *Bot) generateCard(ctx *th.Context, telegramID int64, sess *session.Session) error {
	defer func() {
		_ = b.Sessions.Clear(ctx.Context(), telegramID)
	}()

	if sess.PhotoFileID == "" ||
		sess.Characteristics["name"] == "" ||
		sess.Characteristics["brand"] == "" ||
		sess.Characteristics["category"] == "" {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"⚠️ Обнаружена нехватка данных. Пожалуйста, начните процесс заново.",
		).WithReplyMarkup(mainMenuKeyboard()))
		return nil
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		fmt.Sprintf("🤖 <b>Начинаю генерацию текста...</b>\n\nЭто будет стоить %d кредит.\nЭто может занять до двух минут. Пожалуйста, подождите.", CardGenerationCost),
	).WithParseMode(telego.ModeHTML))

	var card string
	outcome, err := b.CardGate.Run(ctx.Context(), telegramID, CardGenerationCost, func(actionCtx context.Context) error {
		result, err := b.Gen.GenerateCard(actionCtx, gencli.CardRequest{
			TelegramID:      telegramID,
			PhotoFileID:     sess.PhotoFileID,
			Characteristics: sess.Characteristics,
			TargetAudience:  sess.TargetAudience,
			SellingPoints:   sess.SellingPoints,
		})
		if err != nil {
			return err
		}
		card = result
		return nil
	})
	if err != nil {
		log.Printf("Card generation ledger failure for %d: %v", telegramID, err)
		b.sendInternalError(ctx, telegramID)
		return nil
	}

	switch outcome.Status {
	case ledger.StatusDelivered:
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			fmt.Sprintf("🎉 <b>Ваше описание готово!</b>\n\n%s", card),
		).WithParseMode(telego.ModeHTML))
	case ledger.StatusInsufficient:
		b.sendInsufficient(ctx, telegramID, outcome)
		return nil
	case ledger.StatusExternalError:
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			fmt.Sprintf("❗️ <b>При генерации произошла ошибка:</b>\n\n%s", outcome.Message),
		).WithParseMode(telego.ModeHTML))
	case ledger.StatusUnreachable:
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"❗️ <b>Сервис генерации временно недоступен.</b>\nПожалуйста, попробуйте снова через некоторое время.",
		).WithParseMode(telego.ModeHTML))
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"Что вы хотите сделать дальше?",
	).WithReplyMarkup(mainMenuKeyboard()))
	return nil
}

func (b *Bot) sendInsufficient(ctx *th.Context, telegramID int64, outcome ledger.Outcome) {
	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		fmt.Sprintf("У вас недостаточно кредитов (нужно %d, у вас %d).\nЧтобы пополнить баланс, воспользуйтесь командой /buy_credits.", outcome.Needed, outcome.Have),
	).WithReplyMarkup(backToMainMenuKeyboard()))
}

func (b *Bot) sendInternalError(ctx *th.Context, telegramID int64) {
	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(telegramID),
		"❗️ Произошла внутренняя ошибка. Мы уже работаем над ее устранением.",
	).WithReplyMarkup(mainMenuKeyboard()))
}

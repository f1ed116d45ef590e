package bot

import (
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"kartochka-bot/internal/payment"
)

func mainMenuKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🎨 Генерация карточки").WithCallbackData("start_card_generation"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📸 Обработка фото").WithCallbackData("start_photo_processing"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("💰 Мой баланс / Купить кредиты").WithCallbackData("show_buy_menu"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("👤 Профиль").WithCallbackData("profile"),
			tu.InlineKeyboardButton("🤝 Пригласить друга").WithCallbackData("invite_friend"),
		),
	)
}

func cardGenerationKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔙 Отмена").WithCallbackData("cancel_card_generation"),
		),
	)
}

func photoProcessingKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔙 Отмена").WithCallbackData("cancel_photo_processing"),
		),
	)
}

func backToMainMenuKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("⬅️ Назад в главное меню").WithCallbackData("back_to_main_menu"),
		),
	)
}

func buyMenuKeyboard() *telego.InlineKeyboardMarkup {
	rows := make([][]telego.InlineKeyboardButton, 0, len(payment.Packages)+1)
	for _, p := range payment.Packages {
		label := fmt.Sprintf("%d Кредитов за %d ⭐️", p.Credits, p.Stars)
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(label).WithCallbackData(payment.EncodeBuyCallback(p)),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("⬅️ Назад в главное меню").WithCallbackData("back_to_main_menu"),
	))
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

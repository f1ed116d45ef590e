package genservice

import (
	"fmt"
	"strings"

	"kartochka-bot/internal/gencli"
)

// buildCardPrompt assembles the marketing-card prompt from the collected
// product data.
func buildCardPrompt(req gencli.CardRequest) string {
	var sb strings.Builder
	sb.WriteString("Составь продающее описание карточки товара для маркетплейса на русском языке.\n\n")
	fmt.Fprintf(&sb, "Название товара: %s\n", req.Characteristics["name"])
	fmt.Fprintf(&sb, "Бренд: %s\n", req.Characteristics["brand"])
	fmt.Fprintf(&sb, "Категория: %s\n", req.Characteristics["category"])
	fmt.Fprintf(&sb, "Целевая аудитория: %s\n", req.TargetAudience)
	fmt.Fprintf(&sb, "Ключевые преимущества: %s\n", req.SellingPoints)
	if req.SemanticCore != "" {
		fmt.Fprintf(&sb, "Семантическое ядро: %s\n", req.SemanticCore)
	}
	sb.WriteString("\nОписание должно быть структурированным, убедительным и подчеркивать преимущества товара для указанной аудитории.")
	return sb.String()
}

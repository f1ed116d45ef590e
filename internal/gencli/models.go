package gencli

type CardRequest struct {
	TelegramID      int64             `json:"telegram_id"`
	PhotoFileID     string            `json:"photo_file_id"`
	Characteristics map[string]string `json:"characteristics"`
	TargetAudience  string            `json:"target_audience"`
	SellingPoints   string            `json:"selling_points"`
	SemanticCore    string            `json:"semantic_core_text,omitempty"`
}

type CardResponse struct {
	Status string `json:"status"`
	Card   string `json:"card"`
}

type PhotoRequest struct {
	TelegramID   int64    `json:"telegram_id"`
	PhotoFileIDs []string `json:"photo_file_ids"`
	Prompt       string   `json:"prompt"`
}

type PhotoResult struct {
	PhotoURL       string  `json:"photo_url"`
	ProcessingTime float64 `json:"processing_time"`
}

type PhotoResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  PhotoResult `json:"result"`
}

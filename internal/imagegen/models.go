package imagegen

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// The vendor answers in camelCase but some gateways pass snake_case
// through, so the response types accept both.

type responseInline struct {
	MimeTypeCamel string `json:"mimeType"`
	MimeTypeSnake string `json:"mime_type"`
	Data          string `json:"data"`
}

func (r *responseInline) mimeType() string {
	if r.MimeTypeCamel != "" {
		return r.MimeTypeCamel
	}
	if r.MimeTypeSnake != "" {
		return r.MimeTypeSnake
	}
	return "image/png"
}

type responsePart struct {
	Text        string          `json:"text,omitempty"`
	InlineCamel *responseInline `json:"inlineData"`
	InlineSnake *responseInline `json:"inline_data"`
}

func (p *responsePart) inline() *responseInline {
	if p.InlineCamel != nil {
		return p.InlineCamel
	}
	return p.InlineSnake
}

type responseContent struct {
	Parts []responsePart `json:"parts"`
}

type responseCandidate struct {
	Content responseContent `json:"content"`
}

type GenerateResponse struct {
	Candidates []responseCandidate `json:"candidates"`
}

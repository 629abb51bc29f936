package gemini

// GenerateRequest represents a generateContent request
type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Content is a single turn of model input
type Content struct {
	Parts []Part `json:"parts"`
}

// Part carries either an instruction text or inlined media data
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData is base64-encoded media tagged with its type
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GenerationConfig holds sampling parameters
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GenerateResponse represents a generateContent response
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one model completion
type Candidate struct {
	Content CandidateContent `json:"content"`
}

// CandidateContent holds the completion parts
type CandidateContent struct {
	Parts []Part `json:"parts"`
}

// ErrorResponse is the error envelope returned on non-2xx statuses
type ErrorResponse struct {
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries the upstream error description
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

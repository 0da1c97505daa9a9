package models

// request/response schemas for the HTTP API, field names match what the
// chat frontend expects

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,min=1"`
}

type ChatRequest struct {
	Message             string        `json:"message" validate:"required,min=1"`
	ConversationHistory []ChatMessage `json:"conversation_history" validate:"dive"`
}

// SourceChunk is a retrieved chunk cited by a chat response. Text is
// truncated server side so responses stay small.
type SourceChunk struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	SourceType     string  `json:"source_type"`
	Date           string  `json:"date,omitempty"`
	Title          string  `json:"title,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

type ChatResponse struct {
	Response string        `json:"response"`
	Sources  []SourceChunk `json:"sources"`
}

type SearchResult struct {
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	Metadata       map[string]string `json:"metadata"`
	Distance       float64           `json:"distance"`
	RelevanceScore float64           `json:"relevance_score"`
}

type SearchResponse struct {
	Query      string         `json:"query"`
	NumResults int            `json:"num_results"`
	Results    []SearchResult `json:"results"`
}

type HealthResponse struct {
	Status               string            `json:"status"`
	Version              string            `json:"version"`
	Components           map[string]string `json:"components"`
	VectorStoreDocuments int               `json:"vector_store_documents"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

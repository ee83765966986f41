package types

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	// Task type used for tier selection when Tier is empty.
	// example: general
	TaskType string `json:"task_type,omitempty"`
	// Explicit tier override; a catalog tier id or level.
	Tier string `json:"tier,omitempty"`
	// Prompt to complete. Required.
	Prompt string `json:"prompt"`
	// Sampling controls. Zero values select engine defaults.
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float32  `json:"temperature,omitempty"`
	TopP        float32  `json:"top_p,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        int      `json:"seed,omitempty"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	Tier string `json:"tier"`
	Text string `json:"text"`
	// Whether the response was served from the result cache.
	Cached     bool  `json:"cached"`
	DurationMs int64 `json:"duration_ms"`
}

// EmbedRequest is the body of POST /embeddings.
type EmbedRequest struct {
	TaskType string   `json:"task_type,omitempty"`
	Tier     string   `json:"tier,omitempty"`
	Texts    []string `json:"texts"`
}

// EmbedResponse is returned by POST /embeddings.
type EmbedResponse struct {
	Tier       string      `json:"tier"`
	Embeddings [][]float32 `json:"embeddings"`
	Cached     bool        `json:"cached"`
}

// WarmRequest is the body of POST /ops/warm.
type WarmRequest struct {
	TaskType string `json:"task_type,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

// WarmResponse is returned by POST /ops/warm.
type WarmResponse struct {
	Tier  string `json:"tier"`
	State string `json:"state"`
}

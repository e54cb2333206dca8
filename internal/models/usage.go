package models

import "time"

type UsageSummary struct {
	TotalPrompts int `json:"total_prompts"`
	// Input/output split is reserved; nothing populates it separately from TotalTokens.
	TotalInputTokens       int     `json:"total_input_tokens"`
	TotalOutputTokens      int     `json:"total_output_tokens"`
	TotalTokens            int     `json:"total_tokens"`
	AverageTokensPerPrompt float64 `json:"average_tokens_per_prompt"`
}

type UsageEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	TokenCount   int       `json:"token_count"`
	ResponseTime float64   `json:"response_time"`
}

type UsageStats struct {
	Summary         UsageSummary `json:"summary"`
	DetailedHistory []UsageEntry `json:"detailed_history"`
}

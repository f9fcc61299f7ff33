package dto

import "time"

// ChatRequest payload for a conversation turn.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse payload.
type ChatResponse struct {
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ClearChatRequest payload.
type ClearChatRequest struct {
	SessionID string `json:"session_id"`
}

// ChatTurnResponse is one history entry.
type ChatTurnResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatHistoryResponse payload.
type ChatHistoryResponse struct {
	SessionID    string             `json:"session_id"`
	History      []ChatTurnResponse `json:"history"`
	MessageCount int                `json:"message_count"`
}

// SummaryResponse payload.
type SummaryResponse struct {
	Summary string `json:"summary"`
	Cached  bool   `json:"cached"`
}

// ConnectionTestResponse payload.
type ConnectionTestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

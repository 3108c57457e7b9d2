package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StatusUpdate reports progress of a processing request to the owner's
// open WebSocket connections.
type StatusUpdate struct {
	RequestID  string     `json:"request_id"`
	Step       int        `json:"step"`
	TotalSteps int        `json:"total_steps"`
	StepName   string     `json:"step_name"`
	VideoID    *uuid.UUID `json:"video_id,omitempty"`
}

type ErrorEvent struct {
	RequestID    string `json:"request_id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Status string   `json:"status"`
	Error  APIError `json:"error"`
}

// UserUpdatesChannel is the Redis pub/sub channel carrying a user's
// WebSocket messages.
func UserUpdatesChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

package models

// Webhook wire shapes for the voice platform.

// CallStartRequest announces a new inbound call.
type CallStartRequest struct {
	CallID string `json:"call_id" binding:"required"`
	From   string `json:"from" binding:"required"`
}

// CallStartResponse seeds the platform's first turn.
type CallStartResponse struct {
	Response string `json:"response"`
	Step     string `json:"step"`
}

// ToolRequest is one tool invocation for one turn of one call.
type ToolRequest struct {
	Function  string            `json:"function" binding:"required"`
	CallID    string            `json:"call_id" binding:"required"`
	Arguments map[string]string `json:"arguments"`
}

// ToolResponse carries the voice line the platform should speak, plus the
// step the call is in after the tool ran (unchanged on rejection).
type ToolResponse struct {
	Response string `json:"response"`
	Step     string `json:"step"`
	// Reason class for rejections and for flagged outcomes such as a
	// confirmation bounce; empty on a plain success.
	Kind string `json:"kind,omitempty"`
}

// HangupRequest tears down a finished call.
type HangupRequest struct {
	CallID string `json:"call_id" binding:"required"`
}

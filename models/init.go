package models

// InitResponse defines the structure for the /api/init endpoint response.
type InitResponse struct {
	UserID  string      `json:"user_id"`
	IsNew   bool        `json:"is_new"` // true when the server minted the anonymous id
	ModelID string      `json:"model_id"`
	Quota   QuotaStatus `json:"quota"`
}

// ThoughtResponse is returned for a processed thought or reply.
type ThoughtResponse struct {
	ConversationID string      `json:"conversation_id"`
	DisplayText    string      `json:"display_text"`
	UsedFallback   bool        `json:"used_fallback"`
	Quota          QuotaStatus `json:"quota"`
}

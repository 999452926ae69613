package request

// SendMessageRequest represents a chat message send request
type SendMessageRequest struct {
	Message string `json:"message" binding:"required,max=500"`
}

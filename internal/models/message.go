package models

// MessageKind discriminates message payloads.
type MessageKind string

const (
	MessageText     MessageKind = "text"
	MessageImage    MessageKind = "image"
	MessageAudio    MessageKind = "audio"
	MessageVoice    MessageKind = "voice"
	MessageLocation MessageKind = "location"
)

// Valid reports whether k is a known message kind.
func (k MessageKind) Valid() bool {
	switch k {
	case MessageText, MessageImage, MessageAudio, MessageVoice, MessageLocation:
		return true
	default:
		return false
	}
}

// Peer is the other participant of a conversation.
type Peer struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Conversation is an entry of the conversation list.
type Conversation struct {
	ID          uint   `json:"id"`
	Peer        Peer   `json:"peer"`
	LastMessage string `json:"last_message"`
	Timestamp   string `json:"timestamp"`
	Unread      int    `json:"unread"`
}

// Message is one entry in a conversation. Location messages carry coordinates; the other kinds
// carry content and/or a media reference.
type Message struct {
	ID        uint        `json:"id"`
	SenderID  uint        `json:"sender_id"`
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content,omitempty"`
	MediaURL  string      `json:"media_url,omitempty"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	Timestamp string      `json:"timestamp"`
}

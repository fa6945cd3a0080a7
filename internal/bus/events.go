// Package bus provides the message types and the asynchronous queue that
// connect the Telegram channel with the conversation pipeline.
//
// Inbound messages flow from the channel to the processor, outbound replies
// flow back, and lifecycle events (processing start/end) drive the typing
// indicator.
package bus

import (
	"encoding/json"
	"time"
)

// InboundKind is the type of content a user sent.
type InboundKind string

const (
	KindText     InboundKind = "text"
	KindVoice    InboundKind = "voice"
	KindDocument InboundKind = "document"
	KindCommand  InboundKind = "command"
)

// Format selects how an outbound message is rendered.
type Format string

const (
	FormatPlain    Format = ""
	FormatMarkdown Format = "markdown"
)

// EventType represents the type of lifecycle event
type EventType string

const (
	EventTypeProcessingStart EventType = "processing_start" // Event when message processing starts
	EventTypeProcessingEnd   EventType = "processing_end"   // Event when message processing ends
)

// InboundMessage is something a user sent to the bot.
type InboundMessage struct {
	Kind      InboundKind `json:"kind"`
	UserID    int64       `json:"user_id"`
	ChatID    int64       `json:"chat_id"`
	Text      string      `json:"text,omitempty"`
	Command   string      `json:"command,omitempty"` // without the leading slash
	Args      []string    `json:"args,omitempty"`
	FileID    string      `json:"file_id,omitempty"` // voice and document
	FileName  string      `json:"file_name,omitempty"`
	FileSize  int64       `json:"file_size,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// OutboundMessage is a reply to be sent to a chat.
type OutboundMessage struct {
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	Text      string    `json:"text"`
	Format    Format    `json:"format,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event represents a lifecycle event for message processing
type Event struct {
	Type      EventType `json:"type"`
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON serializes the InboundMessage to JSON bytes
func (m *InboundMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON deserializes the InboundMessage from JSON bytes
func (m *InboundMessage) FromJSON(data []byte) error {
	return json.Unmarshal(data, m)
}

// NewTextMessage creates a text InboundMessage with the current timestamp.
func NewTextMessage(userID, chatID int64, text string) InboundMessage {
	return InboundMessage{Kind: KindText, UserID: userID, ChatID: chatID, Text: text, Timestamp: time.Now()}
}

// NewCommandMessage creates a command InboundMessage.
func NewCommandMessage(userID, chatID int64, command string, args []string) InboundMessage {
	return InboundMessage{Kind: KindCommand, UserID: userID, ChatID: chatID, Command: command, Args: args, Timestamp: time.Now()}
}

// NewVoiceMessage creates a voice InboundMessage referring to a remote file.
func NewVoiceMessage(userID, chatID int64, fileID string) InboundMessage {
	return InboundMessage{Kind: KindVoice, UserID: userID, ChatID: chatID, FileID: fileID, Timestamp: time.Now()}
}

// NewDocumentMessage creates a document InboundMessage referring to a remote file.
func NewDocumentMessage(userID, chatID int64, fileID, fileName string, size int64) InboundMessage {
	return InboundMessage{
		Kind:      KindDocument,
		UserID:    userID,
		ChatID:    chatID,
		FileID:    fileID,
		FileName:  fileName,
		FileSize:  size,
		Timestamp: time.Now(),
	}
}

// Reply builds a plain-text answer to m.
func (m InboundMessage) Reply(text string) OutboundMessage {
	return OutboundMessage{UserID: m.UserID, ChatID: m.ChatID, Text: text, Timestamp: time.Now()}
}

// ReplyMarkdown builds a Markdown answer to m.
func (m InboundMessage) ReplyMarkdown(text string) OutboundMessage {
	out := m.Reply(text)
	out.Format = FormatMarkdown
	return out
}

// NewProcessingStartEvent creates a new processing start event
func NewProcessingStartEvent(userID, chatID int64) Event {
	return Event{Type: EventTypeProcessingStart, UserID: userID, ChatID: chatID, Timestamp: time.Now()}
}

// NewProcessingEndEvent creates a new processing end event
func NewProcessingEndEvent(userID, chatID int64) Event {
	return Event{Type: EventTypeProcessingEnd, UserID: userID, ChatID: chatID, Timestamp: time.Now()}
}

package models

import (
	"time"
)

// 消息发送方
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Conversation 对话记录
type Conversation struct {
	ConversationID uint      `gorm:"primaryKey;column:conversation_id" json:"conversation_id"`
	Title          string    `gorm:"size:200" json:"title"`
	CreateTime     time.Time `gorm:"column:create_time;not null" json:"create_time"`
	UpdateTime     time.Time `gorm:"column:update_time" json:"update_time"`

	Messages []ChatMessage `gorm:"foreignKey:ConversationID"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ChatMessage 对话消息
type ChatMessage struct {
	MessageID      uint      `gorm:"primaryKey;column:message_id" json:"message_id"`
	ConversationID uint      `gorm:"column:conversation_id;not null;index" json:"conversation_id"`
	Sender         string    `gorm:"size:20;not null" json:"sender"` // user | assistant
	Message        string    `gorm:"type:text;not null" json:"message"`
	ContextUsed    bool      `gorm:"column:context_used;default:false" json:"context_used"`
	CreateTime     time.Time `gorm:"column:create_time;not null" json:"create_time"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

package parser

import "time"

// SplitConversations 按时间间隔切分对话片段
func SplitConversations(messages []Message, gap time.Duration) []Conversation {
	if len(messages) == 0 {
		return nil
	}

	var conversations []Conversation
	current := Conversation{StartAt: messages[0].Timestamp}

	for i, msg := range messages {
		if i > 0 && !msg.Timestamp.IsZero() && !messages[i-1].Timestamp.IsZero() {
			if msg.Timestamp.Sub(messages[i-1].Timestamp) > gap {
				// 开始新对话
				current.EndAt = messages[i-1].Timestamp
				if len(current.Messages) >= 2 { // 至少2条消息才算对话
					conversations = append(conversations, current)
				}
				current = Conversation{StartAt: msg.Timestamp}
			}
		}
		current.Messages = append(current.Messages, msg)
	}

	// 最后一段
	if len(current.Messages) >= 2 {
		current.EndAt = current.Messages[len(current.Messages)-1].Timestamp
		conversations = append(conversations, current)
	}

	return conversations
}

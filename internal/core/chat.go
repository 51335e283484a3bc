package core

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mrwolf/vibenote-server/internal/gamification"
	"github.com/mrwolf/vibenote-server/internal/models"
)

const (
	// chatContextTurns is how many earlier turns are sent with a message
	chatContextTurns = 5
	maxChatChars     = 2000
	sessionWindow    = 50
)

// ChatExchange is a stored user turn and the reply to it
type ChatExchange struct {
	UserMessage    models.ChatMessage `json:"user_message"`
	AIMessage      models.ChatMessage `json:"ai_message"`
	CrisisDetected bool               `json:"crisis_detected"`
}

// ChatSession groups a day's messages
type ChatSession struct {
	Date         string `json:"date"`
	MessageCount int    `json:"messageCount"`
	LastMessage  string `json:"lastMessage"`
}

// SendChat stores the user's message, asks for a reply with the recent
// conversation as context and stores the reply
func (s *Service) SendChat(ctx context.Context, userID, content string) (*ChatExchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > maxChatChars {
		return nil, invalid("content", fmt.Sprintf("must be at most %d characters", maxChatChars))
	}

	history, err := s.store.ChatHistory(userID, chatContextTurns)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}

	userMsg := models.ChatMessage{
		ID:        newID(),
		UserID:    userID,
		Content:   content,
		Sender:    models.SenderUser,
		Kind:      models.MessageKindMessage,
		Timestamp: s.now(),
	}
	if err := s.store.CreateChatMessage(&userMsg); err != nil {
		return nil, fmt.Errorf("storing message: %w", err)
	}

	reply := s.analyzer.Respond(ctx, content, history)
	aiMsg := models.ChatMessage{
		ID:        newID(),
		UserID:    userID,
		Content:   reply.Content,
		Sender:    models.SenderAI,
		Kind:      reply.Kind,
		Timestamp: s.now(),
	}
	if err := s.store.CreateChatMessage(&aiMsg); err != nil {
		return nil, fmt.Errorf("storing reply: %w", err)
	}
	if reply.CrisisDetected {
		s.logger.Warn("crisis response sent", "user_id", userID)
	}
	return &ChatExchange{UserMessage: userMsg, AIMessage: aiMsg, CrisisDetected: reply.CrisisDetected}, nil
}

// ChatHistory returns the newest messages in chronological order
func (s *Service) ChatHistory(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	messages, err := s.store.ChatHistory(userID, pageSize(limit))
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	return messages, nil
}

// ClearChat deletes the conversation and returns how many messages went
func (s *Service) ClearChat(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.ClearChat(userID)
	if err != nil {
		return 0, fmt.Errorf("clearing chat: %w", err)
	}
	return n, nil
}

// ChatSessions groups the recent messages by day, newest day first
func (s *Service) ChatSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	messages, err := s.store.ChatHistory(userID, sessionWindow)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}

	loc := s.tracker.Location()
	sessions := make([]ChatSession, 0)
	index := make(map[string]int)
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		date := m.Timestamp.In(loc).Format(gamification.DateLayout)
		if j, ok := index[date]; ok {
			sessions[j].MessageCount++
			continue
		}
		index[date] = len(sessions)
		sessions = append(sessions, ChatSession{Date: date, MessageCount: 1, LastMessage: m.Content})
	}
	return sessions, nil
}

package wsclient

import (
	"context"

	"github.com/arbourlane/vigil/internal/engine"
)

// Frame types mirror the engine's request surface one-to-one.
const (
	typeConversationList   = "conversation.list"
	typeConversationGet    = "conversation.get"
	typeConversationCreate = "conversation.create"
	typeConversationUpdate = "conversation.update"
	typeConversationDelete = "conversation.delete"
	typeConversationStart  = "conversation.start"
	typeConversationStop   = "conversation.stop"
	typeConversationSend   = "conversation.send"
	typeSettingsGet        = "settings.get"
	typeSettingsSave       = "settings.save"
	typeProviderTest       = "provider.test"
	typeGameStart          = "game.start"
	typeGameStop           = "game.stop"
	typeGamePause          = "game.pause"
	typeGameResume         = "game.resume"
	typeGameAsk            = "game.ask"
)

type conversationRef struct {
	ID string `json:"id"`
}

type conversationUpdateRequest struct {
	ID     string                   `json:"id"`
	Config engine.ConversationConfig `json:"config"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

type providerTestRequest struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
}

type gameStartRequest struct {
	Agents []engine.PendingAgent `json:"agents"`
}

type askAgentRequest struct {
	ParticipantID string            `json:"participant_id"`
	History       []engine.ChatTurn `json:"history"`
}

func (c *Client) ListConversations(ctx context.Context) ([]engine.ConversationSummary, error) {
	var out struct {
		Conversations []engine.ConversationSummary `json:"conversations"`
	}
	if err := c.call(ctx, typeConversationList, nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (engine.Conversation, error) {
	var out engine.Conversation
	if err := c.call(ctx, typeConversationGet, conversationRef{ID: id}, &out); err != nil {
		return engine.Conversation{}, err
	}
	return out, nil
}

func (c *Client) CreateConversation(ctx context.Context, cfg engine.ConversationConfig) (engine.Conversation, error) {
	var out engine.Conversation
	if err := c.call(ctx, typeConversationCreate, cfg, &out); err != nil {
		return engine.Conversation{}, err
	}
	return out, nil
}

func (c *Client) UpdateConversation(ctx context.Context, id string, cfg engine.ConversationConfig) error {
	return c.call(ctx, typeConversationUpdate, conversationUpdateRequest{ID: id, Config: cfg}, nil)
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.call(ctx, typeConversationDelete, conversationRef{ID: id}, nil)
}

func (c *Client) StartConversation(ctx context.Context, id string) error {
	return c.call(ctx, typeConversationStart, conversationRef{ID: id}, nil)
}

func (c *Client) StopConversation(ctx context.Context, id string) error {
	return c.call(ctx, typeConversationStop, conversationRef{ID: id}, nil)
}

func (c *Client) SendUserMessage(ctx context.Context, conversationID, text string) error {
	return c.call(ctx, typeConversationSend, sendMessageRequest{ConversationID: conversationID, Text: text}, nil)
}

func (c *Client) GetSettings(ctx context.Context) (engine.Settings, error) {
	var out engine.Settings
	if err := c.call(ctx, typeSettingsGet, nil, &out); err != nil {
		return engine.Settings{}, err
	}
	return out, nil
}

func (c *Client) SaveSettings(ctx context.Context, settings engine.Settings) error {
	return c.call(ctx, typeSettingsSave, settings, nil)
}

func (c *Client) TestProvider(ctx context.Context, provider, key string) (engine.TestResult, error) {
	var out engine.TestResult
	if err := c.call(ctx, typeProviderTest, providerTestRequest{Provider: provider, Key: key}, &out); err != nil {
		return engine.TestResult{}, err
	}
	return out, nil
}

func (c *Client) StartGame(ctx context.Context, agents []engine.PendingAgent) error {
	return c.call(ctx, typeGameStart, gameStartRequest{Agents: agents}, nil)
}

func (c *Client) StopGame(ctx context.Context) error {
	return c.call(ctx, typeGameStop, nil, nil)
}

func (c *Client) PauseGame(ctx context.Context) error {
	return c.call(ctx, typeGamePause, nil, nil)
}

func (c *Client) ResumeGame(ctx context.Context) error {
	return c.call(ctx, typeGameResume, nil, nil)
}

func (c *Client) AskAgent(ctx context.Context, participantID string, history []engine.ChatTurn) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.call(ctx, typeGameAsk, askAgentRequest{ParticipantID: participantID, History: history}, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

var _ engine.API = (*Client)(nil)

// Package chat implements the message exchange: validate, complete
// upstream, persist the transcript, shape the result.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"gorm.io/datatypes"

	"medichat/completion"
	"medichat/models"
)

// ExchangeResult distinguishes "the model produced an answer" from "the
// answer is retrievable in history". MessageID is zero whenever nothing
// was persisted.
type ExchangeResult struct {
	Reply         string
	MessageID     uint
	Persisted     bool
	StorageFailed bool
}

type Service struct {
	store  MessageStore
	client completion.Client
}

func NewService(store MessageStore, client completion.Client) *Service {
	return &Service{store: store, client: client}
}

// Exchange runs one request through the state machine. userID nil means
// anonymous: the completion is returned but nothing is written. A store
// failure after a successful completion degrades to an unpersisted
// success, never a hard failure.
func (s *Service) Exchange(ctx context.Context, userID *uint, text string) (ExchangeResult, error) {
	text = sanitize(text)
	if text == "" {
		return ExchangeResult{}, fmt.Errorf("%w: message is required", models.ErrInvalidInput)
	}

	reply, err := s.client.Complete(ctx, text)
	if err != nil {
		return ExchangeResult{}, err
	}

	res := ExchangeResult{Reply: reply.Text}
	if userID == nil {
		return res, nil
	}

	id, err := s.store.SaveExchange(*userID, text, reply.Text, replyMeta(reply))
	if err != nil {
		log.Printf("[chat] transcript write failed for user %d: %v", *userID, err)
		res.StorageFailed = true
		return res, nil
	}
	res.MessageID = id
	res.Persisted = true
	return res, nil
}

// History returns every message the identity owns, oldest first. An
// empty history is an empty slice, not an error.
func (s *Service) History(userID uint) ([]models.ChatMessage, error) {
	return s.store.History(userID)
}

// Delete removes one owned message by id.
func (s *Service) Delete(userID, messageID uint) error {
	return s.store.Delete(userID, messageID)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// sanitize strips HTML-ish tags and surrounding whitespace before the
// text is sent upstream or persisted.
func sanitize(text string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
}

// replyMeta records provider provenance on the assistant row.
func replyMeta(reply completion.Reply) datatypes.JSON {
	raw, err := json.Marshal(map[string]any{
		"model":             reply.Model,
		"prompt_tokens":     reply.PromptTokens,
		"completion_tokens": reply.CompletionTokens,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

package chat

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"medichat/models"
)

// MessageStore persists transcripts. Row ownership is the only access
// rule: every operation is keyed by the owning user id.
type MessageStore interface {
	// SaveExchange writes the user message and the assistant reply as a
	// single atomic unit and returns the assistant row's id.
	SaveExchange(userID uint, userText, botText string, meta datatypes.JSON) (uint, error)
	History(userID uint) ([]models.ChatMessage, error)
	Delete(userID, messageID uint) error
}

// GormStore is the production MessageStore.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// SaveExchange commits both rows in one short transaction, user message
// first so the ordering invariant holds even under inspection mid-tx.
func (s *GormStore) SaveExchange(userID uint, userText, botText string, meta datatypes.JSON) (uint, error) {
	var botID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userMsg := models.ChatMessage{UserID: userID, Content: userText}
		if err := tx.Create(&userMsg).Error; err != nil {
			return err
		}
		botMsg := models.ChatMessage{UserID: userID, Content: botText, IsBot: true, Meta: meta}
		if err := tx.Create(&botMsg).Error; err != nil {
			return err
		}
		botID = botMsg.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return botID, nil
}

func (s *GormStore) History(userID uint) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at asc, id asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Delete removes one owned message. A row owned by someone else is
// indistinguishable from a missing one.
func (s *GormStore) Delete(userID, messageID uint) error {
	res := s.db.
		Where("id = ? AND user_id = ?", messageID, userID).
		Delete(&models.ChatMessage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: message %d", models.ErrNotFound, messageID)
	}
	return nil
}

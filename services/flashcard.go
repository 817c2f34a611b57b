package services

import (
	"context"
	"errors"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/tenxcards/tenxcards-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FlashcardService struct {
	db *gorm.DB
}

func NewFlashcardService(db *gorm.DB) *FlashcardService {
	return &FlashcardService{db: db}
}

func (s *FlashcardService) deckByPublicID(ctx context.Context, userID uint, deckPublicID string) (*models.Deck, error) {
	var deck models.Deck
	err := s.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", deckPublicID, userID).
		First(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, err
	}
	return &deck, nil
}

// ListFlashcards returns the deck's live flashcards with their tags.
func (s *FlashcardService) ListFlashcards(ctx context.Context, userID uint, deckPublicID string) ([]models.Flashcard, map[uint][]models.Tag, error) {
	deck, err := s.deckByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, nil, err
	}

	var cards []models.Flashcard
	err = s.db.WithContext(ctx).
		Where("deck_id = ?", deck.ID).
		Order("created_at asc").
		Find(&cards).Error
	if err != nil {
		return nil, nil, err
	}

	tagsByCard := make(map[uint][]models.Tag)
	if len(cards) > 0 {
		cardIDs := make([]uint, len(cards))
		for i, card := range cards {
			cardIDs[i] = card.ID
		}

		type taggedRow struct {
			models.Tag
			FlashcardID uint `gorm:"column:flashcard_id"`
		}
		var rows []taggedRow
		err = s.db.WithContext(ctx).
			Table("tags").
			Select("tags.*, flashcard_tags.flashcard_id").
			Joins("JOIN flashcard_tags ON flashcard_tags.tag_id = tags.id").
			Where("flashcard_tags.flashcard_id IN ? AND tags.deleted_at IS NULL", cardIDs).
			Find(&rows).Error
		if err != nil {
			return nil, nil, err
		}
		for _, row := range rows {
			tagsByCard[row.FlashcardID] = append(tagsByCard[row.FlashcardID], row.Tag)
		}
	}

	return cards, tagsByCard, nil
}

func (s *FlashcardService) GetFlashcard(ctx context.Context, userID uint, deckPublicID, cardPublicID string) (*models.Flashcard, error) {
	deck, err := s.deckByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}

	var card models.Flashcard
	err = s.db.WithContext(ctx).
		Where("public_id = ? AND deck_id = ?", cardPublicID, deck.ID).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFlashcardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateFlashcard adds a manually authored card to the deck.
func (s *FlashcardService) CreateFlashcard(ctx context.Context, userID uint, deckPublicID, front, back string) (*models.Flashcard, error) {
	deck, err := s.deckByPublicID(ctx, userID, deckPublicID)
	if err != nil {
		return nil, err
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	card := models.Flashcard{
		PublicID: publicID,
		Front:    front,
		Back:     back,
		Source:   models.SourceManual,
		DeckID:   deck.ID,
		UserID:   userID,
	}
	if err := s.db.WithContext(ctx).Create(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// FlashcardUpdate carries optional card fields; nil means leave unchanged.
type FlashcardUpdate struct {
	Front *string
	Back  *string
}

// UpdateFlashcard edits a card's text. Editing the text of an ai-full
// card demotes it to ai-edited; that transition never reverses, and
// manual cards keep their source no matter what.
func (s *FlashcardService) UpdateFlashcard(ctx context.Context, userID uint, deckPublicID, cardPublicID string, update FlashcardUpdate) (*models.Flashcard, error) {
	card, err := s.GetFlashcard(ctx, userID, deckPublicID, cardPublicID)
	if err != nil {
		return nil, err
	}

	textChanged := false
	if update.Front != nil && *update.Front != card.Front {
		card.Front = *update.Front
		textChanged = true
	}
	if update.Back != nil && *update.Back != card.Back {
		card.Back = *update.Back
		textChanged = true
	}

	if textChanged && card.Source == models.SourceAIFull {
		card.Source = models.SourceAIEdited
	}

	if err := s.db.WithContext(ctx).Save(card).Error; err != nil {
		return nil, err
	}
	return card, nil
}

func (s *FlashcardService) DeleteFlashcard(ctx context.Context, userID uint, deckPublicID, cardPublicID string) error {
	card, err := s.GetFlashcard(ctx, userID, deckPublicID, cardPublicID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(card).Error
}

// AttachTag associates an owned tag with an owned flashcard. Duplicate
// associations are a no-op.
func (s *FlashcardService) AttachTag(ctx context.Context, userID uint, deckPublicID, cardPublicID, tagPublicID string) error {
	card, err := s.GetFlashcard(ctx, userID, deckPublicID, cardPublicID)
	if err != nil {
		return err
	}

	var tag models.Tag
	err = s.db.WithContext(ctx).
		Where("public_id = ?", tagPublicID).
		First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTagNotFound
	}
	if err != nil {
		return err
	}
	if tag.Scope == models.TagScopeDeck && (tag.UserID == nil || *tag.UserID != userID) {
		return ErrTagNotFound
	}

	association := models.FlashcardTag{FlashcardID: card.ID, TagID: tag.ID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&association).Error
}

func (s *FlashcardService) DetachTag(ctx context.Context, userID uint, deckPublicID, cardPublicID, tagPublicID string) error {
	card, err := s.GetFlashcard(ctx, userID, deckPublicID, cardPublicID)
	if err != nil {
		return err
	}

	var tag models.Tag
	err = s.db.WithContext(ctx).
		Where("public_id = ?", tagPublicID).
		First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTagNotFound
	}
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("flashcard_id = ? AND tag_id = ?", card.ID, tag.ID).
		Delete(&models.FlashcardTag{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

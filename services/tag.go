package services

import (
	"context"
	"errors"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/tenxcards/tenxcards-api/models"
	"gorm.io/gorm"
)

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// TagWithCount receives the joined flashcard count alongside tag columns.
type TagWithCount struct {
	models.Tag
	FlashcardCountCol int64 `gorm:"column:flashcard_count"`
}

// ListDeckTags returns the deck's tags with the number of live
// flashcards carrying each one.
func (s *TagService) ListDeckTags(ctx context.Context, userID uint, deckPublicID string) ([]models.Tag, error) {
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

	var rows []TagWithCount
	err = s.db.WithContext(ctx).
		Table("tags").
		Select("tags.*, COALESCE(COUNT(DISTINCT flashcards.id), 0) as flashcard_count").
		Joins("LEFT JOIN flashcard_tags ON tags.id = flashcard_tags.tag_id").
		Joins("LEFT JOIN flashcards ON flashcard_tags.flashcard_id = flashcards.id AND flashcards.deleted_at IS NULL").
		Where("tags.deck_id = ? AND tags.deleted_at IS NULL", deck.ID).
		Group("tags.id").
		Order("tags.name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	tags := make([]models.Tag, 0, len(rows))
	for _, row := range rows {
		tag := row.Tag
		tag.FlashcardCount = row.FlashcardCountCol
		tags = append(tags, tag)
	}
	return tags, nil
}

// CreateDeckTag creates a deck-scoped tag; the name must be unique
// within the deck.
func (s *TagService) CreateDeckTag(ctx context.Context, userID uint, deckPublicID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)

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

	var existing int64
	err = s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("deck_id = ? AND name = ?", deck.ID, name).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrTagNameTaken
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	tag := models.Tag{
		PublicID: publicID,
		Name:     name,
		Scope:    models.TagScopeDeck,
		DeckID:   &deck.ID,
		UserID:   &userID,
	}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag soft-deletes a deck-scoped tag and its associations. Global
// tags are immutable and deleting one is forbidden.
func (s *TagService) DeleteTag(ctx context.Context, userID uint, tagPublicID string) error {
	var tag models.Tag
	err := s.db.WithContext(ctx).
		Where("public_id = ?", tagPublicID).
		First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTagNotFound
	}
	if err != nil {
		return err
	}

	if tag.Scope == models.TagScopeGlobal {
		return ErrGlobalTagImmutable
	}
	if tag.UserID == nil || *tag.UserID != userID {
		return ErrTagNotFound
	}

	if err := s.db.WithContext(ctx).
		Where("tag_id = ?", tag.ID).
		Delete(&models.FlashcardTag{}).Error; err != nil {
		return err
	}

	return s.db.WithContext(ctx).Delete(&tag).Error
}

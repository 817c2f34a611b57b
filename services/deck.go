package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
	"github.com/tenxcards/tenxcards-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultDeckName = "My Flashcards"

type DeckService struct {
	db *gorm.DB
}

func NewDeckService(db *gorm.DB) *DeckService {
	return &DeckService{db: db}
}

// ListDecks returns the user's decks with derived flashcard counts.
func (s *DeckService) ListDecks(ctx context.Context, userID uint) ([]models.Deck, error) {
	var decks []models.Deck
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default desc, name asc").
		Find(&decks).Error
	if err != nil {
		return nil, err
	}

	for i := range decks {
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&models.Flashcard{}).
			Where("deck_id = ?", decks[i].ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		decks[i].FlashcardCount = count
	}

	return decks, nil
}

// CountDecks returns the number of live decks the user owns.
func (s *DeckService) CountDecks(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Deck{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (s *DeckService) GetDeck(ctx context.Context, userID uint, publicID string) (*models.Deck, error) {
	var deck models.Deck
	err := s.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Flashcard{}).
		Where("deck_id = ?", deck.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	deck.FlashcardCount = count

	return &deck, nil
}

func (s *DeckService) CreateDeck(ctx context.Context, userID uint, name, description string, isPublic bool) (*models.Deck, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > 100 {
		return nil, ErrDeckNameInvalid
	}

	var existing int64
	err := s.db.WithContext(ctx).
		Model(&models.Deck{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrDeckNameTaken
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	deck := models.Deck{
		PublicID:    publicID,
		Name:        name,
		Description: description,
		UserID:      userID,
		IsPublic:    isPublic,
	}
	if err := s.db.WithContext(ctx).Create(&deck).Error; err != nil {
		return nil, err
	}

	return &deck, nil
}

// DeckUpdate carries optional deck fields; nil means leave unchanged.
type DeckUpdate struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

func (s *DeckService) UpdateDeck(ctx context.Context, userID uint, publicID string, update DeckUpdate) (*models.Deck, error) {
	var deck models.Deck
	err := s.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if n := utf8.RuneCountInString(name); n == 0 || n > 100 {
			return nil, ErrDeckNameInvalid
		}
		if name != deck.Name {
			var existing int64
			err := s.db.WithContext(ctx).
				Model(&models.Deck{}).
				Where("user_id = ? AND name = ? AND id <> ?", userID, name, deck.ID).
				Count(&existing).Error
			if err != nil {
				return nil, err
			}
			if existing > 0 {
				return nil, ErrDeckNameTaken
			}
			deck.Name = name
		}
	}
	if update.Description != nil {
		deck.Description = *update.Description
	}
	if update.IsPublic != nil {
		deck.IsPublic = *update.IsPublic
	}

	if err := s.db.WithContext(ctx).Save(&deck).Error; err != nil {
		return nil, err
	}

	return &deck, nil
}

// EnsureDefaultDeck returns the user's default deck, creating it when
// the user has none yet. Called during user sync so every user has a
// migration target before any deck can be deleted.
func (s *DeckService) EnsureDefaultDeck(ctx context.Context, userID uint) (*models.Deck, error) {
	var deck models.Deck
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&deck).Error
	if err == nil {
		return &deck, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	deck = models.Deck{
		PublicID:  publicID,
		Name:      DefaultDeckName,
		UserID:    userID,
		IsDefault: true,
	}
	if err := s.db.WithContext(ctx).Create(&deck).Error; err != nil {
		return nil, err
	}

	logrus.WithField("user_id", userID).Info("provisioned default deck")
	return &deck, nil
}

// DeckDeletionResult reports what the deletion workflow did. When no
// flashcards existed (so no tag was made) the tag identity is the
// placeholder {id:"0", name:""}.
type DeckDeletionResult struct {
	MigratedFlashcardsCount int64  `json:"migrated_flashcards_count"`
	MigrationTagID          string `json:"-"`
	MigrationTagName        string `json:"-"`
}

// DeleteDeck removes a non-default deck without losing its flashcards:
// they are re-pointed at the user's default deck and labelled with a
// migration tag, then the source deck is soft-deleted. The flashcard
// migration happens before the soft delete so no card ever references a
// deleted deck, and the default deck is resolved up front so the
// workflow aborts cheaply if provisioning is broken. Tag creation and
// tag association are best-effort: losing the label is preferable to
// aborting the deletion.
func (s *DeckService) DeleteDeck(ctx context.Context, userID uint, publicID string) (*DeckDeletionResult, error) {
	// Step 1: verify the deck exists, is owned, and is not the default.
	var deck models.Deck
	err := s.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, err
	}
	if deck.IsDefault {
		return nil, ErrCannotDeleteDefaultDeck
	}

	// Step 2: resolve the migration target. Its absence is a
	// provisioning bug, never something to paper over here.
	var defaultDeck models.Deck
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&defaultDeck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDefaultDeckMissing
	}
	if err != nil {
		return nil, err
	}

	// Step 3: count live flashcards in the source deck.
	var cardCount int64
	err = s.db.WithContext(ctx).
		Model(&models.Flashcard{}).
		Where("deck_id = ?", deck.ID).
		Count(&cardCount).Error
	if err != nil {
		return nil, err
	}

	var migrationTag *models.Tag
	if cardCount > 0 {
		// Step 4: create or reuse the migration tag on the default deck.
		migrationTag = s.resolveMigrationTag(ctx, userID, defaultDeck.ID, deck.Name)

		// Step 5: re-point all live flashcards at the default deck.
		err = s.db.WithContext(ctx).
			Model(&models.Flashcard{}).
			Where("deck_id = ?", deck.ID).
			Update("deck_id", defaultDeck.ID).Error
		if err != nil {
			return nil, err
		}

		// Step 6: label the migrated cards. The migration just touched
		// them, so the most recently updated cardCount cards in the
		// default deck are the ones that moved.
		if migrationTag != nil {
			s.tagMigratedFlashcards(ctx, defaultDeck.ID, migrationTag.ID, cardCount)
		}
	}

	// Step 7: soft-delete the source deck.
	if err := s.db.WithContext(ctx).Delete(&deck).Error; err != nil {
		return nil, err
	}

	result := &DeckDeletionResult{
		MigratedFlashcardsCount: cardCount,
		MigrationTagID:          "0",
	}
	if migrationTag != nil {
		result.MigrationTagID = migrationTag.PublicID
		result.MigrationTagName = migrationTag.Name
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"deck":     publicID,
		"migrated": cardCount,
	}).Info("deck deleted")

	return result, nil
}

// resolveMigrationTag upserts the deck-scoped migration tag on the
// default deck. Failure is non-fatal: the deletion continues untagged.
func (s *DeckService) resolveMigrationTag(ctx context.Context, userID, defaultDeckID uint, deckName string) *models.Tag {
	tagName := MigrationTagName(deckName)

	var tag models.Tag
	err := s.db.WithContext(ctx).
		Where("deck_id = ? AND name = ?", defaultDeckID, tagName).
		First(&tag).Error
	if err == nil {
		return &tag
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).WithField("tag", tagName).Warn("migration tag lookup failed, continuing without tag")
		return nil
	}

	publicID, err := gonanoid.New()
	if err != nil {
		logrus.WithError(err).Warn("migration tag id generation failed, continuing without tag")
		return nil
	}

	tag = models.Tag{
		PublicID: publicID,
		Name:     tagName,
		Scope:    models.TagScopeDeck,
		DeckID:   &defaultDeckID,
		UserID:   &userID,
	}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		logrus.WithError(err).WithField("tag", tagName).Warn("migration tag creation failed, continuing without tag")
		return nil
	}

	return &tag
}

// tagMigratedFlashcards associates the migration tag with the count most
// recently updated flashcards in the default deck. Also best-effort.
func (s *DeckService) tagMigratedFlashcards(ctx context.Context, defaultDeckID, tagID uint, count int64) {
	var cards []models.Flashcard
	err := s.db.WithContext(ctx).
		Where("deck_id = ?", defaultDeckID).
		Order("updated_at desc").
		Limit(int(count)).
		Find(&cards).Error
	if err != nil {
		logrus.WithError(err).Warn("could not load migrated flashcards for tagging")
		return
	}

	associations := make([]models.FlashcardTag, 0, len(cards))
	for _, card := range cards {
		associations = append(associations, models.FlashcardTag{
			FlashcardID: card.ID,
			TagID:       tagID,
		})
	}
	if len(associations) == 0 {
		return
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&associations).Error
	if err != nil {
		logrus.WithError(err).Warn("could not tag migrated flashcards")
	}
}

var nonTagChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
var repeatedHyphens = regexp.MustCompile(`-{2,}`)

// SanitizeDeckName reduces a deck name to tag-safe characters: anything
// outside [A-Za-z0-9_-] becomes a hyphen, runs collapse, edges are
// stripped. Idempotent.
func SanitizeDeckName(name string) string {
	name = strings.TrimSpace(name)
	name = nonTagChars.ReplaceAllString(name, "-")
	name = repeatedHyphens.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

// MigrationTagName derives the deterministic tag name used to mark
// flashcards relocated from a deleted deck.
func MigrationTagName(deckName string) string {
	return "#deleted-from-" + SanitizeDeckName(deckName)
}

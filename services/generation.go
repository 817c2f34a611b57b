package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
	"github.com/tenxcards/tenxcards-api/models"
	"github.com/tenxcards/tenxcards-api/openrouter"
	"gorm.io/gorm"
)

const (
	minSourceTextLength = 1000
	maxSourceTextLength = 10000
)

// AIClient is the slice of the OpenRouter client the orchestrator needs.
type AIClient interface {
	GenerateFlashcards(ctx context.Context, modelID, sourceText string) ([]openrouter.Suggestion, error)
}

// GenerationService sequences the AI generation pipeline: rate limit,
// deck ownership, the external call, and persistence of the generation
// metadata. Suggestions are never stored as flashcards here; that
// happens only when the user accepts them.
type GenerationService struct {
	db      *gorm.DB
	ai      AIClient
	limiter *RateLimiter
}

func NewGenerationService(db *gorm.DB, ai AIClient, limiter *RateLimiter) *GenerationService {
	return &GenerationService{db: db, ai: ai, limiter: limiter}
}

// GenerationResult is the response payload for a successful generation.
type GenerationResult struct {
	GenerationID         string                  `json:"generation_id"`
	Model                string                  `json:"model"`
	GeneratedCount       int                     `json:"generated_count"`
	SourceTextLength     int                     `json:"source_text_length"`
	GenerationDurationMs int64                   `json:"generation_duration_ms"`
	Suggestions          []openrouter.Suggestion `json:"suggestions"`
	CreatedAt            time.Time               `json:"created_at"`
}

// Generate runs the pipeline for one request. Each step's failure
// short-circuits the rest; AI failures are additionally written to the
// error log table before propagating.
func (s *GenerationService) Generate(ctx context.Context, userID uint, deckPublicID, modelID, sourceText string) (*GenerationResult, error) {
	trimmed := strings.TrimSpace(sourceText)
	length := utf8.RuneCountInString(trimmed)
	if length < minSourceTextLength || length > maxSourceTextLength {
		return nil, ErrSourceTextLength
	}

	if err := s.limiter.Enforce(ctx, userID); err != nil {
		return nil, err
	}

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

	hash := hashSourceText(trimmed)

	start := time.Now()
	suggestions, err := s.ai.GenerateFlashcards(ctx, modelID, trimmed)
	duration := time.Since(start)
	if err != nil {
		s.logGenerationError(ctx, userID, modelID, hash, length, err)
		return nil, err
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	generation := models.Generation{
		PublicID:         publicID,
		UserID:           userID,
		DeckID:           deck.ID,
		ModelName:        modelID,
		GeneratedCount:   len(suggestions),
		SourceTextHash:   hash,
		SourceTextLength: length,
		DurationMs:       duration.Milliseconds(),
	}
	if err := s.db.WithContext(ctx).Create(&generation).Error; err != nil {
		return nil, err
	}

	return &GenerationResult{
		GenerationID:         generation.PublicID,
		Model:                modelID,
		GeneratedCount:       len(suggestions),
		SourceTextLength:     length,
		GenerationDurationMs: duration.Milliseconds(),
		Suggestions:          suggestions,
		CreatedAt:            generation.CreatedAt,
	}, nil
}

// AcceptedFlashcard is one suggestion the user chose to keep, possibly
// after editing it.
type AcceptedFlashcard struct {
	Front  string `json:"front"`
	Back   string `json:"back"`
	Edited bool   `json:"edited"`
}

// AcceptResult reports the flashcards created from accepted suggestions.
type AcceptResult struct {
	AcceptedCount int                `json:"accepted_count"`
	Flashcards    []models.Flashcard `json:"flashcards"`
}

// Accept persists accepted suggestions as flashcards in the generation's
// deck and bumps the generation's acceptance counters. The counter
// update is best-effort: a failure there is logged and never rolls back
// the already-inserted cards.
func (s *GenerationService) Accept(ctx context.Context, userID uint, generationPublicID string, accepted []AcceptedFlashcard) (*AcceptResult, error) {
	if len(accepted) == 0 {
		return nil, ErrNoFlashcardsToAccept
	}

	var generation models.Generation
	err := s.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", generationPublicID, userID).
		First(&generation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGenerationNotFound
	}
	if err != nil {
		return nil, err
	}

	cards := make([]models.Flashcard, 0, len(accepted))
	editedCount := 0
	for _, item := range accepted {
		publicID, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		source := models.SourceAIFull
		if item.Edited {
			source = models.SourceAIEdited
			editedCount++
		}
		cards = append(cards, models.Flashcard{
			PublicID:     publicID,
			Front:        item.Front,
			Back:         item.Back,
			Source:       source,
			DeckID:       generation.DeckID,
			UserID:       userID,
			GenerationID: &generation.ID,
		})
	}

	if err := s.db.WithContext(ctx).Create(&cards).Error; err != nil {
		return nil, err
	}

	uneditedCount := len(accepted) - editedCount
	err = s.db.WithContext(ctx).
		Model(&generation).
		Updates(map[string]interface{}{
			"accepted_unedited_count": gorm.Expr("accepted_unedited_count + ?", uneditedCount),
			"accepted_edited_count":   gorm.Expr("accepted_edited_count + ?", editedCount),
		}).Error
	if err != nil {
		logrus.WithError(err).WithField("generation", generationPublicID).Warn("could not update acceptance counters")
	}

	return &AcceptResult{
		AcceptedCount: len(cards),
		Flashcards:    cards,
	}, nil
}

// findRecentDuplicate looks up a recent generation with the same source
// hash. Duplicate requests are not rejected today; the hash is recorded
// for audit only.
func (s *GenerationService) findRecentDuplicate(ctx context.Context, userID uint, hash string, within time.Duration) (*models.Generation, error) {
	var generation models.Generation
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND source_text_hash = ? AND created_at > ?", userID, hash, time.Now().Add(-within)).
		Order("created_at desc").
		First(&generation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &generation, nil
}

// logGenerationError writes a row to the error-log table. Best-effort: a
// logging failure must never mask the original AI failure.
func (s *GenerationService) logGenerationError(ctx context.Context, userID uint, modelID, hash string, length int, genErr error) {
	entry := models.GenerationErrorLog{
		UserID:           userID,
		ModelName:        modelID,
		SourceTextHash:   hash,
		SourceTextLength: length,
		ErrorCode:        openrouter.ErrorCode(genErr),
		ErrorMessage:     genErr.Error(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logrus.WithError(err).Warn("could not write generation error log")
	}
}

func hashSourceText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

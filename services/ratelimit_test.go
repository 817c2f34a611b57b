package services

import (
	"context"
	"testing"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenxcards/tenxcards-api/models"
	"gorm.io/gorm"
)

func createTestGeneration(t *testing.T, db *gorm.DB, userID, deckID uint, createdAt time.Time) *models.Generation {
	t.Helper()
	publicID, err := gonanoid.New()
	require.NoError(t, err)
	generation := models.Generation{
		PublicID:         publicID,
		UserID:           userID,
		DeckID:           deckID,
		ModelName:        "openai/gpt-4o-mini",
		GeneratedCount:   5,
		SourceTextHash:   publicID,
		SourceTextLength: 2000,
	}
	generation.CreatedAt = createdAt
	require.NoError(t, db.Create(&generation).Error)
	return &generation
}

func TestRateLimiterCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("AllowsUnderLimit", func(t *testing.T) {
		db := openTestDB(t)
		user := createTestUser(t, db, "user-1")
		deck := createTestDeck(t, db, user.ID, DefaultDeckName, true)
		limiter := NewRateLimiter(db, 10, time.Hour)

		for i := 0; i < 3; i++ {
			createTestGeneration(t, db, user.ID, deck.ID, time.Now().Add(-10*time.Minute))
		}

		status := limiter.Check(ctx, user.ID)
		assert.True(t, status.Allowed)
		assert.Equal(t, 7, status.Remaining)
		assert.Equal(t, 3, status.CurrentCount)
		assert.Equal(t, 10, status.Limit)
	})

	t.Run("DeniesAtLimit", func(t *testing.T) {
		db := openTestDB(t)
		user := createTestUser(t, db, "user-1")
		deck := createTestDeck(t, db, user.ID, DefaultDeckName, true)
		limiter := NewRateLimiter(db, 10, time.Hour)

		earliest := time.Now().Add(-30 * time.Minute)
		createTestGeneration(t, db, user.ID, deck.ID, earliest)
		for i := 0; i < 9; i++ {
			createTestGeneration(t, db, user.ID, deck.ID, time.Now().Add(-5*time.Minute))
		}

		status := limiter.Check(ctx, user.ID)
		assert.False(t, status.Allowed)
		assert.Equal(t, 0, status.Remaining)
		assert.Equal(t, 10, status.CurrentCount)
		// Reset tracks the earliest record in the window, not a bucket edge.
		assert.WithinDuration(t, earliest.Add(time.Hour), status.ResetAt, 2*time.Second)
	})

	t.Run("WindowSlides", func(t *testing.T) {
		db := openTestDB(t)
		user := createTestUser(t, db, "user-1")
		deck := createTestDeck(t, db, user.ID, DefaultDeckName, true)
		limiter := NewRateLimiter(db, 10, time.Hour)

		// All ten records fell out of the window; quota is free again
		// without anything being deleted.
		for i := 0; i < 10; i++ {
			createTestGeneration(t, db, user.ID, deck.ID, time.Now().Add(-2*time.Hour))
		}

		status := limiter.Check(ctx, user.ID)
		assert.True(t, status.Allowed)
		assert.Equal(t, 10, status.Remaining)
		assert.Equal(t, 0, status.CurrentCount)
	})

	t.Run("UsersAreIndependent", func(t *testing.T) {
		db := openTestDB(t)
		limiter := NewRateLimiter(db, 10, time.Hour)
		heavy := createTestUser(t, db, "heavy")
		light := createTestUser(t, db, "light")
		deck := createTestDeck(t, db, heavy.ID, DefaultDeckName, true)

		for i := 0; i < 10; i++ {
			createTestGeneration(t, db, heavy.ID, deck.ID, time.Now().Add(-5*time.Minute))
		}

		assert.False(t, limiter.Check(ctx, heavy.ID).Allowed)
		assert.True(t, limiter.Check(ctx, light.ID).Allowed)
	})

	t.Run("FailsOpenOnPersistenceError", func(t *testing.T) {
		db := openTestDB(t)
		user := createTestUser(t, db, "user-1")
		limiter := NewRateLimiter(db, 10, time.Hour)

		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		status := limiter.Check(ctx, user.ID)
		assert.True(t, status.Allowed)
		assert.Equal(t, 10, status.Remaining)
	})
}

func TestRateLimiterEnforce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	user := createTestUser(t, db, "user-1")
	deck := createTestDeck(t, db, user.ID, DefaultDeckName, true)
	limiter := NewRateLimiter(db, 2, time.Hour)

	require.NoError(t, limiter.Enforce(ctx, user.ID))

	createTestGeneration(t, db, user.ID, deck.ID, time.Now().Add(-time.Minute))
	createTestGeneration(t, db, user.ID, deck.ID, time.Now().Add(-time.Minute))

	err := limiter.Enforce(ctx, user.ID)
	require.Error(t, err)

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 2, rateErr.Status.Limit)
	assert.Equal(t, 2, rateErr.Status.CurrentCount)
	assert.Equal(t, 0, rateErr.Status.Remaining)
	assert.False(t, rateErr.Status.ResetAt.IsZero())
}

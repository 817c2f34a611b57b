package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tenxcards/tenxcards-api/config"
	"github.com/tenxcards/tenxcards-api/models"
	"github.com/tenxcards/tenxcards-api/services"
	"github.com/tenxcards/tenxcards-api/utils"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext returns the synced user attached by SyncUserMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

// SyncUserMiddleware ensures the token subject exists as a local user row
// and attaches it to the request context. First-time users also get
// their default deck provisioned here, so a migration target exists
// before any deck can be deleted.
func SyncUserMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := utils.GetSubject(r)
		if !ok || subjectID == "" {
			http.Error(w, "No token subject found", http.StatusUnauthorized)
			return
		}

		nickname := ""
		if claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims); ok {
			if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok && customClaims != nil {
				nickname = customClaims.Nickname
			}
		}

		var user models.User
		result := config.Database.Where("subject_id = ?", subjectID).First(&user)

		if result.Error != nil {
			// User does not exist, create a new one
			user = models.User{
				SubjectID: subjectID,
				Nickname:  nickname,
			}
			if err := config.Database.Create(&user).Error; err != nil {
				http.Error(w, "Failed to create user", http.StatusInternalServerError)
				logrus.WithError(err).Error("user creation failed")
				return
			}
			logrus.WithField("nickname", user.Nickname).Info("created new user")
		} else {
			// User exists, update nickname only if non-empty and changed
			if nickname != "" && user.Nickname != nickname {
				user.Nickname = nickname
				if err := config.Database.Save(&user).Error; err != nil {
					http.Error(w, "Failed to update user", http.StatusInternalServerError)
					logrus.WithError(err).Error("user update failed")
					return
				}
			}
		}

		// Every user needs a default deck before any workflow runs.
		if _, err := services.NewDeckService(config.Database).EnsureDefaultDeck(r.Context(), user.ID); err != nil {
			http.Error(w, "Failed to provision default deck", http.StatusInternalServerError)
			logrus.WithError(err).Error("default deck provisioning failed")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

package v1

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shenikar/incident_orchestrator/internal/config"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	actorTokenHeader = "X-Actor-Token"
	actorContextKey  = "actor"
)

// APIKeyAuthMiddleware - middleware для аутентификации по API-ключу
func APIKeyAuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			// Проверяем также заголовок Authorization: Bearer
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				apiKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if apiKey == "" {
			log.WithField("path", c.FullPath()).Warn("API key missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}

		isValid := false
		for _, key := range cfg.APIKeys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
				isValid = true
				break
			}
		}

		if !isValid {
			log.WithField("path", c.FullPath()).Warn("Invalid API key provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Next()
	}
}

// ActorClaims - утверждения токена актора: sub, kind, caps
type ActorClaims struct {
	Kind string   `json:"kind"`
	Caps []string `json:"caps,omitempty"`
	jwt.RegisteredClaims
}

// ActorMiddleware разбирает X-Actor-Token (HS256). Без заголовка запрос идет дальше без актора.
func ActorMiddleware(secret string, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(actorTokenHeader)
		if raw == "" {
			c.Next()
			return
		}

		actor, err := ParseActorToken(secret, raw)
		if err != nil {
			log.WithError(err).WithField("path", c.FullPath()).Warn("Invalid actor token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid actor token"})
			return
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ParseActorToken проверяет подпись и срок токена и возвращает актора
func ParseActorToken(secret, raw string) (models.Actor, error) {
	if secret == "" {
		return models.Actor{}, errors.New("actor token secret is not configured")
	}
	claims := &ActorClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Actor{}, fmt.Errorf("parse actor token: %w", err)
	}
	if claims.Subject == "" {
		return models.Actor{}, errors.New("actor token has no subject")
	}

	actor := models.Actor{ID: claims.Subject, Kind: models.ActorKind(claims.Kind)}
	for _, capability := range claims.Caps {
		actor.Capabilities = append(actor.Capabilities, models.Capability(capability))
	}
	return actor, nil
}

// IssueActorToken подписывает токен актора для интеграций экстренных служб
func IssueActorToken(secret string, actor models.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		Kind: string(actor.Kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	for _, capability := range actor.Capabilities {
		claims.Caps = append(claims.Caps, string(capability))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func actorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/repos"
	"github.com/virtuos/siddata-backend/internal/siddata"
)

// Identity is what a verified token resolves to: the origin that signed in
// and the origin-local id of the student the request acts for.
type Identity struct {
	OriginID  uuid.UUID
	OriginUID string
}

type JWTClaims struct {
	OriginUID string `json:"origin_uid"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// Login checks the origin's api key and issues a token scoped to one
	// origin-local user.
	Login(ctx context.Context, endpoint, apiKey, originUID string) (string, error)
	Verify(tokenString string) (*Identity, error)
	// HashAPIKey derives the stored form of an api key. Plaintext keys
	// never reach the database.
	HashAPIKey(apiKey string) (string, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	originRepo   repos.OriginRepo
	jwtSecretKey string
	tokenTTL     time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, originRepo repos.OriginRepo, jwtSecretKey string, tokenTTL time.Duration) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		originRepo:   originRepo,
		jwtSecretKey: jwtSecretKey,
		tokenTTL:     tokenTTL,
	}
}

func (as *authService) Login(ctx context.Context, endpoint, apiKey, originUID string) (string, error) {
	if originUID == "" {
		return "", fmt.Errorf("missing origin uid: %w", siddata.ErrNotFound)
	}
	origin, err := as.originRepo.GetByEndpoint(ctx, nil, endpoint)
	if err != nil {
		return "", fmt.Errorf("unknown origin %q: %w", endpoint, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(origin.APIKey), []byte(apiKey)); err != nil {
		as.log.Warn("rejected login with bad api key", "endpoint", endpoint)
		return "", fmt.Errorf("invalid api key for origin %q", endpoint)
	}
	claims := JWTClaims{
		OriginUID: originUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   origin.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) Verify(tokenString string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	originID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid origin id in token: %w", err)
	}
	if claims.OriginUID == "" {
		return nil, fmt.Errorf("token carries no origin uid")
	}
	return &Identity{OriginID: originID, OriginUID: claims.OriginUID}, nil
}

func (as *authService) HashAPIKey(apiKey string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

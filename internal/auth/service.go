package auth

import (
	"context"
	"errors"
	"time"

	"backend-yatube/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, TokenResponse, error) {
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return User{}, TokenResponse{}, errors.New("email, username, password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	user := User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1,$2,$3)
		RETURNING id, is_staff, created_at
	`, user.Username, user.Email, user.PasswordHash)
	if err := row.Scan(&user.ID, &user.IsStaff, &user.CreatedAt); err != nil {
		return User{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, user.Actor())
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, is_staff, created_at
		FROM users WHERE username = $1
	`, req.Username)

	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsStaff, &user.CreatedAt); err != nil {
		return User{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, TokenResponse{}, errors.New("invalid credentials")
	}

	tokens, err := s.GenerateTokens(ctx, user.Actor())
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (u User) Actor() Actor {
	return Actor{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

func (s *Service) GenerateTokens(ctx context.Context, actor Actor) (TokenResponse, error) {
	access, err := s.signToken(actor, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := s.signToken(actor, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, actor.ID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (Actor, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return Actor{}, err
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return Actor{}, errors.New("refresh token invalid")
	}
	return claims.actor(), nil
}

func (s *Service) ValidateAccessToken(token string) (Actor, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return Actor{}, err
	}
	return claims.actor(), nil
}

func (c *Claims) actor() Actor {
	return Actor{ID: c.UserID, Username: c.Username, IsStaff: c.IsStaff}
}

func (s *Service) signToken(actor Actor, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   actor.ID,
		Username: actor.Username,
		IsStaff:  actor.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	return parseClaims(token, s.secret)
}

func parseClaims(token string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (int64, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID int64
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return 0, time.Time{}, err
	}
	return userID, expiresAt, nil
}

package auth

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/auth/jwt"
)

// ErrInvalidDisplayName is returned when a requested display name is rejected.
var ErrInvalidDisplayName = errors.New("invalid display name")

// Service issues guest sessions. Wallet connection is simulated: every guest
// gets a made-up address.
type Service struct {
	tokens   *jwt.Manager
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewService creates the session service.
func NewService(tokens *jwt.Manager, logger zerolog.Logger) *Service {
	return &Service{
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// CreateGuest creates an ephemeral guest player and signs a session token for it.
func (s *Service) CreateGuest(ctx context.Context, req GuestRequest) (*Session, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDisplayName, err)
	}

	id := uuid.New()
	player := Player{
		ID:            id,
		DisplayName:   req.DisplayName,
		WalletAddress: walletAddress(),
	}
	if player.DisplayName == "" {
		player.DisplayName = fmt.Sprintf("Player_%03d", binary.BigEndian.Uint16(id[:2])%1000)
	}

	token, expires, err := s.tokens.GenerateSessionToken(jwt.Player{
		ID:            player.ID,
		DisplayName:   player.DisplayName,
		WalletAddress: player.WalletAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info().Str("player_id", id.String()).Msg("guest session created")

	return &Session{
		Player:      player,
		AccessToken: token,
		ExpiresAt:   expires,
	}, nil
}

// ValidateToken checks a session token.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// walletAddress fakes an EVM-style address from random uuids.
func walletAddress() string {
	hex := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return "0x" + hex[:40]
}

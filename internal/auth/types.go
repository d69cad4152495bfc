package auth

import (
	"time"

	"github.com/google/uuid"
)

// Player is a guest identity with a simulated wallet.
type Player struct {
	ID            uuid.UUID
	DisplayName   string
	WalletAddress string
}

// Session is a player plus the token that authenticates them.
type Session struct {
	Player      Player
	AccessToken string
	ExpiresAt   time.Time
}

// GuestRequest for creating a guest session.
type GuestRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,min=3,max=24,printascii"`
}

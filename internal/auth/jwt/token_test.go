package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("test-secret")})
	player := Player{ID: uuid.New(), DisplayName: "QuizNinja", WalletAddress: "0xabc"}

	token, expires, err := m.GenerateSessionToken(player)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), expires, time.Minute)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, player.ID, claims.PlayerID)
	assert.Equal(t, "QuizNinja", claims.DisplayName)
	assert.Equal(t, "0xabc", claims.WalletAddress)
	assert.Equal(t, "quiz-battle", claims.Issuer)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	a := NewManager(TokenConfig{Secret: []byte("a")})
	b := NewManager(TokenConfig{Secret: []byte("b")})

	token, _, err := a.GenerateSessionToken(Player{ID: uuid.New()})
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("s"), TTL: time.Minute})
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	token, _, err := m.GenerateSessionToken(Player{ID: uuid.New()})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

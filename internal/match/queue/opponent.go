package queue

import (
	"strings"

	"github.com/google/uuid"
)

var (
	botNames   = []string{"CryptoBot", "QuizMaster", "BrainAI", "ChainGenius", "TokenTrader"}
	humanNames = []string{"Player_842", "CryptoKing", "QuizNinja", "BlockMaster", "TokenHawk"}
)

const (
	minRating    = 1200
	ratingSpread = 500
	maxStreak    = 12
	addressHex   = 40
)

// Candidate is a generated opponent profile. Only IsBot affects play.
type Candidate struct {
	ID          string
	DisplayName string
	IsBot       bool
	Rating      int
	WinStreak   int
	Address     string
}

// GenerateOpponent makes up a bot or human-looking opponent.
func GenerateOpponent(rng Rand, isBot bool) Candidate {
	names := humanNames
	if isBot {
		names = botNames
	}
	return Candidate{
		ID:          uuid.NewString(),
		DisplayName: names[rng.Intn(len(names))],
		IsBot:       isBot,
		Rating:      minRating + rng.Intn(ratingSpread),
		WinStreak:   1 + rng.Intn(maxStreak),
		Address:     fakeAddress(rng),
	}
}

func fakeAddress(rng Rand) string {
	const digits = "0123456789abcdef"
	var b strings.Builder
	b.Grow(2 + addressHex)
	b.WriteString("0x")
	for i := 0; i < addressHex; i++ {
		b.WriteByte(digits[rng.Intn(len(digits))])
	}
	return b.String()
}

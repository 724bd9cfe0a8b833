package group

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeGenerator returns a fresh candidate invite code of length n.
type CodeGenerator func(n int) (string, error)

func randomCode(n int) (string, error) {
	var b strings.Builder

	b.Grow(n)

	size := big.NewInt(int64(len(inviteAlphabet)))

	for range n {
		i, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("reading random: %w", err)
		}

		b.WriteByte(inviteAlphabet[i.Int64()])
	}

	return b.String(), nil
}

// NormalizeInviteCode trims and upper-cases user input.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

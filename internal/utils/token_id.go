package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateTokenID generates a random identifier in the format XXXX-XXXX-XXXX,
// used as the jti of invitation tokens so individual links can be traced in logs.
func GenerateTokenID() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	hex := hex.EncodeToString(bytes)
	return fmt.Sprintf("%s-%s-%s",
		hex[0:4],
		hex[4:8],
		hex[8:12],
	), nil
}

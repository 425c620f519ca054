package artifacts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJWTSecret generates a fresh 32-byte JWT secret for the engine API and
// writes it as a bare hex string, the format both reth and lighthouse expect.
func WriteJWTSecret(path string) (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	secret := hex.EncodeToString(raw[:])

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create JWT directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(secret), 0o644); err != nil {
		return "", fmt.Errorf("failed to write JWT secret: %w", err)
	}
	return secret, nil
}

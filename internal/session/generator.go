package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// IDLength is the length of the random part in bytes
	IDLength = 32
	// IDPrefix is the prefix for session IDs
	IDPrefix = "sess"
)

var (
	timestampPattern = regexp.MustCompile(`^\d+$`)
	randomPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// GenerateID creates a new cryptographically secure session ID of the form
// sess.<unix seconds>.<base64url random>. Dots keep the parts apart since
// base64url never produces one.
func GenerateID(now time.Time) (string, error) {
	randomBytes := make([]byte, IDLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", newGenerationError(err)
	}

	randomPart := base64.RawURLEncoding.EncodeToString(randomBytes)
	return fmt.Sprintf("%s.%d.%s", IDPrefix, now.Unix(), randomPart), nil
}

// ValidateID checks if a session ID has the correct format. Only visible
// ASCII is accepted, as the MCP transport requires for the header value.
func ValidateID(sessionID string) error {
	if sessionID == "" {
		return newInvalidError("empty session ID")
	}

	parts := strings.Split(sessionID, ".")
	if len(parts) != 3 {
		return newInvalidError("invalid session ID format")
	}

	if parts[0] != IDPrefix {
		return newInvalidError("invalid session ID prefix")
	}

	if !timestampPattern.MatchString(parts[1]) {
		return newInvalidError("invalid timestamp in session ID")
	}

	randomPart := parts[2]
	if !randomPattern.MatchString(randomPart) {
		return newInvalidError("invalid characters in session ID")
	}

	if len(randomPart) < base64.RawURLEncoding.EncodedLen(IDLength) {
		return newInvalidError("session ID random part too short")
	}

	return nil
}

// IssuedAt extracts the creation time encoded in a session ID.
func IssuedAt(sessionID string) (time.Time, error) {
	if err := ValidateID(sessionID); err != nil {
		return time.Time{}, err
	}

	secs, err := strconv.ParseInt(strings.Split(sessionID, ".")[1], 10, 64)
	if err != nil {
		return time.Time{}, newInvalidError("failed to parse timestamp")
	}
	return time.Unix(secs, 0), nil
}

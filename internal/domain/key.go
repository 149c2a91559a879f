package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GroupKeyBytes is the raw key size; on the wire a key is the hex form,
// twice as long.
const GroupKeyBytes = 32

// GroupKey is the shared room secret, hex-encoded. The relay never uses
// it for anything itself, it only hands it to members.
type GroupKey string

func NewGroupKey() (GroupKey, error) {
	buf := make([]byte, GroupKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random key material: %w", err)
	}
	return GroupKey(hex.EncodeToString(buf)), nil
}

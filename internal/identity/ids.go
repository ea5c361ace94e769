package identity

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// machineIDBytes gives a 64-character hex machine id.
const machineIDBytes = 32

// NewMachineID reads 32 bytes from r and returns them as lowercase hex.
// r must be a cryptographically secure source in production.
func NewMachineID(r io.Reader) (string, error) {
	b := make([]byte, machineIDBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to generate machine id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewDeviceID returns a version-4 UUID built from r.
func NewDeviceID(r io.Reader) (string, error) {
	u, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to generate device id: %w", err)
	}
	return u.String(), nil
}

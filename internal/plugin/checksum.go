package plugin

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// ComputeChecksum computes the BLAKE3 hash of a file.
func ComputeChecksum(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyChecksum verifies the plugin entry file against the checksum
// recorded in its metadata. Metadata without a checksum passes.
func VerifyChecksum(meta *Metadata) error {
	if meta.Checksum == "" {
		return nil
	}

	actual, err := ComputeChecksum(meta.Entry)
	if err != nil {
		return fmt.Errorf("failed to compute entry checksum: %w", err)
	}

	if actual != meta.Checksum {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s",
			meta.Entry, meta.Checksum, actual)
	}

	return nil
}

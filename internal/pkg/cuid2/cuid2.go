package cuid2

import (
	crypto_rand "crypto/rand"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Base62 alphabet: 0-9, A-Z, a-z (62 characters)
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// sequence is shared by every caller in the process
var sequence atomic.Uint64

// EncodeBase62 encodes n as a fixed-width base62 string, keeping the lowest
// width digits. Output sorts lexicographically in numeric order.
func EncodeBase62(n uint64, width int) string {
	result := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		result[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(result)
}

// EncodeTimestampBase62 encodes a Unix timestamp (seconds) as a 6-character base62 string.
//
// Range: 0 to ~56 billion seconds (~1800 years from Unix epoch)
func EncodeTimestampBase62(timestampSeconds int64) string {
	if timestampSeconds < 0 {
		timestampSeconds = 0
	}
	return EncodeBase62(uint64(timestampSeconds), 6)
}

// randomID generates a base62 string using rejection sampling over crypto/rand.
//
// Uses bit extraction with rejection sampling for uniform distribution:
// - Extracts 6 bits at a time (values 0-63)
// - Rejects values >= 62 to maintain uniform distribution
func randomID(length int) (string, error) {
	// Request extra bytes to account for rejection sampling (~3% rejection rate)
	bytes := make([]byte, (length*6)/8+4)
	if _, err := crypto_rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	var result strings.Builder
	bitBuffer := uint64(0)
	bitsInBuffer := uint(0)
	byteIndex := 0

	for result.Len() < length {
		for bitsInBuffer < 6 && byteIndex < len(bytes) {
			bitBuffer = (bitBuffer << 8) | uint64(bytes[byteIndex])
			bitsInBuffer += 8
			byteIndex++
		}

		value := (bitBuffer >> (bitsInBuffer - 6)) & 0x3f
		bitsInBuffer -= 6

		if value < 62 {
			result.WriteByte(base62Alphabet[value])
		}

		if byteIndex >= len(bytes) && bitsInBuffer < 6 && result.Len() < length {
			if _, err := crypto_rand.Read(bytes); err != nil {
				return "", fmt.Errorf("failed to read random bytes: %w", err)
			}
			byteIndex = 0
			bitBuffer = 0
			bitsInBuffer = 0
		}
	}

	return result.String(), nil
}

// PrefixedIdOptions for generating prefixed IDs.
type PrefixedIdOptions struct {
	// RandomLength of random portion (default: 18).
	RandomLength int
}

// GeneratePrefixedId generates a time-sortable prefixed ID.
//
//	GeneratePrefixedId("req", PrefixedIdOptions{}) // "req_1rK5iqB3cD5eF7gH9iJ1kLmN"
func GeneratePrefixedId(prefix string, options PrefixedIdOptions) (string, error) {
	randomLength := options.RandomLength
	if randomLength <= 0 {
		randomLength = 18
	}
	random, err := randomID(randomLength)
	if err != nil {
		return "", err
	}
	return prefix + "_" + EncodeTimestampBase62(time.Now().Unix()) + random, nil
}

// OutputNameOptions tunes NewOutputName
type OutputNameOptions struct {
	// Now supplies the clock (default: time.Now)
	Now func() time.Time
	// RandomLength of the random suffix (default: 6)
	RandomLength int
}

// NewOutputName builds a collision-free file name:
// prefix + date + "_" + base62 seconds + base62 sequence + random suffix + ext.
// The process-wide sequence keeps names unique within one clock tick, the
// random suffix keeps them unique across processes.
func NewOutputName(prefix, ext string, options OutputNameOptions) (string, error) {
	now := time.Now
	if options.Now != nil {
		now = options.Now
	}
	randomLength := options.RandomLength
	if randomLength <= 0 {
		randomLength = 6
	}

	t := now()
	seq := sequence.Add(1)
	random, err := randomID(randomLength)
	if err != nil {
		return "", err
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s%s_%s%s%s%s",
		prefix,
		t.Format("20060102"),
		EncodeTimestampBase62(t.Unix()),
		EncodeBase62(seq, 4),
		random,
		ext,
	), nil
}

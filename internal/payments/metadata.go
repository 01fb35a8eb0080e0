package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cybertronic/internal/models"
)

const (
	// Stripe caps metadata values at 500 characters and a session at 50 keys.
	metadataValueLimit = 500
	maxCartChunks      = 40

	cartChunksKey = "cart_chunks"
	cartChunkKey  = "cart_%d"
	legacyCartKey = "cart"
)

var (
	ErrCartTooLarge = errors.New("cart too large for payment session metadata")
	ErrMissingCart  = errors.New("session metadata carries no cart")
)

// EncodeCart serializes cart lines into session metadata, split across as many keys as the
// provider's value limit requires.
func EncodeCart(lines []models.CartLine) (map[string]string, error) {
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("encode cart metadata: %w", err)
	}

	runes := []rune(string(raw))
	chunks := (len(runes) + metadataValueLimit - 1) / metadataValueLimit
	if chunks > maxCartChunks {
		return nil, fmt.Errorf("%w: %d characters", ErrCartTooLarge, len(runes))
	}

	meta := make(map[string]string, chunks+1)
	meta[cartChunksKey] = strconv.Itoa(chunks)
	for i := 0; i < chunks; i++ {
		end := (i + 1) * metadataValueLimit
		if end > len(runes) {
			end = len(runes)
		}
		meta[fmt.Sprintf(cartChunkKey, i)] = string(runes[i*metadataValueLimit : end])
	}
	return meta, nil
}

// DecodeCart reassembles cart lines from session metadata. A single "cart" key written by
// older storefront builds is accepted as well.
func DecodeCart(meta map[string]string) ([]models.CartLine, error) {
	var raw string
	if n, ok := meta[cartChunksKey]; ok {
		chunks, err := strconv.Atoi(n)
		if err != nil || chunks < 1 || chunks > maxCartChunks {
			return nil, fmt.Errorf("decode cart metadata: bad chunk count %q", n)
		}
		var sb strings.Builder
		for i := 0; i < chunks; i++ {
			part, ok := meta[fmt.Sprintf(cartChunkKey, i)]
			if !ok {
				return nil, fmt.Errorf("decode cart metadata: chunk %d missing", i)
			}
			sb.WriteString(part)
		}
		raw = sb.String()
	} else if legacy, ok := meta[legacyCartKey]; ok {
		raw = legacy
	} else {
		return nil, ErrMissingCart
	}

	var lines []models.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart metadata: %w", err)
	}
	return lines, nil
}

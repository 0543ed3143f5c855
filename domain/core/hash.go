package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeVocabularyHash fingerprints a fitted encoding: the category
// vocabulary per column plus any numeric parameters rendered as text.
// Map iteration order does not affect the result.
func ComputeVocabularyHash(vocab map[string][]string, params []string) Hash {
	keys := make([]string, 0, len(vocab))
	for k := range vocab {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteByte(0)
		for _, v := range vocab[key] {
			data.WriteString(v)
			data.WriteByte(0)
		}
		data.WriteByte(1)
	}
	for _, p := range params {
		data.WriteString(p)
		data.WriteByte(0)
	}

	return NewHash([]byte(data.String()))
}

package backup

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
	"strings"
)

// Alphabet omits characters that are easy to misread (I, O, 0, 1).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Hash is the stored form of one code.
type Hash [32]byte

var errInvalidCodeShape = errors.New("backup code count and length must be positive")

// Generate returns count distinct formatted codes of length characters
// and their digests for userID, in the same order.
func Generate(userID string, count, length int, randomIndex func(int) (int, error)) ([]string, []Hash, error) {
	if count <= 0 || length <= 0 {
		return nil, nil, errInvalidCodeShape
	}
	if randomIndex == nil {
		randomIndex = cryptoRandomIndex
	}

	codes := make([]string, 0, count)
	hashes := make([]Hash, 0, count)
	seen := make(map[string]struct{}, count)
	for len(codes) < count {
		raw, err := newCode(length, randomIndex)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		codes = append(codes, Format(raw))
		hashes = append(hashes, HashCode(userID, raw))
	}
	return codes, hashes, nil
}

func newCode(length int, randomIndex func(int) (int, error)) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := randomIndex(len(Alphabet))
		if err != nil {
			return "", err
		}
		b.WriteByte(Alphabet[n])
	}
	return b.String(), nil
}

// Format splits codes of 8+ characters in two halves joined by '-'.
func Format(code string) string {
	n := len(code)
	if n < 8 {
		return code
	}
	mid := n / 2
	return code[:mid] + "-" + code[mid:]
}

// Canonicalize upper-cases code and strips separators.
func Canonicalize(code string) string {
	s := strings.ToUpper(strings.TrimSpace(code))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// HashCode digests userID || 0x00 || canonical code.
func HashCode(userID, code string) Hash {
	canonical := Canonicalize(code)
	data := make([]byte, 0, len(userID)+1+len(canonical))
	data = append(data, userID...)
	data = append(data, 0)
	data = append(data, canonical...)
	return sha256.Sum256(data)
}

func cryptoRandomIndex(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

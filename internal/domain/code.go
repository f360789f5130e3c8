package domain

import (
	"fmt"
	"io"
	"time"
)

// CodeAlphabet excludes visually ambiguous glyphs (I, O, 0, 1) so staff can
// read codes back without confusion.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 4
	maxCodeAttempts = 50
)

// GenerateCode draws a 4-character pickup code from the restricted alphabet.
func GenerateCode(random io.Reader) (string, error) {
	buf := make([]byte, codeLength)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		// 256 is a multiple of 32, so the modulo stays uniform.
		code[i] = CodeAlphabet[int(b)%len(CodeAlphabet)]
	}
	return string(code), nil
}

// UniqueCode generates a code that no entry called today in this queue already
// holds, regenerating on collision up to a fixed retry cap.
func (q *Queue) UniqueCode(now time.Time, random io.Reader) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode(random)
		if err != nil {
			return "", err
		}
		if !q.CodeInUse(code, now) {
			return code, nil
		}
	}
	return "", ErrCodeGenerationExhausted
}

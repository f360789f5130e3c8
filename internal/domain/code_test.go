package domain

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
	"time"
)

func TestGenerateCodeFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode(rand.Reader)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 4 {
			t.Fatalf("code %q length = %d, want 4", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(CodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		if strings.ContainsAny(code, "IO01") {
			t.Fatalf("code %q contains an ambiguous glyph", code)
		}
	}
}

func TestUniqueCodeRetriesOnCollision(t *testing.T) {
	q := testQueue(5)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	// Byte 0 maps to 'A', byte 1 to 'B'. The first draw collides with an
	// already-assigned same-day code, the second must succeed.
	scripted := bytes.NewReader([]byte{0, 0, 0, 0, 1, 1, 1, 1})

	calledAt := now
	q.Entries = append(q.Entries, &Entry{
		ID: "e-1", Status: EntryStatusCalled, VerificationCode: "AAAA", CalledAt: &calledAt,
	})

	code, err := q.UniqueCode(now, scripted)
	if err != nil {
		t.Fatalf("unique code: %v", err)
	}
	if code != "BBBB" {
		t.Fatalf("code = %q, want BBBB after retry", code)
	}
}

func TestUniqueCodeExhaustion(t *testing.T) {
	q := testQueue(5)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	calledAt := now
	q.Entries = append(q.Entries, &Entry{
		ID: "e-1", Status: EntryStatusCalled, VerificationCode: "AAAA", CalledAt: &calledAt,
	})

	// Every draw produces the colliding code.
	allZero := bytes.NewReader(make([]byte, 4*50))
	if _, err := q.UniqueCode(now, allZero); err != ErrCodeGenerationExhausted {
		t.Fatalf("exhausted generation = %v, want ErrCodeGenerationExhausted", err)
	}
}

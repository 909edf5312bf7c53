// Package latticeid implements the Lattice ID format: a constant leading
// marker, a counter encoded in a fixed alphabet, and a client-id suffix.
//
// IDs are opaque to consumers. Only parsing, equality, and round-trip to
// string are required by callers outside this package.
package latticeid

import (
	"fmt"
	"strings"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

// marker is the constant leading byte of every Lattice ID.
const marker = "L"

// counterAlphabet is ordered so that byte-lexicographic comparison of two
// equal-length encoded counters agrees with numeric comparison. Encodings
// of different lengths do not compare numerically by their bytes alone.
const counterAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUV"

const minCounterLen = 2
const clientSuffixLen = 3

// ID is a parsed Lattice ID.
type ID struct {
	raw      string
	counter  uint64
	counterLen int
	client   string
}

// String returns the canonical wire form, identical to what Parse accepted.
func (id ID) String() string { return id.raw }

// Client returns the 3-letter client suffix that minted this ID.
func (id ID) Client() string { return id.client }

// Counter returns the decoded numeric counter value.
func (id ID) Counter() uint64 { return id.counter }

// Equal reports whether two IDs are the same document identity.
func (id ID) Equal(other ID) bool { return id.raw == other.raw }

// Parse validates and decodes a Lattice ID wire string.
//
// Format: "L" + counter (counterAlphabet, length >= 2, most significant
// digit first) + 3 uppercase letters. No separators. Case-sensitive.
func Parse(s string) (ID, error) {
	if !strings.HasPrefix(s, marker) {
		return ID{}, &latticeerr.MalformedIDError{Raw: s, Reason: fmt.Sprintf("missing leading %q marker", marker)}
	}
	rest := s[len(marker):]
	if len(rest) < minCounterLen+clientSuffixLen {
		return ID{}, &latticeerr.MalformedIDError{Raw: s, Reason: "too short"}
	}

	client := rest[len(rest)-clientSuffixLen:]
	counterPart := rest[:len(rest)-clientSuffixLen]

	if len(counterPart) < minCounterLen {
		return ID{}, &latticeerr.MalformedIDError{Raw: s, Reason: fmt.Sprintf("counter segment shorter than %d", minCounterLen)}
	}
	if !isUpperAlpha(client) {
		return ID{}, &latticeerr.MalformedIDError{Raw: s, Reason: "client suffix must be 3 uppercase letters"}
	}

	counter, err := decodeCounter(counterPart)
	if err != nil {
		return ID{}, &latticeerr.MalformedIDError{Raw: s, Reason: err.Error()}
	}

	return ID{raw: s, counter: counter, counterLen: len(counterPart), client: client}, nil
}

// MustParse panics on a malformed ID; reserved for tests and literals.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func isUpperAlpha(s string) bool {
	if len(s) != clientSuffixLen {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func decodeCounter(s string) (uint64, error) {
	var n uint64
	for _, r := range s {
		idx := strings.IndexRune(counterAlphabet, r)
		if idx < 0 {
			return 0, fmt.Errorf("invalid counter digit %q", r)
		}
		n = n*uint64(len(counterAlphabet)) + uint64(idx)
	}
	return n, nil
}

// encodeCounter renders n in counterAlphabet, left-padded with the
// alphabet's zero digit to at least minCounterLen digits.
func encodeCounter(n uint64) string {
	if n == 0 {
		return strings.Repeat(string(counterAlphabet[0]), minCounterLen)
	}
	base := uint64(len(counterAlphabet))
	var digits []byte
	for n > 0 {
		digits = append([]byte{counterAlphabet[n%base]}, digits...)
		n /= base
	}
	for len(digits) < minCounterLen {
		digits = append([]byte{counterAlphabet[0]}, digits...)
	}
	return string(digits)
}

// Mint encodes the next counter value for a client into a full Lattice ID.
// Callers are responsible for atomically reading and incrementing the
// client's counter (see internal/index's client_counters table) in the
// same transaction as the document insert that will reference the result.
func Mint(client string, nextCounter uint64) (ID, error) {
	if !isUpperAlpha(client) {
		return ID{}, fmt.Errorf("client suffix %q must be 3 uppercase letters", client)
	}
	raw := marker + encodeCounter(nextCounter) + client
	return Parse(raw)
}

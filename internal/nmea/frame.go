package nmea

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Framing errors. Both mean "drop this line and keep reading"; neither is
// fatal to the stream.
var (
	ErrMalformedFrame   = errors.New("nmea: malformed frame")
	ErrChecksumMismatch = errors.New("nmea: checksum mismatch")
)

// Frame is one checksum-validated NMEA sentence with framing stripped.
type Frame struct {
	// Talker is the constellation prefix, e.g. "GP", "GL", "GN".
	Talker string
	// Type is the trailing 3-letter sentence type, e.g. "RMC".
	Type string
	// Fields is the comma-split payload after the talker+type word.
	Fields []string
	// Raw is the trimmed original line, suitable for echo and logging.
	Raw string
}

// ParseFrame validates one raw NMEA line.
//
// The line must start with '$' (or '!'), end with '*' plus exactly two hex
// checksum digits, and the XOR of all payload bytes must match the supplied
// checksum (case-insensitive). The leading word must be a 2-3 char talker ID
// followed by a 3-letter type.
//
// Pure function of one line; no state is carried between calls.
func ParseFrame(line string) (Frame, error) {
	line = strings.TrimSpace(line)
	if line == "" || (line[0] != '$' && line[0] != '!') {
		return Frame{}, fmt.Errorf("%w: missing '$'", ErrMalformedFrame)
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return Frame{}, fmt.Errorf("%w: missing '*'", ErrMalformedFrame)
	}
	ck := line[star+1:]
	if len(ck) != 2 {
		return Frame{}, fmt.Errorf("%w: checksum must be two hex digits", ErrMalformedFrame)
	}
	want, err := hex.DecodeString(ck)
	if err != nil || len(want) != 1 {
		return Frame{}, fmt.Errorf("%w: bad checksum digits %q", ErrMalformedFrame, ck)
	}

	payload := line[1:star]
	got := byte(0)
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	if got != want[0] {
		return Frame{}, fmt.Errorf("%w: computed %02X, sentence has %02X", ErrChecksumMismatch, got, want[0])
	}

	parts := strings.Split(payload, ",")
	word := parts[0]
	// Talker (2-3 chars) + 3-letter type.
	if len(word) < 5 || len(word) > 6 {
		return Frame{}, fmt.Errorf("%w: bad type word %q", ErrMalformedFrame, word)
	}
	return Frame{
		Talker: word[:len(word)-3],
		Type:   strings.ToUpper(word[len(word)-3:]),
		Fields: parts[1:],
		Raw:    line,
	}, nil
}

// Checksum computes the NMEA XOR checksum over a sentence payload
// (everything between '$' and '*'). Exposed for test helpers and for
// synthesizing sentences.
func Checksum(payload string) byte {
	c := byte(0)
	for i := 0; i < len(payload); i++ {
		c ^= payload[i]
	}
	return c
}

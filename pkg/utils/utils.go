package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Our size constants. Powers of two!
const (
	_   = iota
	KiB = 1 << (10 * iota)
	MiB
	GiB
	TiB
	PiB
	EiB
)

var sizeSuffixes = map[string]uint64{
	"":  1,
	"b": 1,
	"k": KiB, "kb": KiB, "ki": KiB, "kib": KiB,
	"m": MiB, "mb": MiB, "mi": MiB, "mib": MiB,
	"g": GiB, "gb": GiB, "gi": GiB, "gib": GiB,
	"t": TiB, "tb": TiB, "ti": TiB, "tib": TiB,
	"p": PiB, "pb": PiB, "pi": PiB, "pib": PiB,
	"e": EiB, "eb": EiB, "ei": EiB, "eib": EiB,
}

// ParseSize converts human-readable size strings (e.g. "10M", "4GiB",
// "1.5T") to bytes. Suffixes are binary multiples.
func ParseSize(input string) (uint64, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, " ", "")
	if normalized == "" {
		return 0, fmt.Errorf("size string is empty")
	}
	if strings.HasPrefix(normalized, "-") {
		return 0, fmt.Errorf("size must be non-negative: %s", input)
	}

	// Bare numbers, including scientific notation, are plain byte counts.
	if f, err := strconv.ParseFloat(normalized, 64); err == nil {
		if f < 0 || f > float64(math.MaxUint64) {
			return 0, fmt.Errorf("size %s out of range", input)
		}
		return uint64(f), nil
	}

	idx := 0
	for idx < len(normalized) {
		c := normalized[idx]
		if (c >= '0' && c <= '9') || c == '.' {
			idx++
			continue
		}
		break
	}

	numPart, suffix := normalized[:idx], normalized[idx:]
	if numPart == "" {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", input, err)
	}

	multiplier, ok := sizeSuffixes[suffix]
	if !ok {
		return 0, fmt.Errorf("unknown size suffix %q", suffix)
	}

	product := value * float64(multiplier)
	if math.IsNaN(product) || product < 0 || product > float64(math.MaxUint64) {
		return 0, fmt.Errorf("size %s overflows uint64", input)
	}

	return uint64(product), nil
}

// DisplaySize takes a number of bytes and returns a human-readable string.
func DisplaySize(bytes uint64) string {
	switch {
	case bytes < KiB:
		return fmt.Sprintf("%d B", bytes)
	case bytes < MiB:
		return fmt.Sprintf("%.2f KiB", float64(bytes)/float64(KiB))
	case bytes < GiB:
		return fmt.Sprintf("%.2f MiB", float64(bytes)/float64(MiB))
	case bytes < TiB:
		return fmt.Sprintf("%.2f GiB", float64(bytes)/float64(GiB))
	case bytes < PiB:
		return fmt.Sprintf("%.2f TiB", float64(bytes)/float64(TiB))
	case bytes < EiB:
		return fmt.Sprintf("%.2f PiB", float64(bytes)/float64(PiB))
	default:
		return fmt.Sprintf("%.2f EiB", float64(bytes)/float64(EiB))
	}
}

// IsAlphanumeric checks if a rune is a letter or digit.
func IsAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

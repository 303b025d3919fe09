package coerce

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/gnana997/tokensync/pkg/host"
)

// ParseHex converts #RGB, #RGBA, #RRGGBB or #RRGGBBAA into a host color with
// channels in 0..1. Alpha defaults to 1.
func ParseHex(s string) (host.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return host.Color{}, fmt.Errorf("hex color %q: missing #", s)
	}
	digits := s[1:]
	for _, r := range digits {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return host.Color{}, fmt.Errorf("hex color %q: invalid digit %q", s, r)
		}
	}

	alpha := 1.0
	switch len(digits) {
	case 3, 6:
	case 4, 8:
		n := len(digits) / 4
		raw := digits[len(digits)-n:]
		if n == 1 {
			raw += raw
		}
		a, err := strconv.ParseUint(raw, 16, 8)
		if err != nil {
			return host.Color{}, fmt.Errorf("hex color %q: %w", s, err)
		}
		alpha = float64(a) / 255
		digits = digits[:len(digits)-n]
	default:
		return host.Color{}, fmt.Errorf("hex color %q: expected 3, 4, 6 or 8 digits", s)
	}

	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return host.Color{}, fmt.Errorf("hex color %q: %w", s, err)
	}
	return host.Color{R: c.R, G: c.G, B: c.B, A: alpha}, nil
}

// HexString renders a color as uppercase #RRGGBB, rounding each channel to
// the nearest 0..255 integer. Alpha is not emitted.
func HexString(c host.Color) string {
	col := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped()
	return strings.ToUpper(col.Hex())
}

// Components returns the r, g, b channels in 0..1, dropping alpha.
func Components(c host.Color) []float64 {
	return []float64{c.R, c.G, c.B}
}

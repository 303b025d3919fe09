package exporter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned for an unrecognised format selector.
var ErrUnknownFormat = errors.New("unknown export format")

// Format selects an export serializer.
type Format string

const (
	FormatSimplified Format = "simplified"
	FormatFullSpec   Format = "fullspec"
	FormatCSS        Format = "css"
	FormatTailwind   Format = "tailwind"
)

// Formats lists every supported format in display order.
func Formats() []Format {
	return []Format{FormatSimplified, FormatFullSpec, FormatCSS, FormatTailwind}
}

// ParseFormat parses a format selector, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of simplified, fullspec, css, tailwind)", ErrUnknownFormat, s)
}

// Artifact is the rendered output of one export.
type Artifact struct {
	Format    Format `json:"format"`
	FileName  string `json:"fileName"`
	MediaType string `json:"mediaType"`
	Content   []byte `json:"-"`
}

func newArtifact(f Format, typescript bool, content []byte) *Artifact {
	a := &Artifact{Format: f, Content: content}
	switch f {
	case FormatSimplified:
		a.FileName, a.MediaType = "tokens.json", "application/json"
	case FormatFullSpec:
		a.FileName, a.MediaType = "tokens.fullspec.json", "application/json"
	case FormatCSS:
		a.FileName, a.MediaType = "tokens.css", "text/css"
	case FormatTailwind:
		if typescript {
			a.FileName, a.MediaType = "tailwind.config.ts", "application/typescript"
		} else {
			a.FileName, a.MediaType = "tailwind.config.js", "text/javascript"
		}
	}
	return a
}

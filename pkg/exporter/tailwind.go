package exporter

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spf13/cast"

	"github.com/gnana997/tokensync/pkg/alias"
	"github.com/gnana997/tokensync/pkg/coerce"
	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/tokens"
)

// Tailwind theme sections, in output order.
const (
	sectionColors       = "colors"
	sectionSpacing      = "spacing"
	sectionFontSize     = "fontSize"
	sectionBorderRadius = "borderRadius"
	sectionFontFamily   = "fontFamily"
	sectionBoxShadow    = "boxShadow"
)

var sectionOrder = []string{
	sectionColors, sectionSpacing, sectionFontSize,
	sectionBorderRadius, sectionFontFamily, sectionBoxShadow,
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// floatSection routes a FLOAT variable by keywords in its name. Unmatched
// names land in spacing.
func floatSection(name string) string {
	n := strings.ToLower(name)
	switch {
	case containsAny(n, "spacing", "space", "gap", "margin", "padding"):
		return sectionSpacing
	case strings.Contains(n, "font") && strings.Contains(n, "size"):
		return sectionFontSize
	case containsAny(n, "radius", "rounded"):
		return sectionBorderRadius
	default:
		return sectionSpacing
	}
}

// stringSection routes a STRING variable; ok is false when it has no section.
func stringSection(name string) (string, bool) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "font") && containsAny(n, "family", "face"):
		return sectionFontFamily, true
	case strings.Contains(n, "shadow"):
		return sectionBoxShadow, true
	}
	return "", false
}

// renderTailwind uses the first mode of each collection only.
func (e *Exporter) renderTailwind(idx *alias.Index) ([]byte, error) {
	sections := make(map[string]*tokens.Node, len(sectionOrder))
	put := func(section, key, value string) {
		n, ok := sections[section]
		if !ok {
			n = tokens.NewGroup()
			sections[section] = n
		}
		n.Set(key, tokens.NewScalar(value))
	}

	each(idx, true, func(s slot) {
		v := s.variable
		key := tokens.Transliterate(v.Name)

		var section string
		switch v.Type {
		case host.TypeColor:
			section = sectionColors
		case host.TypeFloat:
			section = floatSection(v.Name)
		case host.TypeString:
			var ok bool
			if section, ok = stringSection(v.Name); !ok {
				return
			}
		default:
			return
		}

		if a, ok := host.AsAlias(s.raw); ok {
			put(section, key, e.encodeAlias(idx, s, a))
			return
		}
		switch val := s.raw.(type) {
		case host.Color:
			put(section, key, coerce.HexString(val))
		case float64:
			put(section, key, cast.ToString(val)+"px")
		default:
			put(section, key, cast.ToString(val))
		}
	})

	extend := tokens.NewGroup()
	for _, name := range sectionOrder {
		if n, ok := sections[name]; ok && n.Fields.Len() > 0 {
			extend.Set(name, n)
		}
	}

	body, err := json.MarshalIndent(extend, "    ", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if e.TailwindTypeScript {
		buf.WriteString("import type { Config } from 'tailwindcss'\n\n")
		buf.WriteString("const config: Partial<Config> = {\n  theme: {\n    extend: ")
		buf.Write(body)
		buf.WriteString(",\n  },\n}\n\nexport default config\n")
	} else {
		buf.WriteString("/** @type {import('tailwindcss').Config} */\n")
		buf.WriteString("module.exports = {\n  theme: {\n    extend: ")
		buf.Write(body)
		buf.WriteString(",\n  },\n};\n")
	}
	return buf.Bytes(), nil
}

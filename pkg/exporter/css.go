package exporter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/gnana997/tokensync/pkg/alias"
	"github.com/gnana997/tokensync/pkg/coerce"
	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/tokens"
)

// cssName builds the custom property name for a variable in a mode.
func cssName(collection, mode, path string) string {
	return "--" + tokens.Transliterate(collection) + "-" + tokens.Transliterate(mode) + "-" + tokens.Transliterate(path)
}

func cssQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\A `)
	return `"` + r.Replace(s) + `"`
}

// renderCSS writes one :root block per collection and mode. Aliases point at
// the target's property for the same mode name.
func (e *Exporter) renderCSS(idx *alias.Index) []byte {
	var buf bytes.Buffer
	first := true
	for _, c := range idx.Collections() {
		vars := idx.VariablesIn(c.ID)
		for _, m := range c.Modes {
			if !first {
				buf.WriteByte('\n')
			}
			first = false
			fmt.Fprintf(&buf, "/* %s / %s */\n:root {\n", c.Name, m.Name)
			for _, v := range vars {
				raw, ok := v.Values[m.ID]
				if !ok {
					continue
				}
				name := cssName(c.Name, m.Name, v.Name)
				if a, ok := host.AsAlias(raw); ok {
					target, targetColl, ok := idx.Target(a.ID)
					if !ok {
						e.encodeAlias(idx, slot{collection: c, mode: m, variable: v, raw: raw}, a)
						fmt.Fprintf(&buf, "  /* %s: %s */\n", name, alias.BrokenAlias)
						continue
					}
					fmt.Fprintf(&buf, "  %s: var(%s);\n", name, cssName(targetColl.Name, m.Name, target.Name))
					continue
				}
				fmt.Fprintf(&buf, "  %s: %s;\n", name, cssValue(raw))
			}
			buf.WriteString("}\n")
		}
	}
	return buf.Bytes()
}

func cssValue(raw host.Value) string {
	switch v := raw.(type) {
	case host.Color:
		return coerce.HexString(v)
	case string:
		return cssQuote(v)
	default:
		return cast.ToString(v)
	}
}

// Package parser checks generated JavaScript and TypeScript module text with
// tree-sitter grammars.
package parser

import (
	"path/filepath"
	"strings"
)

// Language is a grammar the checker can load.
type Language int

const (
	LanguageJavaScript Language = iota
	LanguageTypeScript
	LanguageUnknown
)

func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage picks a grammar from a file name such as tailwind.config.ts.
func DetectLanguage(fileName string) Language {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	case ".js", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

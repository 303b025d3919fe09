package parser

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// maxReported caps how many problems CheckSyntax collects.
const maxReported = 10

// Problem is one ERROR or MISSING node found in a parse tree.
type Problem struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Missing bool   `json:"missing,omitempty"`
	Kind    string `json:"kind"`
}

func (p Problem) String() string {
	if p.Missing {
		return fmt.Sprintf("%d:%d: missing %s", p.Line, p.Column, p.Kind)
	}
	return fmt.Sprintf("%d:%d: unexpected input", p.Line, p.Column)
}

// CheckSyntax parses source with the grammar chosen by fileName and returns
// the problems found, with 1-based positions.
func (m *Manager) CheckSyntax(source []byte, fileName string) ([]Problem, error) {
	lang := DetectLanguage(fileName)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", fileName)
	}
	tree, err := m.Parse(source, lang)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	var problems []Problem
	collect(root, &problems)
	return problems, nil
}

// Check is CheckSyntax reduced to an error wrapping ErrSyntax.
func (m *Manager) Check(source []byte, fileName string) error {
	problems, err := m.CheckSyntax(source, fileName)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		return nil
	}
	parts := make([]string, len(problems))
	for i, p := range problems {
		parts[i] = p.String()
	}
	return fmt.Errorf("%w in %s: %s", ErrSyntax, fileName, strings.Join(parts, "; "))
}

func collect(n *ts.Node, out *[]Problem) {
	if len(*out) >= maxReported {
		return
	}
	if n.IsError() || n.IsMissing() {
		pos := n.StartPosition()
		*out = append(*out, Problem{
			Line:    int(pos.Row) + 1,
			Column:  int(pos.Column) + 1,
			Missing: n.IsMissing(),
			Kind:    n.Kind(),
		})
		if n.IsMissing() {
			return
		}
	}
	if !n.HasError() {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			collect(child, out)
		}
	}
}

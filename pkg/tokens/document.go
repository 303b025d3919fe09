package tokens

import (
	"errors"
	"fmt"
)

// ErrNotObject is returned when a document root is not a JSON object.
var ErrNotObject = errors.New("token document root must be a JSON object")

// ErrMalformed is returned when a document is not valid JSON.
var ErrMalformed = errors.New("malformed token document")

// Document is a parsed root document: collection -> mode -> token tree.
type Document struct {
	Collections []CollectionDoc

	// Skipped lists entries ignored because they were not objects.
	Skipped []string
}

// CollectionDoc holds the declared modes of one collection, in document order.
type CollectionDoc struct {
	Name  string
	Modes []ModeDoc
}

// ModeDoc is one mode's token tree.
type ModeDoc struct {
	Name string
	Tree *Node
}

// FirstMode returns the first declared mode, which decides the variable set.
func (c CollectionDoc) FirstMode() (ModeDoc, bool) {
	if len(c.Modes) == 0 {
		return ModeDoc{}, false
	}
	return c.Modes[0], true
}

// ParseDocument decodes a root document. Non-object collections and modes are
// skipped and reported in Document.Skipped rather than rejected.
func ParseDocument(data []byte) (*Document, error) {
	root, err := ParseNode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return DocumentFromNode(root)
}

// DocumentFromNode interprets an already decoded root node.
func DocumentFromNode(root *Node) (*Document, error) {
	if !root.IsObject() {
		return nil, ErrNotObject
	}

	doc := &Document{}
	for cpair := root.Fields.Oldest(); cpair != nil; cpair = cpair.Next() {
		if IsMetadataKey(cpair.Key) {
			continue
		}
		if !cpair.Value.IsObject() {
			doc.Skipped = append(doc.Skipped, cpair.Key)
			continue
		}
		coll := CollectionDoc{Name: cpair.Key}
		for mpair := cpair.Value.Fields.Oldest(); mpair != nil; mpair = mpair.Next() {
			if IsMetadataKey(mpair.Key) {
				continue
			}
			if !mpair.Value.IsObject() {
				doc.Skipped = append(doc.Skipped, cpair.Key+"."+mpair.Key)
				continue
			}
			coll.Modes = append(coll.Modes, ModeDoc{Name: mpair.Key, Tree: mpair.Value})
		}
		doc.Collections = append(doc.Collections, coll)
	}
	return doc, nil
}

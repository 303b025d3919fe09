package host

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// encodedValue is the persisted shape of a Value.
type encodedValue struct {
	Kind   string   `json:"kind"`
	Color  *Color   `json:"color,omitempty"`
	Float  *float64 `json:"float,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
	String *string  `json:"string,omitempty"`
	Alias  string   `json:"alias,omitempty"`
}

// MarshalValue encodes a Value with an explicit kind tag.
func MarshalValue(v Value) ([]byte, error) {
	var e encodedValue
	switch t := v.(type) {
	case Color:
		e = encodedValue{Kind: "color", Color: &t}
	case float64:
		e = encodedValue{Kind: "float", Float: &t}
	case bool:
		e = encodedValue{Kind: "boolean", Bool: &t}
	case string:
		e = encodedValue{Kind: "string", String: &t}
	case Alias:
		e = encodedValue{Kind: "alias", Alias: t.ID}
	default:
		return nil, fmt.Errorf("cannot encode value of type %T", v)
	}
	return json.Marshal(e)
}

// UnmarshalValue decodes a Value written by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	var e encodedValue
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case "color":
		if e.Color != nil {
			return *e.Color, nil
		}
	case "float":
		if e.Float != nil {
			return *e.Float, nil
		}
	case "boolean":
		if e.Bool != nil {
			return *e.Bool, nil
		}
	case "string":
		if e.String != nil {
			return *e.String, nil
		}
	case "alias":
		if e.Alias != "" {
			return Alias{ID: e.Alias}, nil
		}
	}
	return nil, fmt.Errorf("malformed %q value", e.Kind)
}

type snapshotVariable struct {
	Variable
	Values map[string]json.RawMessage `json:"values"`
}

type snapshot struct {
	NextID      int                `json:"nextId"`
	Collections []*Collection      `json:"collections"`
	Variables   []snapshotVariable `json:"variables"`
}

// Save writes the store to path as JSON, creating parent directories.
func (s *MemoryStore) Save(path string) error {
	s.mu.RLock()
	snap := snapshot{NextID: s.nextID, Collections: s.collections}
	for _, v := range s.variables {
		sv := snapshotVariable{Variable: *v, Values: make(map[string]json.RawMessage, len(v.Values))}
		for modeID, val := range v.Values {
			raw, err := MarshalValue(val)
			if err != nil {
				s.mu.RUnlock()
				return fmt.Errorf("variable %q mode %q: %w", v.Name, modeID, err)
			}
			sv.Values[modeID] = raw
		}
		snap.Variables = append(snap.Variables, sv)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadMemoryStore reads a snapshot written by Save. A missing file yields an
// empty store.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewMemoryStore(), nil
	}
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", path, err)
	}

	s := &MemoryStore{nextID: snap.NextID, collections: snap.Collections}
	for _, sv := range snap.Variables {
		v := sv.Variable
		v.Values = make(map[string]Value, len(sv.Values))
		for modeID, raw := range sv.Values {
			val, err := UnmarshalValue(raw)
			if err != nil {
				return nil, fmt.Errorf("variable %q mode %q: %w", v.Name, modeID, err)
			}
			v.Values[modeID] = val
		}
		s.variables = append(s.variables, &v)
		s.bumpID(v.ID)
	}
	for _, c := range s.collections {
		s.bumpID(c.ID)
		for _, m := range c.Modes {
			s.bumpID(m.ID)
		}
	}
	return s, nil
}

// bumpID keeps nextID ahead of ids loaded from a snapshot edited by hand.
func (s *MemoryStore) bumpID(id string) {
	i := strings.LastIndexByte(id, ':')
	if i < 0 {
		return
	}
	if n, err := strconv.Atoi(id[i+1:]); err == nil && n > s.nextID {
		s.nextID = n
	}
}

package site

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
)

// ErrDuplicateIdentity means two files were given the same identity.
var ErrDuplicateIdentity = errors.New("duplicate identity")

// KeyMap takes identities to refined file names. It is the only place
// where identities are translated back to structures.
type KeyMap struct {
	names map[int]string
}

// NewKeyMap returns an empty map.
func NewKeyMap() *KeyMap { return &KeyMap{names: make(map[int]string)} }

// Add records a refined file under an identity. An identity can only be
// added once.
func (km *KeyMap) Add(identity int, fname string) error {
	if identity < 0 {
		return fmt.Errorf("negative identity %d", identity)
	}
	if old, ok := km.names[identity]; ok {
		return fmt.Errorf("%w: %d is %s and %s", ErrDuplicateIdentity, identity, old, fname)
	}
	km.names[identity] = filepath.Base(fname)
	return nil
}

// Len is the number of identities.
func (km *KeyMap) Len() int { return len(km.names) }

// Name returns the refined file name for an identity.
func (km *KeyMap) Name(identity int) (string, bool) {
	s, ok := km.names[identity]
	return s, ok
}

// Key returns the source key for an identity.
func (km *KeyMap) Key(identity int) (SourceKey, error) {
	s, ok := km.names[identity]
	if !ok {
		return SourceKey{}, fmt.Errorf("identity %d not in key map", identity)
	}
	_, k, err := ParseRefinedName(s)
	return k, err
}

// Identities in increasing order.
func (km *KeyMap) Identities() []int {
	ids := make([]int, 0, len(km.names))
	for id := range km.names {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate checks identities run from 0 without holes and that every
// file name starts with its own identity.
func (km *KeyMap) Validate() error {
	for i, id := range km.Identities() {
		if i != id {
			return fmt.Errorf("identities not contiguous, missing %d", i)
		}
		n, _, err := ParseRefinedName(km.names[id])
		if err != nil {
			return err
		}
		if n != id {
			return fmt.Errorf("identity %d has file %s", id, km.names[id])
		}
	}
	return nil
}

// MarshalJSON writes {"0": "0_1abc_GLC_401_A.pdb", ...}.
func (km *KeyMap) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(km.names))
	for id, s := range km.names {
		m[strconv.Itoa(id)] = s
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads what MarshalJSON wrote. A repeated key in the file
// is an error, not a silent overwrite.
func (km *KeyMap) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("key map is not a json object")
	}
	km.names = make(map[int]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(tok.(string))
		if err != nil {
			return fmt.Errorf("key map identity %q: %w", tok, err)
		}
		var name string
		if err := dec.Decode(&name); err != nil {
			return err
		}
		if err := km.Add(id, name); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// Save writes the map as json.
func (km *KeyMap) Save(fname string) error {
	b, err := json.MarshalIndent(km, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fname, append(b, '\n'), 0o644)
}

// LoadKeyMap reads and validates a saved map.
func LoadKeyMap(fname string) (*KeyMap, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	km := NewKeyMap()
	if err := json.Unmarshal(b, km); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	if err := km.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return km, nil
}

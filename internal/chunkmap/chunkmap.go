package chunkmap

import (
	"encoding/json"
	"fmt"
	"iter"
)

// Assets is the ordered list of files produced for one chunk.
// In JSON it may be a single string or an array of strings.
type Assets []string

// First returns the asset used for injection.
func (a Assets) First() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// UnmarshalJSON accepts "file.js" or ["file.js", "file.js.map"].
func (a *Assets) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			return fmt.Errorf("asset filename must not be empty")
		}
		*a = Assets{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("asset value must be a string or an array of strings: %s", truncate(data))
	}
	if len(list) == 0 {
		return fmt.Errorf("asset list must not be empty")
	}
	for _, f := range list {
		if f == "" {
			return fmt.Errorf("asset filename must not be empty")
		}
	}
	*a = Assets(list)
	return nil
}

// Entry is one chunk and its assets.
type Entry struct {
	Name   string
	Assets Assets
}

// Map is an insertion-ordered chunk name → assets mapping. The zero value is
// ready to use.
type Map struct {
	entries []Entry
	index   map[string]int
}

// New returns a Map populated with entries in the given order.
func New(entries ...Entry) *Map {
	m := &Map{}
	for _, e := range entries {
		m.Set(e.Name, e.Assets...)
	}
	return m
}

// Set stores assets for name. A new name is appended; an existing name keeps
// its position and has its assets replaced.
func (m *Map) Set(name string, assets ...string) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	copied := append(Assets(nil), assets...)
	if i, ok := m.index[name]; ok {
		m.entries[i].Assets = copied
		return
	}
	m.index[name] = len(m.entries)
	m.entries = append(m.entries, Entry{Name: name, Assets: copied})
}

// Add appends asset to name's list, creating the entry if needed.
func (m *Map) Add(name, asset string) {
	if i, ok := m.index[name]; ok {
		m.entries[i].Assets = append(m.entries[i].Assets, asset)
		return
	}
	m.Set(name, asset)
}

// Get returns the assets of name.
func (m *Map) Get(name string) (Assets, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.entries[i].Assets, true
}

// Len returns the number of chunks.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Names returns the chunk names in insertion order.
func (m *Map) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.entries))
	for i, e := range m.entries {
		names[i] = e.Name
	}
	return names
}

// All iterates chunks in insertion order.
func (m *Map) All() iter.Seq2[string, Assets] {
	return func(yield func(string, Assets) bool) {
		if m == nil {
			return
		}
		for _, e := range m.entries {
			if !yield(e.Name, e.Assets) {
				return
			}
		}
	}
}

// UnmarshalJSON decodes a JSON object keeping its key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	*m = Map{}
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		var assets Assets
		if err := json.Unmarshal(raw, &assets); err != nil {
			return fmt.Errorf("chunk %q: %w", key, err)
		}
		m.Set(key, assets...)
		return nil
	})
}

// MarshalJSON encodes the map as an object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	buf := []byte{'{'}
	for i, e := range m.entries {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal([]string(e.Assets))
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

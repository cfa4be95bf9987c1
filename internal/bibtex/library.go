package bibtex

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Library is the in-memory bibliography store: the ordered entry list
// plus indexes for PMID deduplication and key uniqueness.
type Library struct {
	entries []*Entry
	byPMID  map[string]*Entry
	keys    map[string]bool
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		byPMID: make(map[string]*Entry),
		keys:   make(map[string]bool),
	}
}

// Load reads a .bib file into a Library. A missing file yields an empty
// library, matching a first-ever run.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewLibrary(), nil
		}
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}

	entries, err := Parse(data)
	if err != nil {
		return nil, err
	}

	lib := NewLibrary()
	for _, e := range entries {
		if err := lib.Add(e); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return lib, nil
}

// Add appends an entry, enforcing key and PMID uniqueness.
func (l *Library) Add(e *Entry) error {
	if e.Key == "" {
		return fmt.Errorf("entry without citation key")
	}
	if l.keys[e.Key] {
		return fmt.Errorf("duplicate citation key %q", e.Key)
	}
	if pmid := e.PMID(); pmid != "" {
		if _, exists := l.byPMID[pmid]; exists {
			return fmt.Errorf("duplicate PMID %q (entry %s)", pmid, e.Key)
		}
		l.byPMID[pmid] = e
	}
	l.keys[e.Key] = true
	l.entries = append(l.entries, e)
	return nil
}

// ByPMID returns the entry holding the given PMID, or nil.
func (l *Library) ByPMID(pmid string) *Entry {
	return l.byPMID[pmid]
}

// HasKey reports whether a citation key is in use.
func (l *Library) HasKey(key string) bool {
	return l.keys[key]
}

// Entries returns the entries in store order. The slice is shared;
// callers must not reorder it.
func (l *Library) Entries() []*Entry {
	return l.entries
}

// Len returns the number of entries.
func (l *Library) Len() int {
	return len(l.entries)
}

// Serialize renders the whole library in canonical form. Entry order is
// preserved and field order is fixed, so serializing an unchanged
// library is byte-identical.
func (l *Library) Serialize() []byte {
	var b strings.Builder
	for i, e := range l.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		writeEntry(&b, e)
	}
	return []byte(b.String())
}

// writeEntry renders one entry.
func writeEntry(b *strings.Builder, e *Entry) {
	fmt.Fprintf(b, "@%s{%s,\n", e.Type, e.Key)
	for _, name := range orderedFieldNames(e) {
		fmt.Fprintf(b, "  %s = {%s},\n", name, e.Fields[name])
	}
	b.WriteString("}\n")
}

// orderedFieldNames returns the entry's field names in canonical order:
// the known fields first, then any extras alphabetically.
func orderedFieldNames(e *Entry) []string {
	known := make(map[string]bool, len(fieldOrder))
	names := make([]string, 0, len(e.Fields))

	for _, name := range fieldOrder {
		known[name] = true
		if _, ok := e.Fields[name]; ok {
			names = append(names, name)
		}
	}

	var extras []string
	for name := range e.Fields {
		if !known[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)

	return append(names, extras...)
}

// Save writes the library to path atomically: the serialized content
// goes to a temp file in the same directory, then replaces the store in
// one rename. A failed write leaves the previous store intact.
func (l *Library) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(l.Serialize()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing bibliography: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing bibliography: %w", err)
	}
	return nil
}

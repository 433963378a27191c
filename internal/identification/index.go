package identification

import "vpxmerge/internal/textutil"

// Entry maps a reference key to an opaque reference id.
type Entry struct {
	Key string
	ID  string
}

// Index is an immutable mapping from folded keys to reference ids. Iteration
// follows insertion order, which makes tie-breaks in the resolver stable.
type Index struct {
	keys   []string
	ids    []string
	lookup map[string]int
}

// NewIndex builds an index from entries. Keys are folded (lower-cased,
// whitespace collapsed); empty keys are dropped and the first id seen for a
// key wins.
func NewIndex(entries ...Entry) *Index {
	idx := &Index{lookup: make(map[string]int, len(entries))}
	idx.add(entries)
	return idx
}

func (i *Index) add(entries []Entry) {
	for _, entry := range entries {
		key := textutil.FoldKey(entry.Key)
		if key == "" {
			continue
		}
		if _, exists := i.lookup[key]; exists {
			continue
		}
		i.lookup[key] = len(i.keys)
		i.keys = append(i.keys, key)
		i.ids = append(i.ids, entry.ID)
	}
}

// With returns a new index holding the receiver's entries followed by the
// supplied ones. The receiver is left untouched.
func (i *Index) With(entries ...Entry) *Index {
	next := NewIndex(i.Entries()...)
	next.add(entries)
	return next
}

// Len returns the number of keys.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.keys)
}

// Lookup returns the id stored for key, folding key first.
func (i *Index) Lookup(key string) (string, bool) {
	if i == nil {
		return "", false
	}
	pos, ok := i.lookup[textutil.FoldKey(key)]
	if !ok {
		return "", false
	}
	return i.ids[pos], true
}

// Entries returns a copy of the index contents in insertion order.
func (i *Index) Entries() []Entry {
	if i == nil {
		return nil
	}
	out := make([]Entry, len(i.keys))
	for pos, key := range i.keys {
		out[pos] = Entry{Key: key, ID: i.ids[pos]}
	}
	return out
}

// IndexBuilder accumulates entries for a single NewIndex call.
type IndexBuilder struct {
	entries []Entry
}

// Add registers id under every non-empty key.
func (b *IndexBuilder) Add(id string, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		b.entries = append(b.entries, Entry{Key: key, ID: id})
	}
}

// AddName registers id under the folded, normalized and word-sorted forms of
// name.
func (b *IndexBuilder) AddName(id, name string) {
	b.Add(id, textutil.FoldKey(name), textutil.Normalize(name), textutil.WordSorted(name))
}

// Build returns the immutable index.
func (b *IndexBuilder) Build() *Index {
	return NewIndex(b.entries...)
}

package types

import (
	"bytes"
	"encoding/json"
)

// Annotations is an insertion-ordered set of key/value pairs
type Annotations struct {
	keys   []string
	values map[string]string
}

// Set stores value under key. Re-setting a key keeps its position.
func (a *Annotations) Set(key, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

func (a *Annotations) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

func (a *Annotations) Len() int {
	return len(a.keys)
}

// Keys returns the keys in insertion order
func (a *Annotations) Keys() []string {
	return append([]string(nil), a.keys...)
}

func (a Annotations) MarshalJSON() ([]byte, error) {
	fields := make([]jsonField, 0, len(a.keys))
	for _, k := range a.keys {
		fields = append(fields, jsonField{k, a.values[k]})
	}
	return marshalFields(fields)
}

// TestSet is an insertion-ordered set of tests keyed by title
type TestSet struct {
	order []*TestRecord
	index map[string]int
}

// Put adds the test. A test with a title already present replaces the
// earlier one in place.
func (s *TestSet) Put(t *TestRecord) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[t.Title]; ok {
		s.order[i] = t
		return
	}
	s.index[t.Title] = len(s.order)
	s.order = append(s.order, t)
}

func (s *TestSet) Get(title string) (*TestRecord, bool) {
	i, ok := s.index[title]
	if !ok {
		return nil, false
	}
	return s.order[i], true
}

func (s *TestSet) Len() int {
	return len(s.order)
}

// All returns the tests in insertion order
func (s *TestSet) All() []*TestRecord {
	return append([]*TestRecord(nil), s.order...)
}

func (s TestSet) MarshalJSON() ([]byte, error) {
	fields := make([]jsonField, 0, len(s.order))
	for _, t := range s.order {
		fields = append(fields, jsonField{t.Title, t})
	}
	return marshalFields(fields)
}

// FileRoots maps each source file to its root suite, in the order the
// roots were established
type FileRoots struct {
	files []string
	roots map[string]*SuiteRecord
}

// Put registers root for file. It reports false if file already has a root.
func (f *FileRoots) Put(file string, root *SuiteRecord) bool {
	if f.roots == nil {
		f.roots = make(map[string]*SuiteRecord)
	}
	if _, ok := f.roots[file]; ok {
		return false
	}
	f.files = append(f.files, file)
	f.roots[file] = root
	return true
}

func (f *FileRoots) Get(file string) (*SuiteRecord, bool) {
	r, ok := f.roots[file]
	return r, ok
}

func (f *FileRoots) Len() int {
	return len(f.files)
}

// Files returns the files in the order their roots were established
func (f *FileRoots) Files() []string {
	return append([]string(nil), f.files...)
}

// Roots returns the roots in file order
func (f *FileRoots) Roots() []*SuiteRecord {
	roots := make([]*SuiteRecord, 0, len(f.files))
	for _, file := range f.files {
		roots = append(roots, f.roots[file])
	}
	return roots
}

func (f FileRoots) MarshalJSON() ([]byte, error) {
	fields := make([]jsonField, 0, len(f.files))
	for _, file := range f.files {
		fields = append(fields, jsonField{file, f.roots[file]})
	}
	return marshalFields(fields)
}

type jsonField struct {
	key   string
	value any
}

// marshalFields encodes fields as a JSON object keeping their order
func marshalFields(fields []jsonField) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Package jsonstore persists users, communities and access logs as JSON
// files. Two layouts are supported: one flat document holding every
// collection (OpenFile) and one file per collection (OpenDir).
//
// Every operation re-reads the backing file, so hand edits made while the
// service runs are picked up. Files may contain comments (JSONC).
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/jsonc"
)

const (
	collectionUsers       = "users"
	collectionCommunities = "communities"
	collectionAccessLogs  = "accessLogs"
)

// layout maps a collection name onto bytes on disk.
type layout interface {
	// read decodes the collection into v and reports whether it existed.
	read(collection string, v any) (bool, error)
	// write persists every record. The single-file layout commits them in
	// one rename; the per-collection layout writes them in order.
	write(records ...record) error
	// probe checks that the backing storage is reachable.
	probe() error
}

type record struct {
	collection string
	value      any
}

// Store serializes all read-modify-write cycles behind one mutex.
type Store struct {
	mu     sync.Mutex
	layout layout
}

// OpenFile opens (creating if needed) a single-document store at path.
func OpenFile(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonstore: create dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeAtomic(path, []byte("{}\n")); err != nil {
			return nil, fmt.Errorf("jsonstore: init %s: %w", path, err)
		}
	}
	return &Store{layout: &singleFile{path: path}}, nil
}

// OpenDir opens (creating if needed) a per-collection store in dir.
func OpenDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonstore: create dir: %w", err)
	}
	return &Store{layout: &perCollection{dir: dir}}, nil
}

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Communities() *CommunityRepository { return &CommunityRepository{s: s} }
func (s *Store) AccessLogs() *AccessLogRepository { return &AccessLogRepository{s: s} }

// Ping reports whether the backing files can be read.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.probe()
}

// load must be called with s.mu held.
func (s *Store) load(collection string, v any) error {
	if _, err := s.layout.read(collection, v); err != nil {
		return fmt.Errorf("jsonstore: read %s: %w", collection, err)
	}
	return nil
}

// save must be called with s.mu held.
func (s *Store) save(collection string, v any) error {
	if err := s.layout.write(record{collection, v}); err != nil {
		return fmt.Errorf("jsonstore: write %s: %w", collection, err)
	}
	return nil
}

// saveAll must be called with s.mu held.
func (s *Store) saveAll(records ...record) error {
	if err := s.layout.write(records...); err != nil {
		return fmt.Errorf("jsonstore: write batch: %w", err)
	}
	return nil
}

type singleFile struct {
	path string
}

func (l *singleFile) document() (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	if err := decode(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (l *singleFile) read(collection string, v any) (bool, error) {
	doc, err := l.document()
	if err != nil {
		return false, err
	}
	raw, ok := doc[collection]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (l *singleFile) write(records ...record) error {
	doc, err := l.document()
	if err != nil {
		return err
	}
	for _, r := range records {
		raw, err := json.Marshal(r.value)
		if err != nil {
			return err
		}
		doc[r.collection] = raw
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(l.path, append(data, '\n'))
}

func (l *singleFile) probe() error {
	_, err := l.document()
	return err
}

type perCollection struct {
	dir string
}

var collectionFiles = map[string]string{
	collectionUsers:       "users.json",
	collectionCommunities: "communities.json",
	collectionAccessLogs:  "access_logs.json",
}

func (l *perCollection) file(collection string) string {
	return filepath.Join(l.dir, collectionFiles[collection])
}

func (l *perCollection) read(collection string, v any) (bool, error) {
	data, err := os.ReadFile(l.file(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, decode(data, v)
}

func (l *perCollection) write(records ...record) error {
	for _, r := range records {
		data, err := json.MarshalIndent(r.value, "", "  ")
		if err != nil {
			return err
		}
		if err := writeAtomic(l.file(r.collection), append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}

func (l *perCollection) probe() error {
	info, err := os.Stat(l.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", l.dir)
	}
	return nil
}

// decode accepts JSON with comments and trailing commas.
func decode(data []byte, v any) error {
	return json.Unmarshal(jsonc.ToJSON(data), v)
}

// writeAtomic replaces path via a temp file and rename so readers never see
// a partially written document.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package sheet

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and ad-hoc serving.
type MemoryStore struct {
	mu      sync.Mutex
	sheets  map[string]*Sheet
	meta    map[string]Meta
	results map[string]*UploadResult

	// FailAppendAfter, when >= 0, makes AppendRows fail after that many rows
	// have been written. Used to exercise partial-write reporting.
	FailAppendAfter int
	appendErr       error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sheets:          make(map[string]*Sheet),
		meta:            make(map[string]Meta),
		results:         make(map[string]*UploadResult),
		FailAppendAfter: -1,
	}
}

// FailAppend arms an append failure after n rows.
func (s *MemoryStore) FailAppend(n int, err error) {
	s.FailAppendAfter = n
	s.appendErr = err
}

func (s *MemoryStore) GetSheet(_ context.Context, name string) (*Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[name]
	if !ok {
		return nil, nil
	}
	cp := &Sheet{Name: sh.Name, Headers: append([]string(nil), sh.Headers...)}
	for _, r := range sh.Rows {
		cp.Rows = append(cp.Rows, append([]any(nil), r...))
	}
	return cp, nil
}

func (s *MemoryStore) CreateSheet(_ context.Context, name string) (*Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sheets[name]; !ok {
		s.sheets[name] = &Sheet{Name: name}
	}
	return &Sheet{Name: name}, nil
}

func (s *MemoryStore) SetHeaders(_ context.Context, name string, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[name]
	if !ok {
		sh = &Sheet{Name: name}
		s.sheets[name] = sh
	}
	sh.Headers = append([]string(nil), headers...)
	return nil
}

func (s *MemoryStore) AppendRows(_ context.Context, name string, rows [][]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[name]
	if !ok {
		sh = &Sheet{Name: name}
		s.sheets[name] = sh
	}
	written := 0
	for _, r := range rows {
		if s.FailAppendAfter >= 0 && written >= s.FailAppendAfter {
			return written, s.appendErr
		}
		sh.Rows = append(sh.Rows, append([]any(nil), r...))
		written++
	}
	return written, nil
}

func (s *MemoryStore) ClearRows(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh, ok := s.sheets[name]; ok {
		sh.Rows = nil
	}
	return nil
}

func (s *MemoryStore) Annotate(_ context.Context, name string, meta Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[name] = meta
	return nil
}

// MetaFor returns the last recorded annotation for a sheet.
func (s *MemoryStore) MetaFor(name string) Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta[name]
}

func (s *MemoryStore) GetResult(_ context.Context, requestID string) (*UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[requestID], nil
}

func (s *MemoryStore) PutResult(_ context.Context, requestID string, res *UploadResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *res
	s.results[requestID] = &cp
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

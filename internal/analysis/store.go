package analysis

import (
	"errors"
	"sync"
)

// ErrNotFound 报告不存在或已被淘汰
var ErrNotFound = errors.New("analysis not found")

// DefaultMaxReports 内存里最多保留的报告数
const DefaultMaxReports = 100

// Store 最近的分析报告，只在内存里，超过容量时淘汰最早的
type Store struct {
	mu         sync.Mutex
	reports    map[string]*Report
	order      []string
	maxReports int
}

func NewStore(maxReports int) *Store {
	if maxReports <= 0 {
		maxReports = DefaultMaxReports
	}
	return &Store{
		reports:    make(map[string]*Report),
		maxReports: maxReports,
	}
}

// Put 保存报告，同 ID 覆盖
func (s *Store) Put(r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.reports[r.ID] = r
	s.trim()
}

func (s *Store) Get(id string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

func (s *Store) trim() {
	for len(s.order) > s.maxReports {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
}

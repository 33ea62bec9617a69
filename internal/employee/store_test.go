package employee

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryStore mirrors the Postgres repository closely enough for service and
// handler tests: active-only reads, active-email and employee id uniqueness.
type memoryStore struct {
	mu         sync.Mutex
	rows       []Employee
	staleCount bool
	failErr    error
	inserts    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (m *memoryStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return 0, m.failErr
	}
	n := len(m.rows)
	if m.staleCount && n > 0 {
		n--
	}
	return n, nil
}

func (m *memoryStore) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.IsActive && e.ID != excludeID && strings.EqualFold(e.PersonalInfo.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Insert(_ context.Context, e Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.EmployeeID == e.EmployeeID {
			return ErrDuplicateEmployeeID
		}
		if existing.IsActive && strings.EqualFold(existing.PersonalInfo.Email, e.PersonalInfo.Email) {
			return ErrDuplicateEmail
		}
	}
	m.inserts++
	m.rows = append(m.rows, e)
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return Employee{}, m.failErr
	}
	for _, e := range m.rows {
		if e.ID == id && e.IsActive {
			return e, nil
		}
	}
	return Employee{}, ErrNotFound
}

func (m *memoryStore) Update(_ context.Context, e Employee) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == e.ID && m.rows[i].IsActive {
			e.EmployeeID = m.rows[i].EmployeeID
			e.CreatedAt = m.rows[i].CreatedAt
			e.IsActive = true
			m.rows[i] = e
			return e, nil
		}
	}
	return Employee{}, ErrNotFound
}

func (m *memoryStore) SoftDelete(_ context.Context, id string, now time.Time) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].IsActive {
			m.rows[i].IsActive = false
			m.rows[i].Employment.Status = StatusTerminated
			m.rows[i].Employment.EndDate = NewDate(now)
			m.rows[i].UpdatedAt = now
			return m.rows[i], nil
		}
	}
	return Employee{}, ErrNotFound
}

func (m *memoryStore) List(_ context.Context, q ListQuery) ([]Employee, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, 0, m.failErr
	}

	search := strings.ToLower(q.Search)
	matched := make([]Employee, 0, len(m.rows))
	for _, e := range m.rows {
		switch {
		case !e.IsActive:
			continue
		case q.Department != "" && e.Employment.Department != q.Department:
			continue
		case q.Status != "" && e.Employment.Status != q.Status:
			continue
		}
		if search != "" {
			haystack := strings.ToLower(strings.Join([]string{
				e.PersonalInfo.FirstName, e.PersonalInfo.LastName, e.PersonalInfo.Email, e.EmployeeID,
			}, "\x00"))
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if q.SortDesc {
			return matched[i].EmployeeID > matched[j].EmployeeID
		}
		return matched[i].EmployeeID < matched[j].EmployeeID
	})

	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return append([]Employee(nil), matched[start:end]...), total, nil
}

func (m *memoryStore) Managers(_ context.Context, ids []string) (map[string]ManagerRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ManagerRef, len(ids))
	for _, id := range ids {
		for _, e := range m.rows {
			if e.ID == id {
				out[id] = ManagerRef{
					ID:         e.ID,
					EmployeeID: e.EmployeeID,
					FirstName:  e.PersonalInfo.FirstName,
					LastName:   e.PersonalInfo.LastName,
					Email:      e.PersonalInfo.Email,
					Position:   e.Employment.Position,
				}
			}
		}
	}
	return out, nil
}

func (m *memoryStore) DepartmentCounts(context.Context) ([]DepartmentCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, e := range m.rows {
		if e.IsActive {
			counts[e.Employment.Department]++
		}
	}
	out := make([]DepartmentCount, 0, len(counts))
	for department, n := range counts {
		out = append(out, DepartmentCount{Department: department, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out, nil
}

func (m *memoryStore) activeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.rows {
		if e.IsActive {
			n++
		}
	}
	return n
}

type stubUploader struct {
	calls []DocumentUpload
	url   string
	err   error
}

func (s *stubUploader) Upload(_ context.Context, name, contentType string, data []byte) (string, error) {
	s.calls = append(s.calls, DocumentUpload{Name: name, ContentType: contentType, Data: data})
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

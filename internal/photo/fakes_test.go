package photo

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/staffphoto/service/internal/employee"
	"github.com/staffphoto/service/internal/storage"
)

var testURLs = storage.URLBuilder{Domain: "http://localhost:9000/photos", ProxyPath: "/api/image-proxy"}

type fakeGateway struct {
	storage.URLBuilder

	mu        sync.Mutex
	uploaded  map[string][]byte
	deleted   []string
	tokenKeys []string
	uploadErr error
	deleteErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{URLBuilder: testURLs, uploaded: map[string][]byte{}}
}

func (g *fakeGateway) IssueUploadToken(_ context.Context, key string) (*storage.UploadToken, error) {
	if key == "" {
		return nil, storage.ErrKeyRequired
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokenKeys = append(g.tokenKeys, key)
	return &storage.UploadToken{Key: key, Token: "tok-" + key, Method: "POST", URL: "http://localhost:9000/photos"}, nil
}

func (g *fakeGateway) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, key)
	if g.deleteErr != nil {
		return g.deleteErr
	}
	delete(g.uploaded, key)
	return nil
}

func (g *fakeGateway) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if g.uploadErr != nil {
		return g.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploaded[key] = b
	return nil
}

// memStore keeps employees and photos in memory with the same semantics as the SQL repositories.
type memStore struct {
	mu        sync.Mutex
	employees map[string]*employee.Employee // by employee number
	photos    map[string]*Photo
	clock     time.Time

	upsertErr error
	createErr error
	listErr   error
}

func newMemStore() *memStore {
	return &memStore{
		employees: map[string]*employee.Employee{},
		photos:    map[string]*Photo{},
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) Upsert(_ context.Context, in employee.UpsertInput) (*employee.Employee, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.employees[in.EmployeeID]
	if !ok {
		e = &employee.Employee{ID: uuid.NewString(), EmployeeID: in.EmployeeID, CreatedAt: m.tick()}
		m.employees[in.EmployeeID] = e
	}
	e.Name, e.Phone, e.Department = in.Name, in.Phone, in.Department
	cp := *e
	return &cp, nil
}

func (m *memStore) employeeByID(id string) *employee.Employee {
	for _, e := range m.employees {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (m *memStore) Create(_ context.Context, in CreateInput) (*Photo, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.employeeByID(in.EmployeeID) == nil {
		return nil, ErrEmployeeNotFound
	}
	for _, p := range m.photos {
		if p.Key == in.Key {
			return nil, ErrAlreadyRecorded
		}
	}
	p := &Photo{ID: uuid.NewString(), URL: in.URL, Key: in.Key, EmployeeID: in.EmployeeID, Status: in.Status, CreatedAt: m.tick()}
	m.photos[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memStore) matching(f Filter) []Photo {
	var out []Photo
	for _, p := range m.photos {
		e := m.employeeByID(p.EmployeeID)
		if f.Search != "" && !strings.Contains(e.Name, f.Search) && !strings.Contains(e.EmployeeID, f.Search) {
			continue
		}
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		cp := *p
		ce := *e
		cp.Employee = &ce
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) List(_ context.Context, page, pageSize int, f Filter) ([]Photo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.matching(f)
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []Photo{}, nil
	}
	end := min(start+pageSize, len(all))
	return all[start:end], nil
}

func (m *memStore) Count(_ context.Context, f Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(f)), nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[id]; !ok {
		return ErrNotFound
	}
	delete(m.photos, id)
	return nil
}

// passthroughTx runs fn directly and records how many transactions were opened.
type passthroughTx struct {
	calls int
}

func (t *passthroughTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	t.calls++
	return fn(ctx)
}

var errBoom = errors.New("boom")

var testSettings = Settings{Departments: []string{"北京", "杭州", "广州"}, MaxUploadBytes: 10 << 20}

func newTestService() (*Service, *memStore, *fakeGateway, *passthroughTx) {
	store := newMemStore()
	gw := newFakeGateway()
	tx := &passthroughTx{}
	svc := NewService(store, store, gw, tx, testSettings)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store, gw, tx
}

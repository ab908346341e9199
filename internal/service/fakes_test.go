package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/queue"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
	"github.com/iliyamo/returns-desk/internal/shipstation"
	"github.com/iliyamo/returns-desk/internal/storage"
)

var testLog = log.New("test")

func biz(id uint64) *uint64 { return &id }

func str(s string) *string { return &s }

func superAdmin() rbac.Principal {
	return rbac.Principal{UserID: 1, Role: rbac.SuperAdmin, Username: "ops"}
}

func businessAdmin(businessID uint64) rbac.Principal {
	return rbac.Principal{UserID: 10 + businessID, Role: rbac.BusinessAdmin, Username: "admin", BusinessID: biz(businessID)}
}

func businessUser(businessID uint64) rbac.Principal {
	return rbac.Principal{UserID: 100 + businessID, Role: rbac.User, Username: "clerk", BusinessID: biz(businessID)}
}

// ---- sheets ----

type fakeSheets struct {
	mu     sync.Mutex
	rows   map[uint64]model.Sheet
	nextID uint64
}

func newFakeSheets() *fakeSheets { return &fakeSheets{rows: map[uint64]model.Sheet{}} }

func (f *fakeSheets) Create(_ context.Context, s *model.Sheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSheets) GetByID(_ context.Context, id uint64) (*model.Sheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSheets) GetByIDAndBusiness(ctx context.Context, id, businessID uint64) (*model.Sheet, error) {
	s, err := f.GetByID(ctx, id)
	if err != nil || s.BusinessID != businessID {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeSheets) List(_ context.Context, q repository.SheetQuery) ([]model.Sheet, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Sheet
	for _, s := range f.rows {
		if s.BusinessID == q.BusinessID && (q.Search == "" || strings.Contains(s.OrderNo, q.Search)) {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSheets) UpdateWith(_ context.Context, id, businessID uint64, mutate repository.Mutator) (*model.Sheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok || s.BusinessID != businessID {
		return nil, repository.ErrNotFound
	}
	if _, err := mutate(&s); err != nil {
		return nil, err
	}
	f.rows[id] = s
	return &s, nil
}

func (f *fakeSheets) Delete(_ context.Context, id, businessID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[id]; ok && s.BusinessID == businessID {
		delete(f.rows, id)
		return 1, nil
	}
	return 0, nil
}

// ---- enquiries ----

type fakeEnquiries struct {
	mu       sync.Mutex
	rows     map[uint64]model.Enquiry
	messages map[uint64][]model.EnquiryMessage
	nextID   uint64
	nextMsg  uint64
	// hideFromPrecheck simulates a concurrent insert the pre-check missed.
	hideFromPrecheck bool
	lastQuery        repository.EnquiryQuery
}

func newFakeEnquiries() *fakeEnquiries {
	return &fakeEnquiries{rows: map[uint64]model.Enquiry{}, messages: map[uint64][]model.EnquiryMessage{}}
}

func (f *fakeEnquiries) find(businessID uint64, order string) (*model.Enquiry, bool) {
	for _, e := range f.rows {
		if e.BusinessID == businessID && e.OrderNumber == order {
			return &e, true
		}
	}
	return nil, false
}

func (f *fakeEnquiries) FindByOrder(_ context.Context, businessID uint64, order string) (*model.Enquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hideFromPrecheck {
		f.hideFromPrecheck = false
		return nil, repository.ErrNotFound
	}
	if e, ok := f.find(businessID, order); ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEnquiries) Create(_ context.Context, e *model.Enquiry, first *model.EnquiryMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.find(e.BusinessID, e.OrderNumber); ok {
		return repository.ErrConflict
	}
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	f.rows[e.ID] = *e
	if first != nil {
		f.nextMsg++
		first.ID = f.nextMsg
		first.EnquiryID = e.ID
		f.messages[e.ID] = append(f.messages[e.ID], *first)
	}
	return nil
}

func (f *fakeEnquiries) GetByID(_ context.Context, id uint64) (*model.Enquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (f *fakeEnquiries) Messages(_ context.Context, id uint64) ([]model.EnquiryMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.EnquiryMessage{}, f.messages[id]...), nil
}

func (f *fakeEnquiries) AddMessage(_ context.Context, m *model.EnquiryMessage, status model.EnquiryStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[m.EnquiryID]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	f.rows[e.ID] = e
	f.nextMsg++
	m.ID = f.nextMsg
	f.messages[e.ID] = append(f.messages[e.ID], *m)
	return nil
}

func (f *fakeEnquiries) UpdateStatus(_ context.Context, id uint64, status model.EnquiryStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	f.rows[id] = e
	return nil
}

func (f *fakeEnquiries) List(_ context.Context, q repository.EnquiryQuery) (*repository.EnquiryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	page := &repository.EnquiryPage{Items: []model.Enquiry{}, StatusCounts: map[string]int64{}, PlatformCounts: map[string]int64{}}
	for _, e := range f.rows {
		if q.BusinessID != nil && e.BusinessID != *q.BusinessID {
			continue
		}
		page.Items = append(page.Items, e)
	}
	page.Total = int64(len(page.Items))
	return page, nil
}

// ---- notifications ----

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, *n)
	return nil
}

func (r *recordingNotifier) last() model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

type recordingEvents struct {
	mu     sync.Mutex
	events []queue.EnquiryEvent
	err    error
}

func (r *recordingEvents) PublishEnquiryEvent(_ context.Context, ev queue.EnquiryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

// ---- blobs ----

type memBlobs struct {
	mu    sync.Mutex
	files map[string][]byte
	// failPut makes Put fail for paths containing the substring.
	failPut string
}

func newMemBlobs() *memBlobs { return &memBlobs{files: map[string][]byte{}} }

func (m *memBlobs) Put(_ context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != "" && strings.Contains(p, m.failPut) {
		return errors.New("sftp down")
	}
	m.files[p] = data
	return nil
}

func (m *memBlobs) Get(_ context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[p]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return b, nil
}

func (m *memBlobs) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[p]; !ok {
		return storage.ErrNotExist
	}
	delete(m.files, p)
	return nil
}

func upload(name, body string) Upload {
	return Upload{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

// ---- attachments ----

type fakeAttachments struct {
	mu     sync.Mutex
	rows   map[uint64]model.Attachment
	nextID uint64
	err    error
}

func newFakeAttachments() *fakeAttachments { return &fakeAttachments{rows: map[uint64]model.Attachment{}} }

func (f *fakeAttachments) Create(_ context.Context, a *model.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	a.ID = f.nextID
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeAttachments) GetByID(_ context.Context, id uint64) (*model.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAttachments) ListBySheet(_ context.Context, sheetID, businessID uint64) ([]model.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Attachment{}
	for _, a := range f.rows {
		if a.SheetID == sheetID && a.BusinessID == businessID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttachments) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

// ---- users / businesses ----

type fakeUsers struct {
	byID map[uint64]*model.User
	next uint64
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uint64]*model.User{}, next: 1000}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) Create(ctx context.Context, u *model.User) error {
	if _, err := f.GetByUsername(ctx, u.Username); err == nil {
		return repository.ErrConflict
	}
	f.next++
	u.ID = f.next
	c := *u
	f.byID[u.ID] = &c
	return nil
}

func (f *fakeUsers) ListByBusiness(_ context.Context, businessID *uint64) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f.byID {
		if businessID == nil || (u.BusinessID != nil && *u.BusinessID == *businessID) {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeBusinesses map[uint64]model.Business

func (f fakeBusinesses) GetByID(_ context.Context, id uint64) (*model.Business, error) {
	b, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (f fakeBusinesses) List(_ context.Context, id *uint64) ([]model.Business, error) {
	out := []model.Business{}
	for _, b := range f {
		if id == nil || b.ID == *id {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f fakeBusinesses) Create(_ context.Context, b *model.Business) error {
	for _, existing := range f {
		if existing.Name == b.Name {
			return repository.ErrConflict
		}
	}
	b.ID = uint64(len(f) + 1)
	f[b.ID] = *b
	return nil
}

// ---- labels ----

type fakeLabels struct {
	mu   sync.Mutex
	rows map[uint64]model.ShipStationLabel
	next uint64
}

func newFakeLabels() *fakeLabels { return &fakeLabels{rows: map[uint64]model.ShipStationLabel{}} }

func (f *fakeLabels) CreatePending(_ context.Context, l *model.ShipStationLabel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	l.ID = f.next
	l.Status = model.LabelPending
	f.rows[l.ID] = *l
	return nil
}

func (f *fakeLabels) MarkCreated(_ context.Context, l *model.ShipStationLabel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.Status = model.LabelCreated
	f.rows[l.ID] = *l
	return nil
}

func (f *fakeLabels) MarkFailed(_ context.Context, id uint64, orderID *int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.rows[id]
	l.Status = model.LabelFailed
	l.OrderID = orderID
	l.Error = &reason
	f.rows[id] = l
	return nil
}

func (f *fakeLabels) ListBySheet(_ context.Context, sheetID, businessID uint64) ([]model.ShipStationLabel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ShipStationLabel
	for _, l := range f.rows {
		if l.SheetID == sheetID && l.BusinessID == businessID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeCarrier struct {
	CreateOrderFunc func(ctx context.Context, req shipstation.OrderRequest) (int64, error)
	CreateLabelFunc func(ctx context.Context, req shipstation.LabelRequest) (*shipstation.Label, error)
}

func (f *fakeCarrier) CreateOrder(ctx context.Context, req shipstation.OrderRequest) (int64, error) {
	return f.CreateOrderFunc(ctx, req)
}

func (f *fakeCarrier) CreateLabel(ctx context.Context, req shipstation.LabelRequest) (*shipstation.Label, error) {
	return f.CreateLabelFunc(ctx, req)
}

// ---- credentials ----

type memCredentials struct {
	rows map[uint64]model.BackMarketCredentials
}

func (m *memCredentials) Get(_ context.Context, businessID uint64) (*model.BackMarketCredentials, error) {
	c, ok := m.rows[businessID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memCredentials) Upsert(_ context.Context, c *model.BackMarketCredentials) error {
	c.UpdatedAt = time.Now()
	m.rows[c.BusinessID] = *c
	return nil
}

func (m *memCredentials) Delete(_ context.Context, businessID uint64) error {
	if _, ok := m.rows[businessID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, businessID)
	return nil
}

type fakeOrders struct {
	GetOrderFunc func(ctx context.Context, key, secret, orderID string) (json.RawMessage, error)
}

func (f *fakeOrders) GetOrder(ctx context.Context, key, secret, orderID string) (json.RawMessage, error) {
	return f.GetOrderFunc(ctx, key, secret, orderID)
}

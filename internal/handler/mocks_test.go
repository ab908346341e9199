package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
	"github.com/iliyamo/returns-desk/internal/service"
)

type mockAuth struct {
	LoginFunc      func(ctx context.Context, username, password string) (*service.LoginResult, error)
	MeFunc         func(ctx context.Context, p rbac.Principal) (*service.UserView, error)
	CreateUserFunc func(ctx context.Context, p rbac.Principal, in service.NewUserInput) (*service.UserView, error)
	ListUsersFunc  func(ctx context.Context, p rbac.Principal) ([]service.UserView, error)
}

func (m *mockAuth) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	return m.LoginFunc(ctx, username, password)
}

func (m *mockAuth) Me(ctx context.Context, p rbac.Principal) (*service.UserView, error) {
	return m.MeFunc(ctx, p)
}

func (m *mockAuth) CreateUser(ctx context.Context, p rbac.Principal, in service.NewUserInput) (*service.UserView, error) {
	return m.CreateUserFunc(ctx, p, in)
}

func (m *mockAuth) ListUsers(ctx context.Context, p rbac.Principal) ([]service.UserView, error) {
	return m.ListUsersFunc(ctx, p)
}

type mockSheets struct {
	ListFunc   func(ctx context.Context, p rbac.Principal, businessID uint64, page, pageSize int, search string) (*service.SheetPage, error)
	CreateFunc func(ctx context.Context, p rbac.Principal, businessID uint64, in model.SheetPatch) (*model.Sheet, error)
	UpdateFunc func(ctx context.Context, p rbac.Principal, businessID, id uint64, in model.SheetPatch) (*model.Sheet, error)
	DeleteFunc func(ctx context.Context, p rbac.Principal, businessID, id uint64) error
}

func (m *mockSheets) List(ctx context.Context, p rbac.Principal, businessID uint64, page, pageSize int, search string) (*service.SheetPage, error) {
	return m.ListFunc(ctx, p, businessID, page, pageSize, search)
}

func (m *mockSheets) Create(ctx context.Context, p rbac.Principal, businessID uint64, in model.SheetPatch) (*model.Sheet, error) {
	return m.CreateFunc(ctx, p, businessID, in)
}

func (m *mockSheets) Update(ctx context.Context, p rbac.Principal, businessID, id uint64, in model.SheetPatch) (*model.Sheet, error) {
	return m.UpdateFunc(ctx, p, businessID, id, in)
}

func (m *mockSheets) Delete(ctx context.Context, p rbac.Principal, businessID, id uint64) error {
	return m.DeleteFunc(ctx, p, businessID, id)
}

type mockEnquiries struct {
	CreateFunc         func(ctx context.Context, p rbac.Principal, in service.NewEnquiryInput) (*model.Enquiry, error)
	GetFunc            func(ctx context.Context, p rbac.Principal, id uint64) (*model.EnquiryDetail, error)
	ListFunc           func(ctx context.Context, p rbac.Principal, in service.ListEnquiriesInput) (*repository.EnquiryPage, error)
	ReplyFunc          func(ctx context.Context, p rbac.Principal, id uint64, in service.ReplyInput) (*service.ReplyResult, error)
	UpdateStatusFunc   func(ctx context.Context, p rbac.Principal, id uint64, status string) (*model.Enquiry, error)
	UploadFilesFunc    func(ctx context.Context, p rbac.Principal, id uint64, files []service.Upload) (*service.UploadedFiles, error)
	OpenAttachmentFunc func(ctx context.Context, p rbac.Principal, id uint64, fileName string) (*service.StoredFile, error)
}

func (m *mockEnquiries) Create(ctx context.Context, p rbac.Principal, in service.NewEnquiryInput) (*model.Enquiry, error) {
	return m.CreateFunc(ctx, p, in)
}

func (m *mockEnquiries) Get(ctx context.Context, p rbac.Principal, id uint64) (*model.EnquiryDetail, error) {
	return m.GetFunc(ctx, p, id)
}

func (m *mockEnquiries) List(ctx context.Context, p rbac.Principal, in service.ListEnquiriesInput) (*repository.EnquiryPage, error) {
	return m.ListFunc(ctx, p, in)
}

func (m *mockEnquiries) Reply(ctx context.Context, p rbac.Principal, id uint64, in service.ReplyInput) (*service.ReplyResult, error) {
	return m.ReplyFunc(ctx, p, id, in)
}

func (m *mockEnquiries) UpdateStatus(ctx context.Context, p rbac.Principal, id uint64, status string) (*model.Enquiry, error) {
	return m.UpdateStatusFunc(ctx, p, id, status)
}

func (m *mockEnquiries) UploadFiles(ctx context.Context, p rbac.Principal, id uint64, files []service.Upload) (*service.UploadedFiles, error) {
	return m.UploadFilesFunc(ctx, p, id, files)
}

func (m *mockEnquiries) OpenAttachment(ctx context.Context, p rbac.Principal, id uint64, fileName string) (*service.StoredFile, error) {
	return m.OpenAttachmentFunc(ctx, p, id, fileName)
}

type mockNotifications struct {
	ListFunc        func(ctx context.Context, p rbac.Principal, limit int) (*service.NotificationList, error)
	SinceFunc       func(ctx context.Context, p rbac.Principal, ts time.Time, limit int) (*service.NotificationList, error)
	MarkReadFunc    func(ctx context.Context, p rbac.Principal, id uint64) error
	MarkAllReadFunc func(ctx context.Context, p rbac.Principal) (int64, error)
}

func (m *mockNotifications) List(ctx context.Context, p rbac.Principal, limit int) (*service.NotificationList, error) {
	return m.ListFunc(ctx, p, limit)
}

func (m *mockNotifications) Since(ctx context.Context, p rbac.Principal, ts time.Time, limit int) (*service.NotificationList, error) {
	return m.SinceFunc(ctx, p, ts, limit)
}

func (m *mockNotifications) MarkRead(ctx context.Context, p rbac.Principal, id uint64) error {
	return m.MarkReadFunc(ctx, p, id)
}

func (m *mockNotifications) MarkAllRead(ctx context.Context, p rbac.Principal) (int64, error) {
	return m.MarkAllReadFunc(ctx, p)
}

type mockSubscriber struct {
	enabled bool
	ch      chan model.Notification
	got     []string
}

func (m *mockSubscriber) Enabled() bool { return m.enabled }

func (m *mockSubscriber) Subscribe(_ context.Context, channels ...string) (<-chan model.Notification, error) {
	m.got = channels
	return m.ch, nil
}

type mockStats struct {
	BasicFunc    func(ctx context.Context, p rbac.Principal, businessID uint64, token string) (*service.BasicStats, error)
	AdvancedFunc func(ctx context.Context, p rbac.Principal, businessID uint64, token string) (*service.AdvancedStats, error)
}

func (m *mockStats) Basic(ctx context.Context, p rbac.Principal, businessID uint64, token string) (*service.BasicStats, error) {
	return m.BasicFunc(ctx, p, businessID, token)
}

func (m *mockStats) Advanced(ctx context.Context, p rbac.Principal, businessID uint64, token string) (*service.AdvancedStats, error) {
	return m.AdvancedFunc(ctx, p, businessID, token)
}

type mockCredentials struct {
	GetFunc         func(ctx context.Context, p rbac.Principal, businessID uint64) (*model.MaskedCredentials, error)
	PutFunc         func(ctx context.Context, p rbac.Principal, businessID uint64, in service.CredentialsInput) (*model.MaskedCredentials, error)
	DeleteFunc      func(ctx context.Context, p rbac.Principal, businessID uint64) error
	LookupOrderFunc func(ctx context.Context, p rbac.Principal, businessID uint64, orderID string) (json.RawMessage, error)
}

func (m *mockCredentials) Get(ctx context.Context, p rbac.Principal, businessID uint64) (*model.MaskedCredentials, error) {
	return m.GetFunc(ctx, p, businessID)
}

func (m *mockCredentials) Put(ctx context.Context, p rbac.Principal, businessID uint64, in service.CredentialsInput) (*model.MaskedCredentials, error) {
	return m.PutFunc(ctx, p, businessID, in)
}

func (m *mockCredentials) Delete(ctx context.Context, p rbac.Principal, businessID uint64) error {
	return m.DeleteFunc(ctx, p, businessID)
}

func (m *mockCredentials) LookupOrder(ctx context.Context, p rbac.Principal, businessID uint64, orderID string) (json.RawMessage, error) {
	return m.LookupOrderFunc(ctx, p, businessID, orderID)
}

type mockAttachments struct {
	UploadFunc      func(ctx context.Context, p rbac.Principal, sheetID uint64, files []service.Upload) (*service.AttachmentUploadResult, error)
	ListBySheetFunc func(ctx context.Context, p rbac.Principal, sheetID uint64) ([]model.Attachment, error)
	OpenFunc        func(ctx context.Context, p rbac.Principal, id uint64) (*model.Attachment, []byte, error)
	DeleteFunc      func(ctx context.Context, p rbac.Principal, id uint64) error
}

func (m *mockAttachments) Upload(ctx context.Context, p rbac.Principal, sheetID uint64, files []service.Upload) (*service.AttachmentUploadResult, error) {
	return m.UploadFunc(ctx, p, sheetID, files)
}

func (m *mockAttachments) ListBySheet(ctx context.Context, p rbac.Principal, sheetID uint64) ([]model.Attachment, error) {
	return m.ListBySheetFunc(ctx, p, sheetID)
}

func (m *mockAttachments) Open(ctx context.Context, p rbac.Principal, id uint64) (*model.Attachment, []byte, error) {
	return m.OpenFunc(ctx, p, id)
}

func (m *mockAttachments) Delete(ctx context.Context, p rbac.Principal, id uint64) error {
	return m.DeleteFunc(ctx, p, id)
}

type mockLabels struct {
	CreateFunc      func(ctx context.Context, p rbac.Principal, sheetID uint64, in service.LabelInput) (*model.ShipStationLabel, error)
	ListBySheetFunc func(ctx context.Context, p rbac.Principal, sheetID uint64) ([]model.ShipStationLabel, error)
}

func (m *mockLabels) Create(ctx context.Context, p rbac.Principal, sheetID uint64, in service.LabelInput) (*model.ShipStationLabel, error) {
	return m.CreateFunc(ctx, p, sheetID, in)
}

func (m *mockLabels) ListBySheet(ctx context.Context, p rbac.Principal, sheetID uint64) ([]model.ShipStationLabel, error) {
	return m.ListBySheetFunc(ctx, p, sheetID)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/queue"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
	"github.com/iliyamo/returns-desk/internal/storage"
)

type EnquiryStore interface {
	FindByOrder(ctx context.Context, businessID uint64, orderNumber string) (*model.Enquiry, error)
	Create(ctx context.Context, e *model.Enquiry, first *model.EnquiryMessage) error
	GetByID(ctx context.Context, id uint64) (*model.Enquiry, error)
	Messages(ctx context.Context, enquiryID uint64) ([]model.EnquiryMessage, error)
	AddMessage(ctx context.Context, m *model.EnquiryMessage, status model.EnquiryStatus) error
	UpdateStatus(ctx context.Context, id uint64, status model.EnquiryStatus) error
	List(ctx context.Context, q repository.EnquiryQuery) (*repository.EnquiryPage, error)
}

// Notifier records a notification for the other side of an enquiry.
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// EventPublisher forwards enquiry events to the broker.
type EventPublisher interface {
	PublishEnquiryEvent(ctx context.Context, ev queue.EnquiryEvent) error
}

type NewEnquiryInput struct {
	BusinessID  *uint64 `json:"business_id"`
	OrderNumber string  `json:"order_number"`
	Platform    string  `json:"platform"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
}

// ListEnquiriesInput mirrors the list query string.  Dates are
// YYYY-MM-DD; To is inclusive.
type ListEnquiriesInput struct {
	BusinessID *uint64
	Search     string
	From       string
	To         string
	Platform   string
	Status     string
	Page       int
	PageSize   int
}

// ReplyInput is a new message.  Attachments are files already uploaded
// to this enquiry; Files are uploaded as part of the reply.
type ReplyInput struct {
	Message     string
	Attachments []model.MessageAttachment
	Files       []Upload
}

type ReplyResult struct {
	Message model.EnquiryMessage `json:"message"`
	Status  model.EnquiryStatus  `json:"status"`
	Failed  []FileError          `json:"failed,omitempty"`
}

type UploadedFiles struct {
	Files  []model.MessageAttachment `json:"files"`
	Failed []FileError               `json:"failed"`
}

// StoredFile is a downloaded attachment.
type StoredFile struct {
	Name     string
	MimeType string
	Data     []byte
}

type EnquiryService struct {
	repo     EnquiryStore
	notifier Notifier
	events   EventPublisher
	blobs    storage.BlobStore
	maxBytes int64
	log      echo.Logger
	now      func() time.Time
}

func NewEnquiryService(repo EnquiryStore, notifier Notifier, events EventPublisher, blobs storage.BlobStore, maxBytes int64, logger echo.Logger) *EnquiryService {
	return &EnquiryService{
		repo: repo, notifier: notifier, events: events, blobs: blobs,
		maxBytes: maxBytes, log: logger, now: time.Now,
	}
}

// Create opens an enquiry.  A second enquiry for the same order of the
// same business is a Conflict carrying the existing id, whether caught by
// the pre-check or by the unique key on a concurrent insert.
func (s *EnquiryService) Create(ctx context.Context, p rbac.Principal, in NewEnquiryInput) (*model.Enquiry, error) {
	var businessID uint64
	switch {
	case in.BusinessID != nil:
		businessID = *in.BusinessID
	case p.IsSuperAdmin():
		return nil, Missing("business_id")
	default:
		businessID = p.OwnBusiness()
	}
	if err := scope(p, businessID); err != nil {
		return nil, err
	}

	in.OrderNumber = strings.TrimSpace(in.OrderNumber)
	in.Description = strings.TrimSpace(in.Description)
	var missing []string
	if in.OrderNumber == "" {
		missing = append(missing, "order_number")
	}
	if strings.TrimSpace(in.Platform) == "" {
		missing = append(missing, "platform")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, Missing(missing...)
	}
	platform, ok := model.ParseEnquiryPlatform(in.Platform)
	if !ok {
		return nil, Validation("platform must be amazon or backmarket")
	}
	if utf8.RuneCountInString(in.Description) > model.MaxEnquiryDescription {
		return nil, Validation("description exceeds %d characters", model.MaxEnquiryDescription)
	}
	status := model.StatusAwaitingBusiness
	if in.Status != "" {
		status = model.EnquiryStatus(in.Status)
		if !status.Valid() {
			return nil, Validation("invalid status %q", in.Status)
		}
	}

	if existing, err := s.repo.FindByOrder(ctx, businessID, in.OrderNumber); err == nil {
		return nil, enquiryConflict(existing.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	e := &model.Enquiry{
		BusinessID:  businessID,
		OrderNumber: in.OrderNumber,
		Platform:    platform,
		Description: in.Description,
		Status:      status,
		CreatedBy:   p.UserID,
	}
	desc := in.Description
	first := &model.EnquiryMessage{Message: &desc, CreatedBy: p.UserID}
	if err := s.repo.Create(ctx, e, first); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			if existing, ferr := s.repo.FindByOrder(ctx, businessID, in.OrderNumber); ferr == nil {
				return nil, enquiryConflict(existing.ID)
			}
			return nil, &Error{Kind: KindConflict, Message: "an enquiry for this order already exists"}
		}
		return nil, err
	}

	s.notifyCounterpart(ctx, p, e, model.NotifyEnquiryCreated,
		fmt.Sprintf("New enquiry for order %s", e.OrderNumber))
	s.publish(ctx, p, e, queue.EventEnquiryCreated, 0)
	return e, nil
}

func enquiryConflict(id uint64) error {
	return &Error{Kind: KindConflict, Message: "an enquiry for this order already exists", ExistingID: id}
}

// load fetches an enquiry the caller may see.  Another tenant's enquiry
// is NotFound.
func (s *EnquiryService) load(ctx context.Context, p rbac.Principal, id uint64) (*model.Enquiry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "enquiry")
	}
	if rbac.AssertBusinessScope(p, e.BusinessID) != nil {
		return nil, NotFound("enquiry")
	}
	return e, nil
}

func (s *EnquiryService) Get(ctx context.Context, p rbac.Principal, id uint64) (*model.EnquiryDetail, error) {
	e, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.EnquiryDetail{Enquiry: *e, Messages: msgs}, nil
}

// List filters enquiries visible to p.  The caller's own pending status
// sorts first: Awaiting Techezm for operations, Awaiting Business for
// businesses.
func (s *EnquiryService) List(ctx context.Context, p rbac.Principal, in ListEnquiriesInput) (*repository.EnquiryPage, error) {
	q := repository.EnquiryQuery{
		Search:   in.Search,
		Platform: in.Platform,
		Status:   strings.TrimSpace(in.Status),
		Priority: model.StatusAwaitingBusiness,
	}
	if p.IsOperations() {
		q.Priority = model.StatusAwaitingTechezm
	}
	if p.IsSuperAdmin() {
		q.BusinessID = in.BusinessID
	} else {
		if in.BusinessID != nil {
			if err := scope(p, *in.BusinessID); err != nil {
				return nil, err
			}
		}
		q.BusinessID = rbac.ScopeFilter(p)
	}
	switch strings.ToLower(q.Status) {
	case "", "all":
		q.Status = ""
	case repository.BucketActive, repository.BucketResolved:
		q.Status = strings.ToLower(q.Status)
	default:
		if !model.EnquiryStatus(q.Status).Valid() {
			return nil, Validation("invalid status filter %q", in.Status)
		}
	}
	if pl := strings.ToLower(strings.TrimSpace(in.Platform)); pl != "" && pl != "all" {
		if !model.EnquiryPlatform(pl).Valid() {
			return nil, Validation("platform must be amazon or backmarket")
		}
	}
	if in.From != "" {
		t, ok := parseDay(in.From)
		if !ok {
			return nil, Validation("from must be YYYY-MM-DD")
		}
		q.From = &t
	}
	if in.To != "" {
		t, ok := parseDay(in.To)
		if !ok {
			return nil, Validation("to must be YYYY-MM-DD")
		}
		end := t.AddDate(0, 0, 1)
		q.To = &end
	}
	q.Page, q.PageSize = normalizePage(in.Page, in.PageSize)
	return s.repo.List(ctx, q)
}

// ReplyStatus is the status an enquiry moves to when p replies: operations
// hand it back to the business, anyone else hands it to operations.  It
// applies even to resolved enquiries, reopening them.
func ReplyStatus(p rbac.Principal) model.EnquiryStatus {
	if p.IsOperations() {
		return model.StatusAwaitingBusiness
	}
	return model.StatusAwaitingTechezm
}

// Reply appends a message, uploading any files first.  Files that fail are
// reported and left out; the reply fails only if nothing remains to post.
func (s *EnquiryService) Reply(ctx context.Context, p rbac.Principal, id uint64, in ReplyInput) (*ReplyResult, error) {
	e, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Message)
	if text == "" && len(in.Attachments) == 0 && len(in.Files) == 0 {
		return nil, Validation("message or attachments required")
	}
	atts := model.MessageAttachments{}
	for _, a := range in.Attachments {
		stored, err := s.storedAttachment(ctx, e.ID, a)
		if err != nil {
			return nil, err
		}
		atts = append(atts, stored)
	}
	var failed []FileError
	if len(in.Files) > 0 {
		up := s.storeFiles(ctx, e.ID, in.Files)
		atts = append(atts, up.Files...)
		failed = up.Failed
	}
	if text == "" && len(atts) == 0 {
		return nil, Upstream("no attachment could be stored", nil)
	}

	m := &model.EnquiryMessage{EnquiryID: e.ID, Attachments: atts, CreatedBy: p.UserID}
	if text != "" {
		m.Message = &text
	}
	status := ReplyStatus(p)
	if err := s.repo.AddMessage(ctx, m, status); err != nil {
		return nil, notFoundAs(err, "enquiry")
	}
	e.Status = status

	s.notifyCounterpart(ctx, p, e, model.NotifyEnquiryReply,
		fmt.Sprintf("New reply on enquiry for order %s", e.OrderNumber))
	s.publish(ctx, p, e, queue.EventEnquiryReplied, len(atts))
	return &ReplyResult{Message: *m, Status: status, Failed: failed}, nil
}

// UpdateStatus sets any of the three statuses directly.
func (s *EnquiryService) UpdateStatus(ctx context.Context, p rbac.Principal, id uint64, status string) (*model.Enquiry, error) {
	st := model.EnquiryStatus(strings.TrimSpace(status))
	if st == "" {
		return nil, Missing("status")
	}
	if !st.Valid() {
		return nil, Validation("invalid status %q", status)
	}
	e, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, st); err != nil {
		return nil, notFoundAs(err, "enquiry")
	}
	e.Status = st
	s.notifyCounterpart(ctx, p, e, model.NotifyEnquiryStatus,
		fmt.Sprintf("Enquiry for order %s is now %s", e.OrderNumber, st))
	s.publish(ctx, p, e, queue.EventEnquiryStatus, 0)
	return e, nil
}

// UploadFiles stores files against an enquiry without posting a message.
func (s *EnquiryService) UploadFiles(ctx context.Context, p rbac.Principal, id uint64, files []Upload) (*UploadedFiles, error) {
	if len(files) == 0 {
		return nil, Missing("files")
	}
	e, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.storeFiles(ctx, e.ID, files), nil
}

func (s *EnquiryService) storeFiles(ctx context.Context, enquiryID uint64, files []Upload) *UploadedFiles {
	out := &UploadedFiles{Files: []model.MessageAttachment{}, Failed: []FileError{}}
	for _, f := range files {
		original := cleanOriginalName(f.Name)
		data, mime, err := readUpload(f, s.maxBytes)
		if err != nil {
			out.Failed = append(out.Failed, FileError{Name: original, Error: err.Error()})
			continue
		}
		name := storedName(original)
		if err := s.blobs.Put(ctx, enquiryBlobPath(enquiryID, name), data); err != nil {
			s.log.Errorf("enquiry %d: store %s: %v", enquiryID, original, err)
			out.Failed = append(out.Failed, FileError{Name: original, Error: "storage unavailable"})
			continue
		}
		out.Files = append(out.Files, model.MessageAttachment{
			FileName: name, OriginalName: original, Size: int64(len(data)), MimeType: mime,
		})
	}
	return out
}

// OpenAttachment returns a file referenced by one of the enquiry's
// messages.
func (s *EnquiryService) OpenAttachment(ctx context.Context, p rbac.Principal, id uint64, fileName string) (*StoredFile, error) {
	if !validStoredName(fileName) {
		return nil, NotFound("attachment")
	}
	if _, err := s.load(ctx, p, id); err != nil {
		return nil, err
	}
	meta := model.MessageAttachment{FileName: fileName, OriginalName: fileName, MimeType: "application/octet-stream"}
	msgs, err := s.repo.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		for _, a := range m.Attachments {
			if a.FileName == fileName {
				meta = a
			}
		}
	}
	data, err := s.blobs.Get(ctx, enquiryBlobPath(id, fileName))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, NotFound("attachment")
		}
		return nil, Upstream("attachment storage unavailable", err)
	}
	return &StoredFile{Name: meta.OriginalName, MimeType: meta.MimeType, Data: data}, nil
}

// storedAttachment resolves a reference to a file uploaded earlier for
// the enquiry.  Size and type come from the stored bytes; only the display
// name is taken from the client.
func (s *EnquiryService) storedAttachment(ctx context.Context, enquiryID uint64, a model.MessageAttachment) (model.MessageAttachment, error) {
	if !validStoredName(a.FileName) {
		return model.MessageAttachment{}, Validation("unknown attachment %q", a.FileName)
	}
	data, err := s.blobs.Get(ctx, enquiryBlobPath(enquiryID, a.FileName))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return model.MessageAttachment{}, Validation("unknown attachment %q", a.FileName)
		}
		return model.MessageAttachment{}, Upstream("attachment storage unavailable", err)
	}
	original := a.FileName
	if strings.TrimSpace(a.OriginalName) != "" {
		original = cleanOriginalName(a.OriginalName)
	}
	return model.MessageAttachment{
		FileName:     a.FileName,
		OriginalName: original,
		Size:         int64(len(data)),
		MimeType:     mimetype.Detect(data).String(),
	}, nil
}

func enquiryBlobPath(enquiryID uint64, name string) string {
	return path.Join("enquiries", fmt.Sprint(enquiryID), name)
}

// notifyCounterpart targets the business when operations act and the
// operations team otherwise.  Failures are logged; the enquiry change has
// already been committed.
func (s *EnquiryService) notifyCounterpart(ctx context.Context, p rbac.Principal, e *model.Enquiry, typ, msg string) {
	if s.notifier == nil {
		return
	}
	enquiryID := e.ID
	order := e.OrderNumber
	n := &model.Notification{Type: typ, EnquiryID: &enquiryID, OrderNumber: &order, Message: msg}
	if p.IsOperations() {
		biz := e.BusinessID
		n.Audience = model.AudienceBusiness
		n.BusinessID = &biz
		if e.CreatedBy != 0 && e.CreatedBy != p.UserID {
			creator := e.CreatedBy
			n.UserID = &creator
		}
	} else {
		n.Audience = model.AudienceOperations
		if e.BusinessName != "" {
			n.Message = msg + " (" + e.BusinessName + ")"
		}
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Errorf("enquiry %d: notification failed: %v", e.ID, err)
	}
}

func (s *EnquiryService) publish(ctx context.Context, p rbac.Principal, e *model.Enquiry, kind string, attachments int) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	err := s.events.PublishEnquiryEvent(ctx, queue.EnquiryEvent{
		Kind:          kind,
		EnquiryID:     e.ID,
		BusinessID:    e.BusinessID,
		OrderNumber:   e.OrderNumber,
		Status:        string(e.Status),
		ActorID:       p.UserID,
		ActorUsername: p.Username,
		ActorRole:     p.Role.Name(),
		Attachments:   attachments,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.log.Warnf("enquiry %d: publish %s failed: %v", e.ID, kind, err)
	}
}

func parseDay(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return t, err == nil
}

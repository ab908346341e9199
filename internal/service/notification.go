package service

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/notify"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
)

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, scope repository.NotificationScope, since *time.Time, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, scope repository.NotificationScope) (int64, error)
	MarkRead(ctx context.Context, id uint64, scope repository.NotificationScope) error
	MarkAllRead(ctx context.Context, scope repository.NotificationScope) (int64, error)
}

// Pusher delivers a stored notification to live clients.
type Pusher interface {
	Publish(ctx context.Context, n *model.Notification) error
}

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type NotificationList struct {
	Items  []model.Notification `json:"items"`
	Unread int64                `json:"unread"`
}

type NotificationService struct {
	repo NotificationStore
	push Pusher
	log  echo.Logger
}

func NewNotificationService(repo NotificationStore, push Pusher, logger echo.Logger) *NotificationService {
	return &NotificationService{repo: repo, push: push, log: logger}
}

// Notify stores n and pushes it to live clients.  Only the insert can
// fail the call; a failed push is logged because the row will still show
// up on the next poll.
func (s *NotificationService) Notify(ctx context.Context, n *model.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.push != nil {
		if err := s.push.Publish(ctx, n); err != nil {
			s.log.Warnf("notification %d: push failed: %v", n.ID, err)
		}
	}
	return nil
}

func notificationScope(p rbac.Principal) repository.NotificationScope {
	return repository.NotificationScope{All: p.IsSuperAdmin(), BusinessID: p.BusinessID, UserID: p.UserID}
}

// List returns the newest notifications visible to p.
func (s *NotificationService) List(ctx context.Context, p rbac.Principal, limit int) (*NotificationList, error) {
	return s.list(ctx, p, nil, limit)
}

// Since returns notifications created strictly after ts.
func (s *NotificationService) Since(ctx context.Context, p rbac.Principal, ts time.Time, limit int) (*NotificationList, error) {
	return s.list(ctx, p, &ts, limit)
}

func (s *NotificationService) list(ctx context.Context, p rbac.Principal, since *time.Time, limit int) (*NotificationList, error) {
	if limit < 1 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	sc := notificationScope(p)
	items, err := s.repo.List(ctx, sc, since, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, sc)
	if err != nil {
		return nil, err
	}
	return &NotificationList{Items: items, Unread: unread}, nil
}

// MarkRead reports NotFound for rows outside the caller's scope.
func (s *NotificationService) MarkRead(ctx context.Context, p rbac.Principal, id uint64) error {
	return notFoundAs(s.repo.MarkRead(ctx, id, notificationScope(p)), "notification")
}

func (s *NotificationService) MarkAllRead(ctx context.Context, p rbac.Principal) (int64, error) {
	return s.repo.MarkAllRead(ctx, notificationScope(p))
}

// StreamChannels lists the pub/sub channels p may listen on.
func StreamChannels(p rbac.Principal) []string {
	if p.IsSuperAdmin() {
		return []string{notify.AllChannels}
	}
	if p.BusinessID == nil {
		return nil
	}
	return []string{notify.BusinessChannel(*p.BusinessID)}
}

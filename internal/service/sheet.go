package service

import (
	"context"
	"strings"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
)

type SheetStore interface {
	Create(ctx context.Context, s *model.Sheet) error
	GetByID(ctx context.Context, id uint64) (*model.Sheet, error)
	GetByIDAndBusiness(ctx context.Context, id, businessID uint64) (*model.Sheet, error)
	List(ctx context.Context, q repository.SheetQuery) ([]model.Sheet, int64, error)
	UpdateWith(ctx context.Context, id, businessID uint64, mutate repository.Mutator) (*model.Sheet, error)
	Delete(ctx context.Context, id, businessID uint64) (int64, error)
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// SheetPage is one page of a business's sheets.
type SheetPage struct {
	Items    []model.Sheet `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type SheetService struct {
	repo SheetStore
}

func NewSheetService(repo SheetStore) *SheetService {
	return &SheetService{repo: repo}
}

func (s *SheetService) List(ctx context.Context, p rbac.Principal, businessID uint64, page, pageSize int, search string) (*SheetPage, error) {
	if err := scope(p, businessID); err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)
	items, total, err := s.repo.List(ctx, repository.SheetQuery{
		BusinessID: businessID, Search: search, Page: page, PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &SheetPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Create stores a new sheet for businessID.  Platform and the 30-day flag
// are always computed here; the patch type cannot carry them.
func (s *SheetService) Create(ctx context.Context, p rbac.Principal, businessID uint64, in model.SheetPatch) (*model.Sheet, error) {
	if err := scope(p, businessID); err != nil {
		return nil, err
	}
	if in.OrderNo == nil || strings.TrimSpace(*in.OrderNo) == "" {
		return nil, Missing("order_no")
	}
	if err := validateSheetPatch(in); err != nil {
		return nil, err
	}
	sh := &model.Sheet{BusinessID: businessID}
	in.Apply(sh)
	sh.ApplyDerived()
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// Update merges in onto the stored row under a row lock.  Fields absent
// from in keep their stored values; derived fields are recomputed from the
// merged record.  A sheet of another business is NotFound.
func (s *SheetService) Update(ctx context.Context, p rbac.Principal, businessID, id uint64, in model.SheetPatch) (*model.Sheet, error) {
	if err := scope(p, businessID); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, Missing("id")
	}
	if in.OrderNo != nil && strings.TrimSpace(*in.OrderNo) == "" {
		return nil, Validation("order_no cannot be empty")
	}
	if err := validateSheetPatch(in); err != nil {
		return nil, err
	}
	sh, err := s.repo.UpdateWith(ctx, id, businessID, func(cur *model.Sheet) ([]string, error) {
		cols := in.Apply(cur)
		cur.ApplyDerived()
		return append(cols, "platform", "return_within_30_days"), nil
	})
	if err != nil {
		return nil, notFoundAs(err, "sheet")
	}
	return sh, nil
}

// Delete succeeds whether or not a row matched.
func (s *SheetService) Delete(ctx context.Context, p rbac.Principal, businessID, id uint64) error {
	if err := scope(p, businessID); err != nil {
		return err
	}
	if id == 0 {
		return Missing("id")
	}
	_, err := s.repo.Delete(ctx, id, businessID)
	return err
}

// Get resolves a sheet by id alone for routes that carry no business id.
// Another tenant's sheet is reported as NotFound.
func (s *SheetService) Get(ctx context.Context, p rbac.Principal, id uint64) (*model.Sheet, error) {
	return loadSheet(ctx, s.repo, p, id)
}

type sheetGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Sheet, error)
}

func loadSheet(ctx context.Context, repo sheetGetter, p rbac.Principal, id uint64) (*model.Sheet, error) {
	sh, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "sheet")
	}
	if rbac.AssertBusinessScope(p, sh.BusinessID) != nil {
		return nil, NotFound("sheet")
	}
	return sh, nil
}

func validateSheetPatch(in model.SheetPatch) error {
	var bad []string
	if in.DateReceived != nil && !model.ValidDate(*in.DateReceived) {
		bad = append(bad, "date_received")
	}
	if in.OrderDate != nil && !model.ValidDate(*in.OrderDate) {
		bad = append(bad, "order_date")
	}
	if len(bad) > 0 {
		return Validation("invalid date in field(s): %s (want YYYY-MM-DD)", strings.Join(bad, ", "))
	}
	if in.RefundAmount != nil && in.RefundAmount.IsNegative() {
		return Validation("refund_amount cannot be negative")
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

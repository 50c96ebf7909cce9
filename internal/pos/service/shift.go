package service

import (
	"context"
	"strings"
	"time"

	"coffeeshop.com/internal/papercount"
	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/printjob"
	"coffeeshop.com/pkg/xerr"
	"github.com/shopspring/decimal"
)

type OpenShiftInput struct {
	StaffID         string          `json:"staff_id" binding:"required,max=64"`
	ShiftType       string          `json:"shift_type" binding:"max=32"`
	InitialCash     decimal.Decimal `json:"initial_cash"`
	OrderPaperCount int             `json:"order_paper_count" binding:"min=0"`
	Note            string          `json:"note" binding:"max=255"`
}

type CloseShiftInput struct {
	EndOrderPaperCount *int             `json:"end_order_paper_count"`
	EndCash            *decimal.Decimal `json:"end_cash"`
	Note               *string          `json:"note"`
}

type ShiftService struct {
	repo   domain.Repo
	notify Notifier
	fmt    *printjob.Formatter
	now    func() time.Time
}

func NewShiftService(repo domain.Repo, notify Notifier) *ShiftService {
	return &ShiftService{repo: repo, notify: notify, fmt: printjob.NewFormatter(), now: time.Now}
}

func (s *ShiftService) Get(ctx context.Context, id uint64) (*domain.Shift, error) {
	return s.repo.GetShift(ctx, id)
}

// Current staffID 为空时返回任意一个开着的班次
func (s *ShiftService) Current(ctx context.Context, staffID string) (*domain.Shift, error) {
	return s.repo.GetOpenShift(ctx, staffID)
}

// Open 同一员工同时只能有一个开着的班次
func (s *ShiftService) Open(ctx context.Context, in OpenShiftInput) (*domain.Shift, error) {
	staff := strings.TrimSpace(in.StaffID)
	if staff == "" {
		return nil, xerr.New(xerr.RequestParamsError, "staff_id is required")
	}
	if in.OrderPaperCount < 0 || in.InitialCash.IsNegative() {
		return nil, xerr.New(xerr.RequestParamsError, "order_paper_count and initial_cash must not be negative")
	}

	var shift *domain.Shift
	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		_, err := s.repo.GetOpenShift(txCtx, staff)
		if err == nil {
			return xerr.NewErrCode(xerr.ShiftAlreadyOpen)
		}
		if xerr.CodeOf(err) != xerr.RecordNotFound {
			return err
		}
		sh := &domain.Shift{
			StaffID:         staff,
			ShiftType:       strings.TrimSpace(in.ShiftType),
			StartTime:       s.now().UTC(),
			InitialCash:     in.InitialCash,
			EndCash:         decimal.Zero,
			OrderPaperCount: in.OrderPaperCount,
			Status:          domain.ShiftOpen,
			Note:            strings.TrimSpace(in.Note),
		}
		if err := s.repo.SaveShift(txCtx, sh); err != nil {
			return err
		}
		shift = sh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// Close 结束号必须大于开始号；总单数按点单本换本规则计算
func (s *ShiftService) Close(ctx context.Context, id uint64, in CloseShiftInput) (*domain.Shift, error) {
	var (
		shift  *domain.Shift
		orders []domain.Order
	)
	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		sh, err := s.repo.GetShift(txCtx, id)
		if err != nil {
			return err
		}
		if sh.Status == domain.ShiftClosed || sh.EndTime != nil {
			return xerr.NewErrCode(xerr.ShiftClosed)
		}
		if in.EndOrderPaperCount == nil {
			return xerr.New(xerr.InvalidPaperCount, "end_order_paper_count is required")
		}
		end := *in.EndOrderPaperCount
		if end <= sh.OrderPaperCount {
			return xerr.NewErrCode(xerr.InvalidPaperCount)
		}

		now := s.now().UTC()
		sh.EndTime = &now
		sh.EndOrderPaperCount = &end
		sh.TotalOrders = papercount.Calc(sh.OrderPaperCount, end)
		sh.Status = domain.ShiftClosed
		if in.EndCash != nil {
			sh.EndCash = *in.EndCash
		}
		if in.Note != nil {
			sh.Note = strings.TrimSpace(*in.Note)
		}
		if err := s.repo.SaveShift(txCtx, sh); err != nil {
			return err
		}

		done, _, err := s.repo.ListOrders(txCtx, domain.OrderFilter{ShiftID: sh.ID, Status: domain.OrderCompleted})
		if err != nil {
			return err
		}
		shift, orders = sh, done
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.Print(ctx, shiftSummary(s.fmt, shift, orders))
	return shift, nil
}

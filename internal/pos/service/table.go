package service

import (
	"context"
	"strings"

	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/pkg/xerr"
)

type TableInput struct {
	Name     string `json:"name" binding:"required,max=64"`
	Capacity int    `json:"capacity" binding:"min=0"`
}

type TableService struct {
	repo domain.Repo
}

func NewTableService(repo domain.Repo) *TableService {
	return &TableService{repo: repo}
}

func (s *TableService) List(ctx context.Context) ([]domain.Table, error) {
	return s.repo.ListTables(ctx)
}

func (s *TableService) Get(ctx context.Context, id uint64) (*domain.Table, error) {
	return s.repo.GetTable(ctx, id)
}

func (s *TableService) Create(ctx context.Context, in TableInput) (*domain.Table, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, xerr.New(xerr.RequestParamsError, "name is required")
	}
	t := &domain.Table{Name: name, Capacity: in.Capacity, Status: domain.TableAvailable}
	if err := s.repo.SaveTable(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

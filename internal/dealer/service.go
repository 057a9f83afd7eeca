package dealer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDealerDTO, salesPerson string) (*Dealer, error)
	GetByCode(ctx context.Context, dealerCode string) (*Dealer, error)
	ListBySalesPerson(ctx context.Context, salesPerson string, limit, offset int) ([]*Dealer, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Dealer, error)
}

type RepositoryAPI interface {
	Create(ctx context.Context, dealer *Dealer) error
	GetByCode(ctx context.Context, dealerCode string) (*Dealer, error)
	ListBySalesPerson(ctx context.Context, salesPerson string, limit, offset int) ([]*Dealer, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Dealer, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Register(ctx context.Context, dto RegisterDealerDTO, salesPerson string) (*Dealer, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(dto.DealerCode)
	if code == "" {
		code = generateDealerCode()
	} else {
		if _, err := s.repo.GetByCode(ctx, code); err == nil {
			return nil, ErrDealerExists
		} else if !errors.Is(err, ErrDealerNotFound) {
			return nil, err
		}
	}

	now := time.Now()
	d := &Dealer{
		DealerCode:      code,
		DealerName:      dto.DealerName,
		EntityType:      dto.EntityType,
		Area:            dto.Area,
		Phone:           dto.Phone,
		Address:         dto.Address,
		SalesPersonName: salesPerson,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		s.logger.Error("dealer registration failed", "error", err, "dealer_code", code)
		return nil, err
	}

	s.logger.Info("dealer registered", "dealer_code", code, "sales_person", salesPerson)
	return d, nil
}

func (s *Service) GetByCode(ctx context.Context, dealerCode string) (*Dealer, error) {
	return s.repo.GetByCode(ctx, dealerCode)
}

func (s *Service) ListBySalesPerson(ctx context.Context, salesPerson string, limit, offset int) ([]*Dealer, error) {
	return s.repo.ListBySalesPerson(ctx, salesPerson, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Dealer, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

// generateDealerCode yields a short, URL-safe dealer code.
func generateDealerCode() string {
	return "DLR-" + strings.ToUpper(uuid.New().String()[:8])
}

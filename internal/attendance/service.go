package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type ServiceAPI interface {
	PunchIn(ctx context.Context, username, salesPerson string, dto PunchInDTO) (*AttendanceLog, error)
	PunchOut(ctx context.Context, username string) (*AttendanceLog, error)
	List(ctx context.Context, filter ListFilterDTO) ([]*AttendanceLog, error)
}

type RepositoryAPI interface {
	Insert(ctx context.Context, log *AttendanceLog) error
	OpenForDay(ctx context.Context, username, day string) (*AttendanceLog, error)
	ClosePunch(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter ListFilterDTO) ([]*AttendanceLog, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger

	now func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// PunchIn opens the day's attendance row. Same check-then-insert guard as
// the session log: one open punch per user per day.
func (s *Service) PunchIn(ctx context.Context, username, salesPerson string, dto PunchInDTO) (*AttendanceLog, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	day := now.Format("2006-01-02")

	if _, err := s.repo.OpenForDay(ctx, username, day); err == nil {
		return nil, ErrAlreadyPunchedIn
	} else if !errors.Is(err, ErrRecordNotFound) {
		s.logger.Error("open punch lookup failed", "error", err, "user_name", username)
		return nil, err
	}

	log := &AttendanceLog{
		Username:        username,
		SalesPersonName: salesPerson,
		Day:             day,
		PunchInTime:     now,
		Latitude:        dto.Latitude,
		Longitude:       dto.Longitude,
		Location:        dto.Location,
	}
	if err := s.repo.Insert(ctx, log); err != nil {
		s.logger.Error("punch-in insert failed", "error", err, "user_name", username)
		return nil, err
	}

	s.logger.Info("punched in", "user_name", username, "day", day, "location", dto.Location)
	return log, nil
}

func (s *Service) PunchOut(ctx context.Context, username string) (*AttendanceLog, error) {
	now := s.now()
	day := now.Format("2006-01-02")

	open, err := s.repo.OpenForDay(ctx, username, day)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrNotPunchedIn
		}
		s.logger.Error("open punch lookup failed", "error", err, "user_name", username)
		return nil, err
	}

	if err := s.repo.ClosePunch(ctx, open.ID, now); err != nil {
		s.logger.Error("punch-out update failed", "error", err, "user_name", username)
		return nil, err
	}

	open.PunchOutTime = &now
	s.logger.Info("punched out", "user_name", username, "day", day)
	return open, nil
}

func (s *Service) List(ctx context.Context, filter ListFilterDTO) ([]*AttendanceLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("attendance listing failed", "error", err)
		return nil, err
	}
	return logs, nil
}

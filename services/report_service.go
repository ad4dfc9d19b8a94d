package services

import (
	"context"

	"github.com/leebenson/conform"
	"github.com/pkg/errors"
	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/db"
	"github.com/techagentng/aquawatch/models"
	"go.uber.org/zap"
)

const (
	DefaultReportReward = 10
	DefaultRecentLimit  = 10
)

type ReportService interface {
	SubmitReport(ctx context.Context, userID uint, req *models.SubmitReportRequest, image *Image) (*models.Report, error)
	GetReport(ctx context.Context, id uint) (*models.Report, error)
	ListMine(ctx context.Context, userID uint) ([]models.Report, error)
	ListRecent(ctx context.Context, limit int) ([]models.Report, error)
}

type reportService struct {
	Config     *config.Config
	store      *db.GormDB
	reportRepo db.ReportRepository
	images     ImageStore
	logger     *zap.Logger
}

func NewReportService(store *db.GormDB, images ImageStore, conf *config.Config, logger *zap.Logger) ReportService {
	return &reportService{
		Config:     conf,
		store:      store,
		reportRepo: db.NewReportRepo(store),
		images:     images,
		logger:     logger,
	}
}

func (s *reportService) reportReward() int {
	if s.Config != nil && s.Config.ReportReward > 0 {
		return s.Config.ReportReward
	}
	return DefaultReportReward
}

// SubmitReport stores the image, files the report as pending and credits the
// reporter. The report row and the reward commit together; the reporter
// hears back only once a collector claims the report.
func (s *reportService) SubmitReport(ctx context.Context, userID uint, req *models.SubmitReportRequest, image *Image) (*models.Report, error) {
	if err := conform.Strings(req); err != nil {
		return nil, errors.Wrap(err, "could not normalize report")
	}

	report := &models.Report{
		UserID:         userID,
		Location:       req.Location,
		WaterIssueType: req.WaterIssueType,
		Severity:       req.Severity,
		Description:    req.Description,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
	}
	if report.Severity == "" {
		report.Severity = models.SeverityMedium
	}

	if image != nil {
		url, err := s.images.Upload(ctx, ImageKey(userID, image.ContentType), image.ContentType, image.Data)
		if err != nil {
			s.logger.Error("image upload failed", zap.Uint("user_id", userID), zap.Error(err))
			return nil, err
		}
		report.ImageURL = url
	}

	points := s.reportReward()
	err := s.store.Transaction(ctx, func(tx *db.GormDB) error {
		if _, err := db.NewReportRepo(tx).CreateReport(ctx, report); err != nil {
			return err
		}
		_, err := db.NewRewardRepo(tx).AwardPoints(ctx, userID, models.TransactionEarnedReport, points,
			"Points earned for reporting water issue")
		return errors.WithMessage(err, "awarding report points")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("report submitted", zap.Uint("report_id", report.ID), zap.Uint("user_id", userID), zap.Int("points", points))
	return report, nil
}

func (s *reportService) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	return s.reportRepo.GetReportByID(ctx, id)
}

func (s *reportService) ListMine(ctx context.Context, userID uint) ([]models.Report, error) {
	return s.reportRepo.GetReportsByUserID(ctx, userID)
}

func (s *reportService) ListRecent(ctx context.Context, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.reportRepo.GetRecentReports(ctx, limit)
}

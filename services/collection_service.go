package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/techagentng/aquawatch/config"
	"github.com/techagentng/aquawatch/db"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	DefaultCollectReward = 20

	claimMessage = "Good news! A water conservation specialist is addressing your reported issue."
)

// CollectionService drives a report through pending -> in_progress -> resolved.
type CollectionService interface {
	ListAvailableTasks(ctx context.Context, limit int) ([]models.CollectionTask, error)
	ClaimReport(ctx context.Context, reportID, collectorID uint) (*models.Report, error)
	ResolveReport(ctx context.Context, reportID, collectorID uint, verification json.RawMessage) (*models.Report, error)
	ListCollected(ctx context.Context, collectorID uint) ([]models.CollectedIssue, error)
}

type collectionService struct {
	Config        *config.Config
	store         *db.GormDB
	reportRepo    db.ReportRepository
	notifications NotificationService
	logger        *zap.Logger
}

func NewCollectionService(store *db.GormDB, notifications NotificationService, conf *config.Config, logger *zap.Logger) CollectionService {
	return &collectionService{
		Config:        conf,
		store:         store,
		reportRepo:    db.NewReportRepo(store),
		notifications: notifications,
		logger:        logger,
	}
}

func (s *collectionService) collectReward() int {
	if s.Config != nil && s.Config.CollectReward > 0 {
		return s.Config.CollectReward
	}
	return DefaultCollectReward
}

func (s *collectionService) ListAvailableTasks(ctx context.Context, limit int) ([]models.CollectionTask, error) {
	return s.reportRepo.GetAvailableReports(ctx, limit)
}

// ClaimReport assigns a pending report to the collector and tells the
// reporter someone is on it. Only unclaimed pending reports can be claimed.
func (s *collectionService) ClaimReport(ctx context.Context, reportID, collectorID uint) (*models.Report, error) {
	err := s.store.Transaction(ctx, func(tx *db.GormDB) error {
		reports := db.NewReportRepo(tx)
		if err := reports.AssignCollector(ctx, reportID, collectorID); err != nil {
			return err
		}
		return reports.CreateCollectedIssue(ctx, &models.CollectedIssue{
			ReportID:    reportID,
			CollectorID: collectorID,
			Status:      models.ReportStatusInProgress,
		})
	})
	if err != nil {
		s.logger.Warn("claim failed",
			zap.Uint("report_id", reportID),
			zap.Uint("collector_id", collectorID),
			zap.Error(err))
		return nil, err
	}

	report, err := s.reportRepo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	notifyBestEffort(ctx, s.notifications, s.logger, report.UserID, claimMessage, models.NotificationStatusUpdate)
	return report, nil
}

// ResolveReport closes an in_progress report held by the collector and pays
// the collection reward. The status change, the ledger entry and the cached
// points move together; the congratulation notification follows on its own.
func (s *collectionService) ResolveReport(ctx context.Context, reportID, collectorID uint, verification json.RawMessage) (*models.Report, error) {
	var payload datatypes.JSON
	if len(verification) > 0 && string(verification) != "null" {
		if !json.Valid(verification) {
			return nil, errs.New("verification result must be valid JSON", errs.ErrBadRequest.Status)
		}
		payload = datatypes.JSON(verification)
	}

	points := s.collectReward()
	err := s.store.Transaction(ctx, func(tx *db.GormDB) error {
		reports := db.NewReportRepo(tx)
		if err := reports.ResolveReport(ctx, reportID, collectorID, payload); err != nil {
			return err
		}
		if err := reports.CreateCollectedIssue(ctx, &models.CollectedIssue{
			ReportID:    reportID,
			CollectorID: collectorID,
			Status:      models.ReportStatusResolved,
		}); err != nil {
			return err
		}
		_, err := db.NewRewardRepo(tx).AwardPoints(ctx, collectorID, models.TransactionEarnedCollect, points,
			"Points earned for resolving water issue")
		return errors.WithMessage(err, "awarding collection points")
	})
	if err != nil {
		s.logger.Warn("resolve failed",
			zap.Uint("report_id", reportID),
			zap.Uint("collector_id", collectorID),
			zap.Error(err))
		return nil, err
	}

	notifyBestEffort(ctx, s.notifications, s.logger, collectorID,
		fmt.Sprintf("You've earned %d points for resolving water issue!", points), models.NotificationReward)
	return s.reportRepo.GetReportByID(ctx, reportID)
}

func (s *collectionService) ListCollected(ctx context.Context, collectorID uint) ([]models.CollectedIssue, error) {
	return s.reportRepo.GetCollectedIssuesByCollector(ctx, collectorID)
}

package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultTaskLimit = 20

type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) (*models.Report, error)
	GetReportByID(ctx context.Context, id uint) (*models.Report, error)
	GetReportsByUserID(ctx context.Context, userID uint) ([]models.Report, error)
	GetAvailableReports(ctx context.Context, limit int) ([]models.CollectionTask, error)
	GetRecentReports(ctx context.Context, limit int) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	AssignCollector(ctx context.Context, id uint, collectorID uint) error
	ResolveReport(ctx context.Context, id uint, collectorID uint, verification datatypes.JSON) error
	CreateCollectedIssue(ctx context.Context, issue *models.CollectedIssue) error
	GetCollectedIssuesByCollector(ctx context.Context, collectorID uint) ([]models.CollectedIssue, error)
}

type reportRepo struct {
	DB *gorm.DB
}

func NewReportRepo(db *GormDB) ReportRepository {
	return &reportRepo{db.DB}
}

func (r *reportRepo) CreateReport(ctx context.Context, report *models.Report) (*models.Report, error) {
	report.Status = models.ReportStatusPending
	report.CollectorID = nil
	if err := r.DB.WithContext(ctx).Omit("User", "Collector").Create(report).Error; err != nil {
		return nil, errors.Wrap(err, "could not create report")
	}
	return report, nil
}

func (r *reportRepo) GetReportByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.DB.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, notFound(err, "could not fetch report")
	}
	return &report, nil
}

func (r *reportRepo) GetReportsByUserID(ctx context.Context, userID uint) ([]models.Report, error) {
	reports := []models.Report{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch reports")
	}
	return reports, nil
}

// GetAvailableReports returns the work queue: unresolved reports nobody has
// claimed yet, newest first.
func (r *reportRepo) GetAvailableReports(ctx context.Context, limit int) ([]models.CollectionTask, error) {
	if limit <= 0 {
		limit = DefaultTaskLimit
	}
	var rows []struct {
		ID             uint
		Location       string
		WaterIssueType string
		Severity       string
		Latitude       float64
		Longitude      float64
		Status         string
		ReporterID     uint
		ReporterName   string
		ReporterImage  string
		CreatedAt      time.Time
	}
	err := r.DB.WithContext(ctx).
		Table("reports").
		Select(`reports.id, reports.location, reports.water_issue_type, reports.severity,
			reports.latitude, reports.longitude, reports.status, reports.created_at,
			reports.user_id AS reporter_id, users.name AS reporter_name, users.avatar_url AS reporter_image`).
		Joins("JOIN users ON users.id = reports.user_id").
		Where("reports.status <> ? AND reports.collector_id IS NULL", models.ReportStatusResolved).
		Order("reports.created_at DESC, reports.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch collection tasks")
	}

	tasks := make([]models.CollectionTask, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, models.CollectionTask{
			ID:             row.ID,
			Location:       row.Location,
			WaterIssueType: row.WaterIssueType,
			Severity:       row.Severity,
			Latitude:       row.Latitude,
			Longitude:      row.Longitude,
			Status:         row.Status,
			ReporterID:     row.ReporterID,
			ReporterName:   row.ReporterName,
			ReporterImage:  row.ReporterImage,
			CreatedAt:      row.CreatedAt.Format("2006-01-02"),
		})
	}
	return tasks, nil
}

func (r *reportRepo) GetRecentReports(ctx context.Context, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 10
	}
	reports := []models.Report{}
	err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&reports).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch recent reports")
	}
	return reports, nil
}

func (r *reportRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return errors.Wrap(res.Error, "could not update report status")
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AssignCollector moves a pending, unclaimed report to in_progress and sets
// its collector in a single UPDATE, so the two columns never disagree.
func (r *reportRepo) AssignCollector(ctx context.Context, id uint, collectorID uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ? AND collector_id IS NULL", id, models.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":       models.ReportStatusInProgress,
			"collector_id": collectorID,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "could not assign collector")
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// ResolveReport moves an in_progress report held by collectorID to resolved.
func (r *reportRepo) ResolveReport(ctx context.Context, id uint, collectorID uint, verification datatypes.JSON) error {
	res := r.DB.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ? AND collector_id = ?", id, models.ReportStatusInProgress, collectorID).
		Updates(map[string]interface{}{
			"status":              models.ReportStatusResolved,
			"collector_id":        collectorID,
			"verification_result": verification,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "could not resolve report")
	}
	if res.RowsAffected == 0 {
		report, err := r.GetReportByID(ctx, id)
		if err != nil {
			return err
		}
		if report.Status == models.ReportStatusInProgress {
			return errs.ErrCollectorMismatch
		}
		return errs.ErrInvalidTransition
	}
	return nil
}

func (r *reportRepo) missOrConflict(ctx context.Context, id uint) error {
	if _, err := r.GetReportByID(ctx, id); err != nil {
		return err
	}
	return errs.ErrInvalidTransition
}

func (r *reportRepo) CreateCollectedIssue(ctx context.Context, issue *models.CollectedIssue) error {
	if issue.CollectionDate.IsZero() {
		issue.CollectionDate = time.Now()
	}
	if err := r.DB.WithContext(ctx).Create(issue).Error; err != nil {
		return errors.Wrap(err, "could not record collected issue")
	}
	return nil
}

func (r *reportRepo) GetCollectedIssuesByCollector(ctx context.Context, collectorID uint) ([]models.CollectedIssue, error) {
	issues := []models.CollectedIssue{}
	err := r.DB.WithContext(ctx).
		Where("collector_id = ?", collectorID).
		Order("collection_date DESC, id DESC").
		Find(&issues).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch collected issues")
	}
	return issues, nil
}

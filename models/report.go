package models

import "gorm.io/datatypes"

const (
	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in_progress"
	ReportStatusResolved   = "resolved"
)

const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// Report is a user-submitted water issue.
type Report struct {
	Model
	UserID             uint           `json:"user_id" gorm:"not null;index"`
	Location           string         `json:"location" gorm:"not null"`
	WaterIssueType     string         `json:"water_issue_type"`
	Severity           string         `json:"severity"`
	Description        string         `json:"description" gorm:"type:varchar(1000)"`
	ImageURL           string         `json:"image_url"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	Status             string         `json:"status" gorm:"not null;default:pending;index"`
	CollectorID        *uint          `json:"collector_id" gorm:"index"`
	VerificationResult datatypes.JSON `json:"verification_result"`

	User      User  `json:"-" gorm:"foreignKey:UserID"`
	Collector *User `json:"-" gorm:"foreignKey:CollectorID"`
}

// CollectionTask is an available report joined with its reporter.
type CollectionTask struct {
	ID             uint    `json:"id"`
	Location       string  `json:"location"`
	WaterIssueType string  `json:"water_issue_type"`
	Severity       string  `json:"severity"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Status         string  `json:"status"`
	ReporterID     uint    `json:"reporter_id"`
	ReporterName   string  `json:"reporter_name"`
	ReporterImage  string  `json:"reporter_image"`
	CreatedAt      string  `json:"created_at"`
}

// SubmitReportRequest is the form accepted when a user files a report.
type SubmitReportRequest struct {
	Location       string  `form:"location" json:"location" binding:"required" conform:"trim"`
	Description    string  `form:"description" json:"description" binding:"required,max=1000" conform:"trim"`
	WaterIssueType string  `form:"water_issue_type" json:"water_issue_type" conform:"trim,title"`
	Severity       string  `form:"severity" json:"severity" binding:"omitempty,oneof=Low Medium High" conform:"trim"`
	Latitude       float64 `form:"latitude" json:"latitude" binding:"omitempty,latitude"`
	Longitude      float64 `form:"longitude" json:"longitude" binding:"omitempty,longitude"`
}

func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

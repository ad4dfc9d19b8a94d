package models

import "time"

// CollectedIssue records each step a collector took on a report.
type CollectedIssue struct {
	Model
	ReportID       uint      `json:"report_id" gorm:"not null;index"`
	CollectorID    uint      `json:"collector_id" gorm:"not null;index"`
	CollectionDate time.Time `json:"collection_date"`
	Status         string    `json:"status" gorm:"not null"`
}

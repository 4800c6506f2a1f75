package model

import "time"

// MonthLayout is the time layout of a ledger month key.
const MonthLayout = "2006-01"

// EmailUsage counts delivered emails in one calendar month.
// Matches the email_usage table schema.
type EmailUsage struct {
	ID        int64     `gorm:"primaryKey;column:id;autoIncrement"`
	Month     string    `gorm:"column:month;type:varchar(7);not null;uniqueIndex:idx_email_usage_month"`
	Count     int       `gorm:"column:count;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for GORM.
func (EmailUsage) TableName() string {
	return "email_usage"
}

// Usage is the ledger view of a month.
type Usage struct {
	Month     string `json:"month"`
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// Exhausted reports whether no more mail may be sent this month.
func (u Usage) Exhausted() bool {
	return u.Count >= u.Limit
}

// MonthOf returns the ledger key for t, in UTC.
func MonthOf(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConsumerStatus is the follow-up workflow tag carried by a consumer
type ConsumerStatus string

// ConsumerStatus constants
const (
	StatusPending       ConsumerStatus = "Pending"
	StatusPaid          ConsumerStatus = "Paid"
	StatusNotReachable  ConsumerStatus = "Not reachable"
	StatusCallLater     ConsumerStatus = "Call later"
	StatusSwitchedOff   ConsumerStatus = "Switched off"
	StatusWillPayToday  ConsumerStatus = "Will pay today"
	StatusNumberChanged ConsumerStatus = "Number Changed"
	StatusNumberNA      ConsumerStatus = "Number NA"
	StatusTD            ConsumerStatus = "TD" // temporarily disconnected
	StatusPD            ConsumerStatus = "PD" // permanently disconnected
	StatusVR            ConsumerStatus = "VR" // village recovery
	StatusRoadWidening  ConsumerStatus = "Road widening"
)

// AllStatuses lists every status in display order
var AllStatuses = []ConsumerStatus{
	StatusPending,
	StatusPaid,
	StatusNotReachable,
	StatusCallLater,
	StatusSwitchedOff,
	StatusWillPayToday,
	StatusNumberChanged,
	StatusNumberNA,
	StatusTD,
	StatusPD,
	StatusVR,
	StatusRoadWidening,
}

func (s ConsumerStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// RequiresFollowUpDate reports whether the status schedules a callback.
func (s ConsumerStatus) RequiresFollowUpDate() bool {
	return s == StatusCallLater
}

// DateLayout is the calendar date format used for follow-up dates
const DateLayout = "2006-01-02"

// Consumer represents a billing account tracked for collection follow-up
type Consumer struct {
	ConsumerNo       string          `db:"consumer_no" json:"consumerNo"`
	Name             string          `db:"name" json:"name"`
	Address          string          `db:"address" json:"address"`
	Mobile           string          `db:"mobile" json:"mobile"`
	TotalDue         decimal.Decimal `db:"total_due" json:"totalDue"`
	BillDueDate      string          `db:"bill_due_date" json:"billDueDate"`
	AgeInDays        int             `db:"age_in_days" json:"ageInDays"`
	LastReceiptDate  string          `db:"last_receipt_date" json:"lastReceiptDate"`
	ClosingBalance   decimal.Decimal `db:"closing_balance" json:"closingBalance"`
	SubCategory      string          `db:"sub_category" json:"subCategory"`
	MeterNumber      string          `db:"meter_number" json:"meterNumber"`
	Remark           string          `db:"remark" json:"remark"`
	TdPdDate         string          `db:"td_pd_date" json:"tdPdDate,omitempty"`
	Status           ConsumerStatus  `db:"status" json:"status"`
	NextFollowUpDate string          `db:"next_follow_up_date" json:"nextFollowUpDate,omitempty"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}

// NormalizeFollowUp drops the scheduled date unless the status asks for a callback.
func (c *Consumer) NormalizeFollowUp() {
	if !c.Status.RequiresFollowUpDate() {
		c.NextFollowUpDate = ""
	}
}

// IsPaid reports whether the consumer has settled the dues
func (c *Consumer) IsPaid() bool {
	return c.Status == StatusPaid
}

// HasContact reports whether a mobile number is on record
func (c *Consumer) HasContact() bool {
	return c.Mobile != ""
}

// FollowUpHistory represents one recorded follow-up action against a consumer
type FollowUpHistory struct {
	ID         int64          `db:"id" json:"id"`
	ConsumerNo string         `db:"consumer_no" json:"consumerNo" validate:"required"`
	Note       string         `db:"note" json:"note"`
	Status     ConsumerStatus `db:"status" json:"status" validate:"required,consumer_status"`
	Timestamp  time.Time      `db:"timestamp" json:"timestamp"`
}

// AppSettings represents the single settings row
type AppSettings struct {
	SMSTemplate      string          `json:"smsTemplate"`
	WhatsAppTemplate string          `json:"whatsappTemplate"`
	HighDueThreshold decimal.Decimal `json:"highDueThreshold" validate:"gte=0"`
}

const defaultTemplate = "Dear Consumer,\nYour electricity bill for Consumer No: *{consumerNo}* is overdue.\nTotal Due: *₹{amount}*.\nPlease pay immediately to avoid disconnection."

// DefaultSettings returns the settings used until the user saves their own
func DefaultSettings() AppSettings {
	return AppSettings{
		SMSTemplate:      defaultTemplate,
		WhatsAppTemplate: defaultTemplate,
		HighDueThreshold: decimal.NewFromInt(5000),
	}
}

// DashboardStats holds the counters shown on the dashboard
type DashboardStats struct {
	TodayFollowUps       int             `json:"todayFollowUps"`
	TodayPaidCount       int             `json:"todayPaidCount"`
	TodayCollectedAmount decimal.Decimal `json:"todayCollectedAmount"`
	UnpaidCount          int             `json:"unpaidCount"`
	HighDueCount         int             `json:"highDueCount"`
}

// Backup snapshot constants
const (
	SnapshotVersion     = 1
	SnapshotTypePartial = "MRA_BACKUP_PARTIAL"
)

// SnapshotMeta describes a backup snapshot
type SnapshotMeta struct {
	Version int    `json:"version"`
	Type    string `json:"type"`
	Date    string `json:"date"`
}

// Snapshot is the portable partial backup: history and settings, never consumers
type Snapshot struct {
	History  []FollowUpHistory `json:"history"`
	Settings *AppSettings      `json:"settings,omitempty"`
	Meta     SnapshotMeta      `json:"meta"`
}

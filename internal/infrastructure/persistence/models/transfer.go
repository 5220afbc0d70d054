package models

import (
	"github.com/afftrack/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferModel is the persistence model for dispatch outcome records.
// Rows are append-only; the unique index on lead_id enforces one outcome
// per lead per pass.
type TransferModel struct {
	BaseModel
	LeadID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	FeedID *uuid.UUID `gorm:"type:uuid;index"`

	Status transfer.Status `gorm:"type:varchar(20);not null;index"`

	Response     string `gorm:"type:text"`
	ResponseCode int    `gorm:"not null;default:0"`
	ErrorMessage string `gorm:"type:text"`

	PrePingID string `gorm:"type:varchar(255)"`

	Payout      decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	PayoutFound bool            `gorm:"not null;default:false"`

	RetryCount int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (TransferModel) TableName() string {
	return "transfers"
}

// ToDomain converts the persistence model to a domain Transfer
func (m *TransferModel) ToDomain() *transfer.Transfer {
	return &transfer.Transfer{
		BaseEntity:   m.BaseModel.ToDomain(),
		LeadID:       m.LeadID,
		FeedID:       m.FeedID,
		Status:       m.Status,
		Response:     m.Response,
		ResponseCode: m.ResponseCode,
		ErrorMessage: m.ErrorMessage,
		PrePingID:    m.PrePingID,
		Payout:       m.Payout,
		PayoutFound:  m.PayoutFound,
		RetryCount:   m.RetryCount,
	}
}

// FromDomain populates the persistence model from a domain Transfer
func (m *TransferModel) FromDomain(t *transfer.Transfer) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.LeadID = t.LeadID
	m.FeedID = t.FeedID
	m.Status = t.Status
	m.Response = t.Response
	m.ResponseCode = t.ResponseCode
	m.ErrorMessage = t.ErrorMessage
	m.PrePingID = t.PrePingID
	m.Payout = t.Payout
	m.PayoutFound = t.PayoutFound
	m.RetryCount = t.RetryCount
}

package models

import (
	"encoding/json"

	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeedModel is the persistence model for transfer feeds. The nested
// pre-ping, schedule and condition configuration is stored as jsonb so
// the dashboard can evolve those shapes without schema churn.
type FeedModel struct {
	BaseModel
	Name        string          `gorm:"type:varchar(200);not null"`
	PartnerName string          `gorm:"type:varchar(200)"`
	Status      feed.FeedStatus `gorm:"type:varchar(20);not null;index"`

	Method       string            `gorm:"type:varchar(10);not null"`
	EndpointURL  string            `gorm:"type:varchar(2048);not null"`
	HeadersJSON  string            `gorm:"column:headers;type:jsonb;default:'{}'"`
	BodyTemplate string            `gorm:"type:text"`
	BodyEncoding feed.BodyEncoding `gorm:"type:varchar(20);not null"`

	SuccessPattern string `gorm:"type:varchar(500)"`

	PayoutType  feed.PayoutType `gorm:"type:varchar(20);not null"`
	PayoutValue decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	PayoutPath  string          `gorm:"type:varchar(500)"`

	PrePingJSON    string `gorm:"column:pre_ping;type:jsonb"`
	ScheduleJSON   string `gorm:"column:schedule;type:jsonb"`
	ConditionsJSON string `gorm:"column:conditions;type:jsonb;default:'[]'"`

	// SortOrder fixes the listing order the dispatch pass walks
	SortOrder int `gorm:"not null;default:0;index"`
}

// TableName returns the table name for GORM
func (FeedModel) TableName() string {
	return "transfer_feeds"
}

// feedPrePingJSON mirrors PrePingConfig for jsonb storage
type feedPrePingJSON struct {
	Enabled           bool              `json:"enabled"`
	Method            string            `json:"method"`
	URL               string            `json:"url"`
	Headers           map[string]string `json:"headers,omitempty"`
	BodyTemplate      string            `json:"bodyTemplate"`
	BodyEncoding      feed.BodyEncoding `json:"bodyEncoding"`
	SuccessPattern    string            `json:"successPattern"`
	ResponseIDEnabled bool              `json:"responseIdEnabled"`
	IDPath            string            `json:"idPath,omitempty"`
}

// ToDomain converts the persistence model to a domain TransferFeed
func (m *FeedModel) ToDomain() *feed.TransferFeed {
	f := &feed.TransferFeed{
		BaseEntity:     m.BaseModel.ToDomain(),
		Name:           m.Name,
		PartnerName:    m.PartnerName,
		Status:         m.Status,
		Method:         m.Method,
		EndpointURL:    m.EndpointURL,
		BodyTemplate:   m.BodyTemplate,
		BodyEncoding:   m.BodyEncoding,
		SuccessPattern: m.SuccessPattern,
		PayoutType:     m.PayoutType,
		PayoutValue:    m.PayoutValue,
		PayoutPath:     m.PayoutPath,
	}

	if m.HeadersJSON != "" && m.HeadersJSON != "{}" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(m.HeadersJSON), &headers); err != nil {
			modelLogger.Warn("failed to parse feed headers JSON",
				zap.String("feed_id", m.ID.String()),
				zap.Error(err))
		} else {
			f.Headers = headers
		}
	}

	if m.PrePingJSON != "" {
		var raw feedPrePingJSON
		if err := json.Unmarshal([]byte(m.PrePingJSON), &raw); err != nil {
			modelLogger.Warn("failed to parse feed pre_ping JSON",
				zap.String("feed_id", m.ID.String()),
				zap.Error(err))
		} else {
			f.PrePing = &feed.PrePingConfig{
				Enabled:           raw.Enabled,
				Method:            raw.Method,
				URL:               raw.URL,
				Headers:           raw.Headers,
				BodyTemplate:      raw.BodyTemplate,
				BodyEncoding:      raw.BodyEncoding,
				SuccessPattern:    raw.SuccessPattern,
				ResponseIDEnabled: raw.ResponseIDEnabled,
				IDPath:            raw.IDPath,
			}
		}
	}

	if m.ScheduleJSON != "" {
		var schedule feed.ScheduleConfig
		if err := json.Unmarshal([]byte(m.ScheduleJSON), &schedule); err != nil {
			modelLogger.Warn("failed to parse feed schedule JSON",
				zap.String("feed_id", m.ID.String()),
				zap.Error(err))
		} else {
			f.Schedule = &schedule
		}
	}

	if m.ConditionsJSON != "" && m.ConditionsJSON != "[]" {
		var conditions []feed.Condition
		if err := json.Unmarshal([]byte(m.ConditionsJSON), &conditions); err != nil {
			modelLogger.Warn("failed to parse feed conditions JSON",
				zap.String("feed_id", m.ID.String()),
				zap.Error(err))
		} else {
			f.Conditions = conditions
		}
	}

	return f
}

// FromDomain populates the persistence model from a domain TransferFeed
func (m *FeedModel) FromDomain(f *feed.TransferFeed) {
	m.FromDomainBaseEntity(f.BaseEntity)
	m.Name = f.Name
	m.PartnerName = f.PartnerName
	m.Status = f.Status
	m.Method = f.Method
	m.EndpointURL = f.EndpointURL
	m.BodyTemplate = f.BodyTemplate
	m.BodyEncoding = f.BodyEncoding
	m.SuccessPattern = f.SuccessPattern
	m.PayoutType = f.PayoutType
	m.PayoutValue = f.PayoutValue
	m.PayoutPath = f.PayoutPath

	if jsonBytes, err := json.Marshal(f.Headers); err == nil {
		m.HeadersJSON = string(jsonBytes)
	} else {
		m.HeadersJSON = "{}"
	}

	if f.PrePing != nil {
		raw := feedPrePingJSON{
			Enabled:           f.PrePing.Enabled,
			Method:            f.PrePing.Method,
			URL:               f.PrePing.URL,
			Headers:           f.PrePing.Headers,
			BodyTemplate:      f.PrePing.BodyTemplate,
			BodyEncoding:      f.PrePing.BodyEncoding,
			SuccessPattern:    f.PrePing.SuccessPattern,
			ResponseIDEnabled: f.PrePing.ResponseIDEnabled,
			IDPath:            f.PrePing.IDPath,
		}
		if jsonBytes, err := json.Marshal(raw); err == nil {
			m.PrePingJSON = string(jsonBytes)
		}
	} else {
		m.PrePingJSON = ""
	}

	if f.Schedule != nil {
		if jsonBytes, err := json.Marshal(f.Schedule); err == nil {
			m.ScheduleJSON = string(jsonBytes)
		}
	} else {
		m.ScheduleJSON = ""
	}

	if jsonBytes, err := json.Marshal(f.Conditions); err == nil {
		m.ConditionsJSON = string(jsonBytes)
	} else {
		m.ConditionsJSON = "[]"
	}
}

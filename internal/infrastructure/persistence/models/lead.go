package models

import (
	"encoding/json"

	"github.com/afftrack/backend/internal/domain/lead"
	"go.uber.org/zap"
)

// modelLogger records conversion problems that must not fail a query
var modelLogger = zap.L().Named("persistence.models")

// LeadModel is the persistence model for captured leads
type LeadModel struct {
	BaseModel
	FirstName string `gorm:"type:varchar(100);not null"`
	LastName  string `gorm:"type:varchar(100);not null"`
	Email     string `gorm:"type:varchar(255);not null;index"`
	Phone     string `gorm:"type:varchar(50)"`
	Address   string `gorm:"type:varchar(255)"`
	City      string `gorm:"type:varchar(100)"`
	State     string `gorm:"type:varchar(50)"`
	ZipCode   string `gorm:"type:varchar(20)"`
	Country   string `gorm:"type:varchar(50)"`

	BirthDay   string `gorm:"type:varchar(2)"`
	BirthMonth string `gorm:"type:varchar(2)"`
	BirthYear  string `gorm:"type:varchar(4)"`

	IPAddress string `gorm:"type:varchar(45)"`
	Source    string `gorm:"type:varchar(100);index"`

	MetaDataJSON string `gorm:"column:meta_data;type:jsonb;default:'{}'"`

	Status lead.LeadStatus `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (LeadModel) TableName() string {
	return "leads"
}

// ToDomain converts the persistence model to a domain Lead
func (m *LeadModel) ToDomain() *lead.Lead {
	l := &lead.Lead{
		BaseEntity: m.BaseModel.ToDomain(),
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Email:      m.Email,
		Phone:      m.Phone,
		Address:    m.Address,
		City:       m.City,
		State:      m.State,
		ZipCode:    m.ZipCode,
		Country:    m.Country,
		BirthDay:   m.BirthDay,
		BirthMonth: m.BirthMonth,
		BirthYear:  m.BirthYear,
		IPAddress:  m.IPAddress,
		Source:     m.Source,
		MetaData:   make(map[string]any),
		Status:     m.Status,
	}

	if m.MetaDataJSON != "" && m.MetaDataJSON != "{}" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(m.MetaDataJSON), &meta); err != nil {
			modelLogger.Warn("failed to parse lead meta_data JSON",
				zap.String("lead_id", m.ID.String()),
				zap.Error(err))
		} else {
			l.MetaData = meta
		}
	}

	return l
}

// FromDomain populates the persistence model from a domain Lead
func (m *LeadModel) FromDomain(l *lead.Lead) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.FirstName = l.FirstName
	m.LastName = l.LastName
	m.Email = l.Email
	m.Phone = l.Phone
	m.Address = l.Address
	m.City = l.City
	m.State = l.State
	m.ZipCode = l.ZipCode
	m.Country = l.Country
	m.BirthDay = l.BirthDay
	m.BirthMonth = l.BirthMonth
	m.BirthYear = l.BirthYear
	m.IPAddress = l.IPAddress
	m.Source = l.Source
	m.Status = l.Status

	if jsonBytes, err := json.Marshal(l.MetaData); err == nil {
		m.MetaDataJSON = string(jsonBytes)
	} else {
		m.MetaDataJSON = "{}"
	}
}

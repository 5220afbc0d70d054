package lead

import (
	"time"

	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadStatus represents the lifecycle state of a captured lead
type LeadStatus string

const (
	// LeadStatusNew indicates the lead has been captured and not yet dispatched
	LeadStatusNew LeadStatus = "NEW"
	// LeadStatusTransferred indicates a dispatch pass has completed for the lead,
	// whether or not any feed accepted it
	LeadStatusTransferred LeadStatus = "TRANSFERRED"
)

// IsValid returns true if the status is valid
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusTransferred:
		return true
	default:
		return false
	}
}

// String returns the string representation of LeadStatus
func (s LeadStatus) String() string {
	return string(s)
}

// Lead is a captured contact record eligible for transfer to a partner
type Lead struct {
	shared.BaseEntity

	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	State     string
	ZipCode   string
	Country   string

	// Birth date parts are kept as strings because partner templates
	// substitute them verbatim ("07", not 7)
	BirthDay   string
	BirthMonth string
	BirthYear  string

	IPAddress string
	Source    string

	// MetaData is an open mapping of capture-time attributes
	// (campaign, gclid, consent flags, arbitrary form fields)
	MetaData map[string]any

	Status LeadStatus
}

// New creates a new lead in the NEW state
func New(firstName, lastName, email, phone string) *Lead {
	return &Lead{
		BaseEntity: shared.NewBaseEntity(),
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		Phone:      phone,
		MetaData:   make(map[string]any),
		Status:     LeadStatusNew,
	}
}

// MarkTransferred transitions the lead to TRANSFERRED.
// Returns an error if the lead has already been through a dispatch pass.
func (l *Lead) MarkTransferred() error {
	if l.Status == LeadStatusTransferred {
		return shared.ErrInvalidState
	}
	l.Status = LeadStatusTransferred
	l.Touch()
	return nil
}

// IsPending returns true if the lead is awaiting dispatch
func (l *Lead) IsPending() bool {
	return l.Status == LeadStatusNew
}

// Data flattens the lead into the lookup record used by rule evaluation
// and template rendering. The metaData mapping is nested under "metaData";
// all other keys are top-level.
func (l *Lead) Data() map[string]any {
	meta := make(map[string]any, len(l.MetaData))
	for k, v := range l.MetaData {
		meta[k] = v
	}
	return map[string]any{
		"id":        l.ID.String(),
		"firstName": l.FirstName,
		"lastName":  l.LastName,
		"email":     l.Email,
		"phone":     l.Phone,
		"address":   l.Address,
		"city":      l.City,
		"state":     l.State,
		"zipCode":   l.ZipCode,
		"country":   l.Country,
		"dobDay":    l.BirthDay,
		"dobMonth":  l.BirthMonth,
		"dobYear":   l.BirthYear,
		"ipAddress": l.IPAddress,
		"source":    l.Source,
		"createdAt": l.CreatedAt.Format(time.RFC3339),
		"metaData":  meta,
	}
}

// Attempt is the immutable working copy of a lead carried through one
// dispatch pass. The pre-ping identifier captured for a feed lives here
// rather than on the shared Lead record, so parallel passes can never
// alias each other's scratch state.
type Attempt struct {
	Lead      *Lead
	PrePingID string
}

// NewAttempt creates an attempt for a lead with no pre-ping identifier
func NewAttempt(l *Lead) Attempt {
	return Attempt{Lead: l}
}

// WithPrePingID returns a copy of the attempt carrying the given identifier
func (a Attempt) WithPrePingID(id string) Attempt {
	return Attempt{Lead: a.Lead, PrePingID: id}
}

// Data returns the lead's flattened record, including the pre-ping
// identifier under "prePingId" when one has been captured.
func (a Attempt) Data() map[string]any {
	data := a.Lead.Data()
	if a.PrePingID != "" {
		data["prePingId"] = a.PrePingID
	}
	return data
}

// LeadRef identifies a lead without loading it
type LeadRef struct {
	ID     uuid.UUID
	Status LeadStatus
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the primary key so the model works on both
// postgres and the in-memory sqlite used by tests.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// LeadType classifies the kind of site a lead comes from
type LeadType string

const (
	LeadTypeCHS       LeadType = "CHS"
	LeadTypeHotel     LeadType = "Hotel"
	LeadTypeCorporate LeadType = "Corporate"
	LeadTypeDeveloper LeadType = "Developer"
	LeadTypeOther     LeadType = "Other"
)

// IsValid checks if the LeadType is a valid enum value
func (lt LeadType) IsValid() bool {
	switch lt {
	case LeadTypeCHS, LeadTypeHotel, LeadTypeCorporate, LeadTypeDeveloper, LeadTypeOther:
		return true
	}
	return false
}

// ParkingType describes the parking layout of a site
type ParkingType string

const (
	ParkingTypeOpen     ParkingType = "open"
	ParkingTypeBasement ParkingType = "basement"
	ParkingTypeMixed    ParkingType = "mixed"
)

// IsValid checks if the ParkingType is a valid enum value
func (pt ParkingType) IsValid() bool {
	switch pt {
	case ParkingTypeOpen, ParkingTypeBasement, ParkingTypeMixed:
		return true
	}
	return false
}

// LeadStage represents the position of a lead in the sales pipeline
type LeadStage string

const (
	LeadStageNew           LeadStage = "New"
	LeadStageQualified     LeadStage = "Qualified"
	LeadStageMeetingBooked LeadStage = "Meeting Booked"
	LeadStageProposalSent  LeadStage = "Proposal Sent"
	LeadStageWon           LeadStage = "Won"
	LeadStageLost          LeadStage = "Lost"
)

// IsValid checks if the LeadStage is a valid enum value
func (ls LeadStage) IsValid() bool {
	switch ls {
	case LeadStageNew, LeadStageQualified, LeadStageMeetingBooked, LeadStageProposalSent, LeadStageWon, LeadStageLost:
		return true
	}
	return false
}

// IsClosed reports whether the stage is terminal (Won or Lost)
func (ls LeadStage) IsClosed() bool {
	return ls == LeadStageWon || ls == LeadStageLost
}

// ClosedStages lists the terminal stages
func ClosedStages() []LeadStage {
	return []LeadStage{LeadStageWon, LeadStageLost}
}

// Lead represents a prospective EV-charger installation site
type Lead struct {
	BaseModel
	LeadID             string      `gorm:"type:varchar(30);uniqueIndex;column:lead_id"`
	LeadType           LeadType    `gorm:"type:varchar(20);not null;column:lead_type"`
	Name               string      `gorm:"type:varchar(200);not null"`
	Phone              string      `gorm:"type:varchar(50);not null;index"`
	Email              string      `gorm:"type:varchar(255);index"`
	Area               string      `gorm:"type:varchar(200);not null;index"`
	Locality           string      `gorm:"type:varchar(200)"`
	PropertySizeFlats  int         `gorm:"not null;default:0;column:property_size_flats"`
	ParkingType        ParkingType `gorm:"type:varchar(20);not null;default:'open';column:parking_type"`
	CurrentEvCount     int         `gorm:"not null;default:0;column:current_ev_count"`
	ChargerInterest    []string    `gorm:"serializer:json;column:charger_interest"`
	Notes              string      `gorm:"type:text"`
	Consent            bool        `gorm:"not null;default:false"`
	DecisionMakerKnown bool        `gorm:"not null;default:false;column:decision_maker_known"`
	Stage              LeadStage   `gorm:"type:varchar(30);not null;default:'New';index"`
	LeadScore          int         `gorm:"not null;default:0;column:lead_score"`
	NextFollowUpDate   *time.Time  `gorm:"column:next_follow_up_date"`
	OwnerID            *uuid.UUID  `gorm:"type:uuid;index;column:owner_id"`
	Owner              *User       `gorm:"foreignKey:OwnerID"`
	DuplicateOfID      *uuid.UUID  `gorm:"type:uuid;column:duplicate_of_id"`
	CreatedByID        *uuid.UUID  `gorm:"type:uuid;column:created_by_id"`
	UpdatedByID        *uuid.UUID  `gorm:"type:uuid;column:updated_by_id"`
}

// UserRole represents the access level of a CRM user
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleSales UserRole = "sales"
)

// User represents an employee with CRM access
type User struct {
	BaseModel
	Name              string   `gorm:"type:varchar(200);not null"`
	Email             string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone             string   `gorm:"type:varchar(50)"`
	PasswordHash      string   `gorm:"type:varchar(200);not null;column:password_hash"`
	Role              UserRole `gorm:"type:varchar(20);not null;default:'sales';index"`
	IsActive          bool     `gorm:"not null;default:true;column:is_active"`
	SalesTarget       int      `gorm:"not null;default:0;column:sales_target"`
	SalesAchieved     int      `gorm:"not null;default:0;column:sales_achieved"`
	IncentiveEligible bool     `gorm:"not null;default:false;column:incentive_eligible"`
}

// ActivityType represents the kind of interaction recorded against a lead
type ActivityType string

const (
	ActivityTypeCall     ActivityType = "call"
	ActivityTypeWhatsapp ActivityType = "whatsapp"
	ActivityTypeEmail    ActivityType = "email"
	ActivityTypeMeeting  ActivityType = "meeting"
	ActivityTypeNote     ActivityType = "note"
	ActivityTypeOther    ActivityType = "other"
)

// IsValid checks if the ActivityType is a valid enum value
func (at ActivityType) IsValid() bool {
	switch at {
	case ActivityTypeCall, ActivityTypeWhatsapp, ActivityTypeEmail, ActivityTypeMeeting, ActivityTypeNote, ActivityTypeOther:
		return true
	}
	return false
}

// Activity is an immutable audit entry tied to a lead. Entries are only
// ever created; no update path exists for a persisted activity.
type Activity struct {
	BaseModel
	LeadID        uuid.UUID    `gorm:"type:uuid;not null;index;column:lead_id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;column:user_id"`
	User          *User        `gorm:"foreignKey:UserID"`
	Type          ActivityType `gorm:"type:varchar(20);not null"`
	Subject       string       `gorm:"type:varchar(200)"`
	Description   string       `gorm:"type:text;not null"`
	AttachmentURL string       `gorm:"type:varchar(500);column:attachment_url"`
	CreatedByID   *uuid.UUID   `gorm:"type:uuid;column:created_by_id"`
	UpdatedByID   *uuid.UUID   `gorm:"type:uuid;column:updated_by_id"`
}

// FollowupStatus represents the state of a scheduled reminder
type FollowupStatus string

const (
	FollowupStatusPending   FollowupStatus = "pending"
	FollowupStatusCompleted FollowupStatus = "completed"
	FollowupStatusSkipped   FollowupStatus = "skipped"
)

// IsValid checks if the FollowupStatus is a valid enum value
func (fs FollowupStatus) IsValid() bool {
	switch fs {
	case FollowupStatusPending, FollowupStatusCompleted, FollowupStatusSkipped:
		return true
	}
	return false
}

// Followup is a scheduled reminder tied to a lead and an agent
type Followup struct {
	BaseModel
	LeadID      uuid.UUID      `gorm:"type:uuid;not null;index;column:lead_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;column:user_id"`
	DueDate     time.Time      `gorm:"not null;index;column:due_date"`
	Status      FollowupStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Notes       string         `gorm:"type:text"`
	CreatedByID *uuid.UUID     `gorm:"type:uuid;column:created_by_id"`
}

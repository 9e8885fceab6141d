package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreateLeadRequest is the public intake payload
type CreateLeadRequest struct {
	LeadType           LeadType `json:"leadType" validate:"required"`
	Name               string   `json:"name" validate:"required,max=200"`
	Phone              string   `json:"phone" validate:"required,max=50"`
	Email              string   `json:"email" validate:"omitempty,email"`
	Area               string   `json:"area" validate:"required,max=200"`
	Locality           string   `json:"locality" validate:"max=200"`
	PropertySizeFlats  int      `json:"propertySizeFlats" validate:"gte=0"`
	ParkingType        string   `json:"parkingType" validate:"omitempty,oneof=open basement mixed"`
	CurrentEvCount     int      `json:"currentEvCount" validate:"gte=0"`
	ChargerInterest    []string `json:"chargerInterest"`
	Notes              string   `json:"notes"`
	Consent            bool     `json:"consent"`
	DecisionMakerKnown bool     `json:"decisionMakerKnown"`
}

// CreateLeadResponse is returned by the public intake endpoint
type CreateLeadResponse struct {
	LeadID     string    `json:"leadId"`
	ID         uuid.UUID `json:"id"`
	Duplicate  bool      `json:"duplicate"`
	AssignedTo *string   `json:"assignedTo"`
}

// UpdateLeadRequest is a partial patch of a lead's business fields.
// Identity and audit fields are deliberately not patchable.
type UpdateLeadRequest struct {
	LeadType           *LeadType   `json:"leadType" validate:"omitempty"`
	Name               *string     `json:"name" validate:"omitempty,max=200"`
	Phone              *string     `json:"phone" validate:"omitempty,max=50"`
	Email              *string     `json:"email" validate:"omitempty,email"`
	Area               *string     `json:"area" validate:"omitempty,max=200"`
	Locality           *string     `json:"locality" validate:"omitempty,max=200"`
	PropertySizeFlats  *int        `json:"propertySizeFlats" validate:"omitempty,gte=0"`
	ParkingType        *ParkingType `json:"parkingType" validate:"omitempty,oneof=open basement mixed"`
	CurrentEvCount     *int        `json:"currentEvCount" validate:"omitempty,gte=0"`
	ChargerInterest    *[]string   `json:"chargerInterest"`
	Notes              *string     `json:"notes"`
	Consent            *bool       `json:"consent"`
	DecisionMakerKnown *bool       `json:"decisionMakerKnown"`
	Stage              *LeadStage  `json:"stage" validate:"omitempty"`
	OwnerID            *uuid.UUID  `json:"ownerId"`
	NextFollowUpDate   *time.Time  `json:"nextFollowUpDate"`
	StageNote          string      `json:"stageNote"`
}

// LeadDTO is the externally visible shape of a lead
type LeadDTO struct {
	ID                 uuid.UUID  `json:"id"`
	LeadID             string     `json:"leadId"`
	LeadType           LeadType   `json:"leadType"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	Email              string     `json:"email,omitempty"`
	Area               string     `json:"area"`
	Locality           string     `json:"locality,omitempty"`
	PropertySizeFlats  int        `json:"propertySizeFlats"`
	ParkingType        ParkingType `json:"parkingType"`
	CurrentEvCount     int        `json:"currentEvCount"`
	ChargerInterest    []string   `json:"chargerInterest"`
	Notes              string     `json:"notes,omitempty"`
	Consent            bool       `json:"consent"`
	DecisionMakerKnown bool       `json:"decisionMakerKnown"`
	Stage              LeadStage  `json:"stage"`
	LeadScore          int        `json:"leadScore"`
	NextFollowUpDate   *string    `json:"nextFollowUpDate,omitempty"`
	OwnerID            *uuid.UUID `json:"ownerId,omitempty"`
	OwnerName          string     `json:"ownerName,omitempty"`
	DuplicateOfID      *uuid.UUID `json:"duplicateOf,omitempty"`
	CreatedAt          string     `json:"createdAt"`
	UpdatedAt          string     `json:"updatedAt"`
}

// LeadDetailDTO bundles a lead with its ledgers
type LeadDetailDTO struct {
	Lead       LeadDTO       `json:"lead"`
	Activities []ActivityDTO `json:"activities"`
	Followups  []FollowupDTO `json:"followups"`
}

// CreateActivityRequest logs an interaction against a lead
type CreateActivityRequest struct {
	Type          ActivityType `json:"type" validate:"required"`
	Subject       string       `json:"subject" validate:"max=200"`
	Description   string       `json:"description" validate:"required"`
	AttachmentURL string       `json:"attachmentUrl" validate:"omitempty,max=500"`
}

// ActivityDTO is the externally visible shape of an activity
type ActivityDTO struct {
	ID            uuid.UUID    `json:"id"`
	LeadID        uuid.UUID    `json:"leadId"`
	UserID        uuid.UUID    `json:"userId"`
	UserName      string       `json:"userName,omitempty"`
	Type          ActivityType `json:"type"`
	Subject       string       `json:"subject,omitempty"`
	Description   string       `json:"description"`
	AttachmentURL string       `json:"attachmentUrl,omitempty"`
	CreatedAt     string       `json:"createdAt"`
}

// CreateFollowupRequest schedules a reminder against a lead
type CreateFollowupRequest struct {
	DueDate time.Time `json:"dueDate" validate:"required"`
	Notes   string    `json:"notes"`
}

// UpdateFollowupRequest updates a reminder's status or notes
type UpdateFollowupRequest struct {
	Status *FollowupStatus `json:"status" validate:"omitempty"`
	Notes  *string         `json:"notes"`
}

// FollowupDTO is the externally visible shape of a followup
type FollowupDTO struct {
	ID        uuid.UUID      `json:"id"`
	LeadID    uuid.UUID      `json:"leadId"`
	UserID    uuid.UUID      `json:"userId"`
	DueDate   string         `json:"dueDate"`
	Status    FollowupStatus `json:"status"`
	Notes     string         `json:"notes,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

// LoginRequest carries credentials for token issuance
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and basic profile
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// UserSummary is the minimal user shape embedded in auth responses
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  UserRole  `json:"role"`
}

// CreateUserRequest is the admin invite payload
type CreateUserRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone" validate:"max=50"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=admin sales"`
	Password string   `json:"password" validate:"required,min=6"`
}

// UpdateUserRequest adjusts an existing user's target or active flag
type UpdateUserRequest struct {
	SalesTarget *int  `json:"salesTarget" validate:"omitempty,gte=0"`
	IsActive    *bool `json:"isActive"`
}

// UserDTO is the externally visible shape of a user
type UserDTO struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	Role              UserRole  `json:"role"`
	IsActive          bool      `json:"isActive"`
	SalesTarget       int       `json:"salesTarget"`
	SalesAchieved     int       `json:"salesAchieved"`
	IncentiveEligible bool      `json:"incentiveEligible"`
	CreatedAt         string    `json:"createdAt"`
}

// UserProfileDTO is UserDTO plus live lead counts for the /me endpoint
type UserProfileDTO struct {
	UserDTO
	AssignedLeads int64 `json:"assignedLeads"`
	WonLeads      int64 `json:"wonLeads"`
	PendingLeads  int64 `json:"pendingLeads"`
}

// UserPerformanceDTO is a per-agent rollup for the performance report
type UserPerformanceDTO struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	Role              UserRole  `json:"role"`
	IsActive          bool      `json:"isActive"`
	SalesTarget       int       `json:"salesTarget"`
	SalesAchieved     int       `json:"salesAchieved"`
	IncentiveEligible bool      `json:"incentiveEligible"`
	AssignedLeads     int64     `json:"assignedLeads"`
	PendingLeads      int64     `json:"pendingLeads"`
}

// LocalityCountDTO is one row of the locality hotspot rollup
type LocalityCountDTO struct {
	Area     string `json:"area"`
	Locality string `json:"locality,omitempty"`
	Count    int64  `json:"count"`
}

// ReportSummaryDTO is the dashboard rollup
type ReportSummaryDTO struct {
	NewLeadsThisWeek       int64               `json:"newLeadsThisWeek"`
	StageCounts            map[LeadStage]int64 `json:"stageCounts"`
	ConversionNewToMeeting int                 `json:"conversionNewToMeeting"`
	TopLocalities          []LocalityCountDTO  `json:"topLocalities"`
}

// PaginatedResponse wraps list responses with paging metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// UploadAttachmentResponse is returned after an attachment upload
type UploadAttachmentResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

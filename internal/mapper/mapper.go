package mapper

import (
	"github.com/acs-energy/crm-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ToLeadDTO converts Lead to LeadDTO
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	dto := domain.LeadDTO{
		ID:                 lead.ID,
		LeadID:             lead.LeadID,
		LeadType:           lead.LeadType,
		Name:               lead.Name,
		Phone:              lead.Phone,
		Email:              lead.Email,
		Area:               lead.Area,
		Locality:           lead.Locality,
		PropertySizeFlats:  lead.PropertySizeFlats,
		ParkingType:        lead.ParkingType,
		CurrentEvCount:     lead.CurrentEvCount,
		ChargerInterest:    lead.ChargerInterest,
		Notes:              lead.Notes,
		Consent:            lead.Consent,
		DecisionMakerKnown: lead.DecisionMakerKnown,
		Stage:              lead.Stage,
		LeadScore:          lead.LeadScore,
		OwnerID:            lead.OwnerID,
		DuplicateOfID:      lead.DuplicateOfID,
		CreatedAt:          lead.CreatedAt.Format(timeFormat),
		UpdatedAt:          lead.UpdatedAt.Format(timeFormat),
	}

	if lead.ChargerInterest == nil {
		dto.ChargerInterest = []string{}
	}
	if lead.NextFollowUpDate != nil {
		s := lead.NextFollowUpDate.UTC().Format(timeFormat)
		dto.NextFollowUpDate = &s
	}
	if lead.Owner != nil {
		dto.OwnerName = lead.Owner.Name
	}

	return dto
}

// ToLeadDTOs converts a slice of leads
func ToLeadDTOs(leads []domain.Lead) []domain.LeadDTO {
	dtos := make([]domain.LeadDTO, 0, len(leads))
	for i := range leads {
		dtos = append(dtos, ToLeadDTO(&leads[i]))
	}
	return dtos
}

// ToActivityDTO converts Activity to ActivityDTO
func ToActivityDTO(activity *domain.Activity) domain.ActivityDTO {
	dto := domain.ActivityDTO{
		ID:            activity.ID,
		LeadID:        activity.LeadID,
		UserID:        activity.UserID,
		Type:          activity.Type,
		Subject:       activity.Subject,
		Description:   activity.Description,
		AttachmentURL: activity.AttachmentURL,
		CreatedAt:     activity.CreatedAt.Format(timeFormat),
	}
	if activity.User != nil {
		dto.UserName = activity.User.Name
	}
	return dto
}

// ToActivityDTOs converts a slice of activities
func ToActivityDTOs(activities []domain.Activity) []domain.ActivityDTO {
	dtos := make([]domain.ActivityDTO, 0, len(activities))
	for i := range activities {
		dtos = append(dtos, ToActivityDTO(&activities[i]))
	}
	return dtos
}

// ToFollowupDTO converts Followup to FollowupDTO
func ToFollowupDTO(followup *domain.Followup) domain.FollowupDTO {
	return domain.FollowupDTO{
		ID:        followup.ID,
		LeadID:    followup.LeadID,
		UserID:    followup.UserID,
		DueDate:   followup.DueDate.UTC().Format(timeFormat),
		Status:    followup.Status,
		Notes:     followup.Notes,
		CreatedAt: followup.CreatedAt.Format(timeFormat),
	}
}

// ToFollowupDTOs converts a slice of followups
func ToFollowupDTOs(followups []domain.Followup) []domain.FollowupDTO {
	dtos := make([]domain.FollowupDTO, 0, len(followups))
	for i := range followups {
		dtos = append(dtos, ToFollowupDTO(&followups[i]))
	}
	return dtos
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Phone:             user.Phone,
		Role:              user.Role,
		IsActive:          user.IsActive,
		SalesTarget:       user.SalesTarget,
		SalesAchieved:     user.SalesAchieved,
		IncentiveEligible: user.IncentiveEligible,
		CreatedAt:         user.CreatedAt.Format(timeFormat),
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []domain.User) []domain.UserDTO {
	dtos := make([]domain.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, ToUserDTO(&users[i]))
	}
	return dtos
}

// ToUserSummary converts User to the summary embedded in auth responses
func ToUserSummary(user *domain.User) domain.UserSummary {
	return domain.UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

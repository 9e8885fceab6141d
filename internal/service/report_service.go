package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
)

const topLocalityLimit = 10

// ReportService produces read-only rollups for the dashboard
type ReportService struct {
	leadRepo *repository.LeadRepository
	logger   *zap.Logger
}

func NewReportService(leadRepo *repository.LeadRepository, logger *zap.Logger) *ReportService {
	return &ReportService{leadRepo: leadRepo, logger: logger}
}

// Summary computes the dashboard rollup. Sales users only see their own
// leads; admins see everything.
func (s *ReportService) Summary(ctx context.Context, user *auth.UserContext) (*domain.ReportSummaryDTO, error) {
	var ownerScope *uuid.UUID
	if !user.IsAdmin() {
		ownerID := user.UserID
		ownerScope = &ownerID
	}

	weekStart := startOfISOWeek(time.Now().UTC())
	newThisWeek, err := s.leadRepo.CountCreatedSince(ctx, weekStart, ownerScope)
	if err != nil {
		return nil, err
	}

	stageRows, err := s.leadRepo.CountByStage(ctx, ownerScope)
	if err != nil {
		return nil, err
	}
	stageCounts := make(map[domain.LeadStage]int64, len(stageRows))
	var total int64
	for _, row := range stageRows {
		stageCounts[row.Stage] = row.Count
		total += row.Count
	}

	reachedMeeting, err := s.leadRepo.CountReachedMeeting(ctx, ownerScope)
	if err != nil {
		return nil, err
	}
	conversion := 0
	if total > 0 {
		conversion = int(math.Round(float64(reachedMeeting) / float64(total) * 100))
	}

	localityRows, err := s.leadRepo.TopLocalities(ctx, topLocalityLimit, ownerScope)
	if err != nil {
		return nil, err
	}
	localities := make([]domain.LocalityCountDTO, 0, len(localityRows))
	for _, row := range localityRows {
		localities = append(localities, domain.LocalityCountDTO{
			Area:     row.Area,
			Locality: row.Locality,
			Count:    row.Count,
		})
	}

	return &domain.ReportSummaryDTO{
		NewLeadsThisWeek:       newThisWeek,
		StageCounts:            stageCounts,
		ConversionNewToMeeting: conversion,
		TopLocalities:          localities,
	}, nil
}

// startOfISOWeek returns midnight of the Monday of the week containing t
func startOfISOWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}

package service

import (
	"context"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/repository"
)

type AnalyticsService struct {
	repository *repository.UsageRecordRepository
}

func NewAnalyticsService(repo *repository.UsageRecordRepository) *AnalyticsService {
	return &AnalyticsService{repository: repo}
}

// Holds usage summary data for a time range
type AnalyticsSummary struct {
	TotalRequests int64                    `json:"total_requests"`
	ErrorRate     float64                  `json:"error_rate"`
	TopEndpoints  []map[string]interface{} `json:"top_endpoints"`
}

func (s *AnalyticsService) GetSummary(ctx context.Context, from, to time.Time) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{}

	total, err := s.repository.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalRequests = total

	if total > 0 {
		errors, err := s.repository.CountByStatusRange(ctx, 400, 599, from, to)
		if err != nil {
			return nil, err
		}
		summary.ErrorRate = float64(errors) / float64(total)
	}

	top, err := s.repository.TopEndpoints(ctx, from, to, 10)
	if err != nil {
		return nil, err
	}
	summary.TopEndpoints = top

	return summary, nil
}

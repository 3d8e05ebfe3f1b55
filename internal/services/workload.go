// internal/services/workload.go
package services

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/internal/models"
	"github.com/printforge/printforge-backend/internal/repository"
)

// DesignerWorkload summarizes one designer's current load for work
// distribution. ActiveRequests counts claimed-but-unfinished requests;
// CompletedToday counts requests completed since local midnight.
type DesignerWorkload struct {
	DesignerID             uuid.UUID `json:"designer_id"`
	Username               string    `json:"username"`
	DisplayName            string    `json:"display_name"`
	ActiveRequests         int64     `json:"active_requests"`
	CompletedToday         int64     `json:"completed_today"`
	AverageCompletionHours float64   `json:"average_completion_hours"`
}

// GetDesignerWorkload computes the workload snapshot for one designer. The
// average completion time is the mean of completed_at minus assigned_at over
// all completed requests, in hours rounded to one decimal; it is zero when
// the designer has not completed anything yet.
func (s *CustomizationService) GetDesignerWorkload(designerID uuid.UUID) (*DesignerWorkload, error) {
	designer, err := s.users.FindByID(designerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("designer not found")
		}
		return nil, err
	}
	if !designer.UserType.CanClaimRequests() {
		return nil, NewInvalidState("user is not a designer")
	}
	return s.workloadFor(designer)
}

// GetAllDesignersWorkload returns every active designer's workload sorted by
// active request count ascending, so the least loaded designers come first.
func (s *CustomizationService) GetAllDesignersWorkload() ([]DesignerWorkload, error) {
	designers, err := s.users.FindDesigners()
	if err != nil {
		return nil, err
	}

	workloads := make([]DesignerWorkload, 0, len(designers))
	for i := range designers {
		w, err := s.workloadFor(&designers[i])
		if err != nil {
			return nil, err
		}
		workloads = append(workloads, *w)
	}

	sort.Slice(workloads, func(i, j int) bool {
		if workloads[i].ActiveRequests != workloads[j].ActiveRequests {
			return workloads[i].ActiveRequests < workloads[j].ActiveRequests
		}
		return workloads[i].Username < workloads[j].Username
	})
	return workloads, nil
}

func (s *CustomizationService) workloadFor(designer *models.User) (*DesignerWorkload, error) {
	active, err := s.repo.CountByDesignerAndStatuses(designer.ID, models.OpenRequestStatuses)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	completedToday, err := s.repo.CountCompletedSince(designer.ID, midnight)
	if err != nil {
		return nil, err
	}

	completed, err := s.repo.FindCompletedByDesigner(designer.ID)
	if err != nil {
		return nil, err
	}

	return &DesignerWorkload{
		DesignerID:             designer.ID,
		Username:               designer.Username,
		DisplayName:            designer.DisplayName,
		ActiveRequests:         active,
		CompletedToday:         completedToday,
		AverageCompletionHours: averageCompletionHours(completed),
	}, nil
}

func averageCompletionHours(completed []models.CustomizationRequest) float64 {
	var totalHours float64
	var n int
	for i := range completed {
		req := &completed[i]
		if req.AssignedAt == nil || req.CompletedAt == nil {
			continue
		}
		totalHours += req.CompletedAt.Sub(*req.AssignedAt).Hours()
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(totalHours/float64(n)*10) / 10
}

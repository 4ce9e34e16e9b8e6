package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"
)

type Service interface {
	// Assign updates the stage assignment if one exists, else inserts it.
	Assign(ctx context.Context, orderID string, stage model.Stage, technicianID int64) error
	// AssignAll assigns every stage and never stops at the first failure.
	AssignAll(ctx context.Context, orderID string, technicianID int64) BulkResult
	StageBoard(ctx context.Context, orderID string) ([]StageView, error)
	RecordProgress(ctx context.Context, progress model.Progress) error
	TechnicianAssignments(ctx context.Context, technicianID int64) ([]model.StageAssignment, error)
}

type DefaultService struct {
	repo Repo
	now  func() time.Time
}

func NewDefaultService(repo Repo) Service {
	return &DefaultService{repo: repo, now: time.Now}
}

func (d *DefaultService) Assign(ctx context.Context, orderID string, stage model.Stage, technicianID int64) error {
	if _, ok := model.ParseStage(string(stage)); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	now := d.now()

	existing, err := d.repo.GetAssignment(ctx, orderID, stage)
	switch {
	case err == nil:
		err = d.repo.UpdateAssignment(ctx, existing.ID, map[string]any{
			"technician_id": technicianID,
			"status":        string(model.AssignmentAssigned),
			"assigned_at":   now,
		})
	case errors.Is(err, pkg.ErrNotFound):
		err = d.repo.InsertAssignment(ctx, DBAssignment{
			OrderID:      orderID,
			Stage:        stage,
			TechnicianID: technicianID,
			Status:       model.AssignmentAssigned,
			AssignedAt:   now,
		})
	}
	if err != nil {
		slog.Error("Failed to assign stage", "error", err, "orderID", orderID, "stage", stage, "technicianID", technicianID)
		return err
	}
	return nil
}

func (d *DefaultService) AssignAll(ctx context.Context, orderID string, technicianID int64) BulkResult {
	result := BulkResult{Errors: map[model.Stage]error{}}
	for _, stage := range model.Stages {
		if err := d.Assign(ctx, orderID, stage, technicianID); err != nil {
			result.Failed++
			result.Errors[stage] = err
			continue
		}
		result.Succeeded++
	}
	slog.Info("Bulk assignment finished", "orderID", orderID, "technicianID", technicianID,
		"succeeded", result.Succeeded, "failed", result.Failed)
	return result
}

func (d *DefaultService) StageBoard(ctx context.Context, orderID string) ([]StageView, error) {
	assignments, err := d.repo.GetOrderAssignments(ctx, orderID)
	if err != nil {
		slog.Error("Error retrieving assignments", "error", err, "orderID", orderID)
		return nil, err
	}
	progress, err := d.repo.GetLatestProgress(ctx, orderID)
	if err != nil {
		slog.Error("Error retrieving progress", "error", err, "orderID", orderID)
		return nil, err
	}

	byStage := make(map[model.Stage]DBAssignment, len(assignments))
	for _, a := range assignments {
		byStage[a.Stage] = a
	}
	latest := make(map[model.Stage]DBProgress, len(progress))
	for _, p := range progress {
		if cur, ok := latest[p.Stage]; !ok || p.CreatedAt.After(cur.CreatedAt) {
			latest[p.Stage] = p
		}
	}

	board := make([]StageView, len(model.Stages))
	for i, stage := range model.Stages {
		view := StageView{Stage: stage, Status: model.AssignmentPending}
		if a, ok := byStage[stage]; ok {
			techID := a.TechnicianID
			view.TechnicianID = &techID
			view.TechnicianName = a.TechnicianName
			view.Status = a.Status
		}
		if p, ok := latest[stage]; ok {
			view.Status = p.Status
		}
		board[i] = view
	}
	return board, nil
}

func (d *DefaultService) RecordProgress(ctx context.Context, progress model.Progress) error {
	if _, ok := model.ParseStage(string(progress.Stage)); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStage, progress.Stage)
	}
	createdAt := progress.CreatedAt
	if createdAt.IsZero() {
		createdAt = d.now()
	}
	var updatedBy *int64
	if progress.UpdatedBy != 0 {
		updatedBy = &progress.UpdatedBy
	}
	if err := d.repo.InsertProgress(ctx, DBProgress{
		OrderID:   progress.OrderID,
		Stage:     progress.Stage,
		Status:    progress.Status,
		Note:      progress.Note,
		UpdatedBy: updatedBy,
		CreatedAt: createdAt,
	}); err != nil {
		slog.Error("Failed to record progress", "error", err, "orderID", progress.OrderID, "stage", progress.Stage)
		return err
	}
	if err := d.repo.UpdateAssignmentStatus(ctx, progress.OrderID, progress.Stage, progress.Status); err != nil {
		slog.Error("Failed to mirror progress status", "error", err, "orderID", progress.OrderID, "stage", progress.Stage)
		return err
	}
	return nil
}

func (d *DefaultService) TechnicianAssignments(ctx context.Context, technicianID int64) ([]model.StageAssignment, error) {
	rows, err := d.repo.GetTechnicianAssignments(ctx, technicianID)
	if err != nil {
		slog.Error("Error retrieving technician assignments", "error", err, "technicianID", technicianID)
		return nil, err
	}
	out := make([]model.StageAssignment, len(rows))
	for i, r := range rows {
		out[i] = toModel(r)
	}
	return out, nil
}

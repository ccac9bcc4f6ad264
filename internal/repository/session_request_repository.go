package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/repository/base"
)

const requestColumns = `
	id, slot_id, user_id, requested_at, status, rejection_reason, auto_rejected, updated_at
`

type SessionRequestRepository struct {
	*base.Repository
}

func NewSessionRequestRepository(db base.DBTX) *SessionRequestRepository {
	return &SessionRequestRepository{Repository: base.NewRepository(db)}
}

func scanRequest(row scanner) (*model.SessionRequest, error) {
	var req model.SessionRequest
	err := row.Scan(
		&req.ID,
		&req.SlotID,
		&req.UserID,
		&req.RequestedAt,
		&req.Status,
		&req.RejectionReason,
		&req.AutoRejected,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create создаёт заявку
func (r *SessionRequestRepository) Create(ctx context.Context, req *model.SessionRequest) error {
	query := `
		INSERT INTO session_requests (slot_id, user_id, requested_at, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		req.SlotID,
		req.UserID,
		req.RequestedAt,
		req.Status,
	).Scan(&req.ID, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *SessionRequestRepository) GetByID(ctx context.Context, id int64) (*model.SessionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM session_requests WHERE id = $1`

	req, err := scanRequest(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session request: %w", err)
	}

	return req, nil
}

// GetApprovedBySlot получает одобренную заявку слота
func (r *SessionRequestRepository) GetApprovedBySlot(ctx context.Context, slotID int64) (*model.SessionRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM session_requests
		WHERE slot_id = $1 AND status = $2
	`

	req, err := scanRequest(r.QueryRow(ctx, query, slotID, model.RequestStatusApproved))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get approved request: %w", err)
	}

	return req, nil
}

func (r *SessionRequestRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.SessionRequest, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var requests []*model.SessionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

// ListBySlot получает все заявки на слот
func (r *SessionRequestRepository) ListBySlot(ctx context.Context, slotID int64) ([]*model.SessionRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM session_requests
		WHERE slot_id = $1
		ORDER BY requested_at ASC
	`
	return r.list(ctx, "get requests by slot", query, slotID)
}

// ListPendingByTrainer получает pending заявки на слоты тренера
func (r *SessionRequestRepository) ListPendingByTrainer(ctx context.Context, trainerID int64) ([]*model.SessionRequest, error) {
	query := `
		SELECT r.id, r.slot_id, r.user_id, r.requested_at, r.status, r.rejection_reason, r.auto_rejected, r.updated_at
		FROM session_requests r
		JOIN slots s ON s.id = r.slot_id
		WHERE s.trainer_id = $1 AND r.status = $2
		ORDER BY r.requested_at ASC
	`
	return r.list(ctx, "get pending requests", query, trainerID, model.RequestStatusPending)
}

// ListByUser получает заявки пользователя
func (r *SessionRequestRepository) ListByUser(ctx context.Context, userID int64) ([]*model.SessionRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM session_requests
		WHERE user_id = $1
		ORDER BY requested_at DESC
	`
	return r.list(ctx, "get user requests", query, userID)
}

// Update сохраняет статус заявки
func (r *SessionRequestRepository) Update(ctx context.Context, req *model.SessionRequest) error {
	query := `
		UPDATE session_requests
		SET status = $1, rejection_reason = $2, auto_rejected = $3, updated_at = $4
		WHERE id = $5
	`

	affected, err := r.ExecAffected(
		ctx, query,
		req.Status,
		req.RejectionReason,
		req.AutoRejected,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("update session request: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("request not found")
	}

	return nil
}

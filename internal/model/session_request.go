package model

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"   // Ожидает решения тренера
	RequestStatusApproved  RequestStatus = "approved"  // Одобрено, слот занят
	RequestStatusRejected  RequestStatus = "rejected"  // Отклонено тренером или автоматически
	RequestStatusCancelled RequestStatus = "cancelled" // Одобренная запись отменена
)

// SessionRequest represents a user's claim against a trainer slot
type SessionRequest struct {
	ID              int64         `json:"id"`
	SlotID          int64         `json:"slot_id"`
	UserID          int64         `json:"user_id"`
	RequestedAt     time.Time     `json:"requested_at"`
	Status          RequestStatus `json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	AutoRejected    bool          `json:"auto_rejected"` // отклонено из-за одобрения другой заявки
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsPending checks if request is pending
func (r *SessionRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsApproved checks if request is approved
func (r *SessionRequest) IsApproved() bool {
	return r.Status == RequestStatusApproved
}

// IsRejected checks if request is rejected
func (r *SessionRequest) IsRejected() bool {
	return r.Status == RequestStatusRejected
}

// IsActive checks if request still claims the slot (pending or approved)
func (r *SessionRequest) IsActive() bool {
	return r.IsPending() || r.IsApproved()
}

package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/locks"
)

// Audit action names written by this service.
const (
	AuditActionCancel          = "booking.cancel"
	AuditActionAssign          = "booking.assign"
	AuditActionBulkStatus      = "booking.bulk_status"
	AuditActionBulkDelete      = "booking.bulk_delete"
	AuditActionConfirmOverride = "booking.confirm_override"
	AuditActionPaymentOverride = "payment_status.manual_override"
	AuditActionPaymentEdit     = "payment_status.manual_edit"
)

// Service owns booking mutations. Every write runs inside the per-booking
// lock shared with the webhook processor, so a webhook transition and a
// staff edit to the same booking never interleave.
type Service struct {
	repo    Repository
	ledger  LedgerReader
	locks   *locks.KeyMutex
	auditor Auditor
	logger  *slog.Logger
}

func NewService(repo Repository, ledger LedgerReader, km *locks.KeyMutex, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		ledger:  ledger,
		locks:   km,
		auditor: auditor,
		logger:  logger,
	}
}

func (s *Service) GetBooking(id int64) (*Booking, error) {
	b, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) ListBookings(params ListParams) ([]*Booking, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}
	return s.repo.List(params)
}

// Assign sets or clears the staff assignment on a booking. Runs under the
// booking's lock and touches only the assignment column, so a concurrent
// webhook write to payment columns is never lost.
func (s *Service) Assign(ctx context.Context, actorID int64, dto AssignBookingDTO) (*Booking, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var result *Booking
	err := s.locks.WithLock(dto.BookingID, func() error {
		b, err := s.repo.GetByID(dto.BookingID)
		if err != nil {
			return err
		}
		if b.Status == StatusCancelled {
			return internal.ErrBookingCancelled
		}

		if err := s.repo.UpdateFields(dto.BookingID, map[string]interface{}{
			"assigned_to": dto.AssignedTo,
			"updated_at":  time.Now(),
		}); err != nil {
			s.logger.Error("failed to assign booking", "booking_id", dto.BookingID, "error", err)
			return internal.NewStorageError("failed to update booking", err)
		}

		b.AssignedTo = dto.AssignedTo
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, &actorID, AuditActionAssign, "booking", dto.BookingID, map[string]interface{}{
		"assigned_to": dto.AssignedTo,
	})
	s.logger.Info("booking assigned", "booking_id", dto.BookingID, "assigned_to", dto.AssignedTo, "actor_id", actorID)
	return result, nil
}

// Update applies partial contact and package edits.
func (s *Service) Update(ctx context.Context, actorID int64, id int64, dto UpdateBookingDTO) (*Booking, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var result *Booking
	err := s.locks.WithLock(id, func() error {
		if _, err := s.repo.GetByID(id); err != nil {
			return err
		}

		fields := dto.Fields()
		fields["updated_at"] = time.Now()
		if err := s.repo.UpdateFields(id, fields); err != nil {
			s.logger.Error("failed to update booking", "booking_id", id, "error", err)
			return internal.NewStorageError("failed to update booking", err)
		}

		b, err := s.repo.GetByID(id)
		if err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking updated", "booking_id", id, "actor_id", actorID)
	return result, nil
}

// Cancel transitions pending or confirmed bookings to cancelled. The
// payment ledger is untouched: a later completed webhook still records the
// payment, it just never resurrects the booking.
func (s *Service) Cancel(ctx context.Context, actorID int64, id int64) (*Booking, error) {
	var result *Booking
	err := s.locks.WithLock(id, func() error {
		b, err := s.repo.GetByID(id)
		if err != nil {
			return err
		}
		if !b.CanBeCancelled() {
			return internal.ErrBookingCancelled
		}

		if err := s.repo.UpdateFields(id, map[string]interface{}{
			"status":     StatusCancelled,
			"updated_at": time.Now(),
		}); err != nil {
			s.logger.Error("failed to cancel booking", "booking_id", id, "error", err)
			return internal.NewStorageError("failed to cancel booking", err)
		}

		b.Status = StatusCancelled
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, &actorID, AuditActionCancel, "booking", id, nil)
	s.logger.Info("booking cancelled", "booking_id", id, "actor_id", actorID)
	return result, nil
}

// UpdatePaymentStatus is the manual payment-status edit path. Marking a
// booking paid without a completed ledger row conflicts unless the caller
// explicitly overrides, and overrides always leave a distinct audit entry.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actorID int64, dto UpdatePaymentStatusDTO) (*Booking, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	overrideApplied := false
	var result *Booking
	err := s.locks.WithLock(dto.BookingID, func() error {
		b, err := s.repo.GetByID(dto.BookingID)
		if err != nil {
			return err
		}

		if dto.PaymentStatus == PaymentStatusPaid {
			completed, err := s.ledger.HasCompletedTransaction(dto.BookingID)
			if err != nil {
				s.logger.Error("ledger lookup failed", "booking_id", dto.BookingID, "error", err)
				return internal.NewStorageError("failed to check transaction ledger", err)
			}
			if !completed {
				if !dto.Override {
					s.logger.Warn("manual paid edit without completed transaction rejected",
						"booking_id", dto.BookingID, "actor_id", actorID)
					return internal.ErrNoCompletedPayment
				}
				overrideApplied = true
			}
		}

		if err := s.repo.UpdateFields(dto.BookingID, map[string]interface{}{
			"payment_status": dto.PaymentStatus,
			"updated_at":     time.Now(),
		}); err != nil {
			s.logger.Error("failed to update payment status", "booking_id", dto.BookingID, "error", err)
			return internal.NewStorageError("failed to update payment status", err)
		}

		b.PaymentStatus = dto.PaymentStatus
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := AuditActionPaymentEdit
	if overrideApplied {
		action = AuditActionPaymentOverride
	}
	s.auditor.Record(ctx, &actorID, action, "booking", dto.BookingID, map[string]interface{}{
		"payment_status": dto.PaymentStatus,
		"override":       overrideApplied,
		"reason":         dto.Reason,
	})
	s.logger.Info("payment status manually updated",
		"booking_id", dto.BookingID,
		"payment_status", dto.PaymentStatus,
		"override", overrideApplied,
		"actor_id", actorID)
	return result, nil
}

// BulkUpdateStatus applies one status to many bookings, each under its own
// lock. Per-id outcomes are reported; a failure never aborts the batch.
// Confirming requires a completed ledger transaction for each id, the same
// rule the single-edit paths enforce; Override skips the check and leaves a
// distinct audit entry listing the ids it covered.
func (s *Service) BulkUpdateStatus(ctx context.Context, actorID int64, dto BulkStatusDTO) (*BulkResponseDTO, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	resp := &BulkResponseDTO{Results: make([]BulkResult, 0, len(dto.BookingIDs))}
	var changed, overridden []int64
	for _, id := range dto.BookingIDs {
		overrode := false
		err := s.locks.WithLock(id, func() error {
			b, err := s.repo.GetByID(id)
			if err != nil {
				return err
			}
			if dto.Status == StatusCancelled && !b.CanBeCancelled() {
				return internal.ErrBookingCancelled
			}
			if dto.Status == StatusConfirmed && b.Status != StatusConfirmed {
				completed, err := s.ledger.HasCompletedTransaction(id)
				if err != nil {
					s.logger.Error("ledger lookup failed", "booking_id", id, "error", err)
					return internal.NewStorageError("failed to check transaction ledger", err)
				}
				if !completed {
					if !dto.Override {
						return internal.ErrNoCompletedPayment
					}
					overrode = true
				}
			}
			if err := s.repo.UpdateFields(id, map[string]interface{}{
				"status":     dto.Status,
				"updated_at": time.Now(),
			}); err != nil {
				return internal.NewStorageError("failed to update booking", err)
			}
			return nil
		})
		if err == nil {
			changed = append(changed, id)
			if overrode {
				overridden = append(overridden, id)
			}
		}
		resp.Results = append(resp.Results, bulkResult(id, err))
	}
	resp.tally()

	if len(changed) > 0 {
		s.auditor.Record(ctx, &actorID, AuditActionBulkStatus, "booking", 0, map[string]interface{}{
			"status":      dto.Status,
			"booking_ids": changed,
		})
	}
	if len(overridden) > 0 {
		s.auditor.Record(ctx, &actorID, AuditActionConfirmOverride, "booking", 0, map[string]interface{}{
			"booking_ids": overridden,
			"reason":      dto.Reason,
		})
	}
	s.logger.Info("bulk status update finished",
		"actor_id", actorID,
		"status", dto.Status,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed)
	return resp, nil
}

// BulkDelete removes bookings one id at a time under each id's lock.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, dto BulkDeleteDTO) (*BulkResponseDTO, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	resp := &BulkResponseDTO{Results: make([]BulkResult, 0, len(dto.BookingIDs))}
	var deleted []int64
	for _, id := range dto.BookingIDs {
		err := s.locks.WithLock(id, func() error {
			if _, err := s.repo.GetByID(id); err != nil {
				return err
			}
			if err := s.repo.Delete(id); err != nil {
				return internal.NewStorageError("failed to delete booking", err)
			}
			return nil
		})
		if err == nil {
			deleted = append(deleted, id)
		}
		resp.Results = append(resp.Results, bulkResult(id, err))
	}
	resp.tally()

	if len(deleted) > 0 {
		s.auditor.Record(ctx, &actorID, AuditActionBulkDelete, "booking", 0, map[string]interface{}{
			"booking_ids": deleted,
		})
	}
	s.logger.Info("bulk delete finished",
		"actor_id", actorID,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed)
	return resp, nil
}

func bulkResult(id int64, err error) BulkResult {
	if err == nil {
		return BulkResult{BookingID: id, Success: true}
	}
	return BulkResult{BookingID: id, Success: false, Error: err.Error()}
}

func (r *BulkResponseDTO) tally() {
	for _, res := range r.Results {
		if res.Success {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}

// Package database translates storage-engine errors into the application
// error taxonomy. Constraint violations must surface with the specific rule
// that failed, because callers differentiate behavior by kind: duplicate
// event_id means "already processed", duplicate reference_code means
// "duplicate submission", a broken foreign key means a programming error.
package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal"
)

const (
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
	pgCheckViolation  = "23514"
)

// uniqueConstraints maps unique index names (and the column substrings the
// sqlite driver reports instead) to conflict codes.
var uniqueConstraints = []struct {
	name   string
	column string
	code   internal.ErrorCode
	msg    string
}{
	{"uq_donations_reference_code", "donations.reference_code", internal.ErrCodeDuplicateReferenceCode, "duplicate submission, reuse original"},
	{"uq_donations_correlation_id", "donations.correlation_id", internal.ErrCodeDuplicateCorrelationID, "duplicate submission, reuse original"},
	{"uq_payment_events_event_id", "payment_events.event_id", internal.ErrCodeDuplicateEventID, "payment event already recorded"},
	{"uq_email_logs_provider_msg_id", "email_logs.provider_msg_id", internal.ErrCodeDuplicateProviderMsgID, "provider message already recorded"},
	{"uq_users_email", "users.email", internal.ErrCodeDuplicateEmail, "email already registered"},
	{"uq_organizations_name", "organizations.name", internal.ErrCodeDuplicateName, "organization name already taken"},
	{"uq_roles_name", "roles.name", internal.ErrCodeDuplicateName, "role name already taken"},
}

var checkConstraints = map[string]struct {
	code internal.ErrorCode
	msg  string
}{
	"chk_donations_amount_positive":       {internal.ErrCodeInvalidAmount, "amount must be greater than 0"},
	"chk_donations_email_format":          {internal.ErrCodeInvalidEmailFormat, "donor email is not a valid address"},
	"chk_donations_reference_code_format": {internal.ErrCodeInvalidReferenceFormat, "reference code must be at least 3 alphanumeric, dash or underscore characters"},
	"chk_payment_events_source_valid":     {internal.ErrCodeInvalidEventSource, "event source must be webhook or recon"},
	"chk_email_logs_type_valid":           {internal.ErrCodeInvalidEmailType, "email type must be receipt or resend"},
	"chk_email_logs_attempt_positive":     {internal.ErrCodeInvalidAttemptCount, "attempt count cannot be negative"},
}

// TranslateError maps a write error to an AppError. Returns nil for nil input;
// unknown errors come back wrapped as internal errors so nothing is swallowed.
func TranslateError(err error) *internal.AppError {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueViolation(pgErr.ConstraintName, err)
		case pgCheckViolation:
			if c, ok := checkConstraints[pgErr.ConstraintName]; ok {
				return internal.NewValidationError(c.msg, c.code).WithCause(err)
			}
			return internal.NewValidationError("constraint violation: "+pgErr.ConstraintName, internal.ErrCodeValidationFailed).WithCause(err)
		case pgFKViolation:
			// broken references mean a bug upstream, not a user error
			return &internal.AppError{
				Type:       internal.ErrorTypeInternal,
				Code:       internal.ErrCodeReferentialBreak,
				Message:    "referential integrity violation: " + pgErr.ConstraintName,
				StatusCode: 500,
				Cause:      err,
			}
		}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return uniqueViolation(err.Error(), err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &internal.AppError{
			Type:       internal.ErrorTypeInternal,
			Code:       internal.ErrCodeReferentialBreak,
			Message:    "referential integrity violation",
			StatusCode: 500,
			Cause:      err,
		}
	}

	// sqlite reports "UNIQUE constraint failed: table.column"
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return uniqueViolation(err.Error(), err)
	}

	// sqlite reports "CHECK constraint failed: <name>"
	if strings.Contains(err.Error(), "CHECK constraint failed") {
		for name, c := range checkConstraints {
			if strings.Contains(err.Error(), name) {
				return internal.NewValidationError(c.msg, c.code).WithCause(err)
			}
		}
		return internal.NewValidationError("constraint violation", internal.ErrCodeValidationFailed).WithCause(err)
	}

	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return &internal.AppError{
			Type:       internal.ErrorTypeInternal,
			Code:       internal.ErrCodeReferentialBreak,
			Message:    "referential integrity violation",
			StatusCode: 500,
			Cause:      err,
		}
	}

	return internal.NewInternalError("database error", err)
}

func uniqueViolation(detail string, cause error) *internal.AppError {
	for _, c := range uniqueConstraints {
		if strings.Contains(detail, c.name) || strings.Contains(detail, c.column) {
			return internal.NewConflictError(c.msg, c.code).WithCause(cause)
		}
	}
	return internal.NewConflictError("duplicate key", internal.ErrCodeDuplicateReferenceCode).WithCause(cause)
}

// IsNotFound reports whether err is gorm's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrInUse is returned when a delete is blocked by referencing rows.
var ErrInUse = errors.New("record is referenced by other records")

// ErrStaleStatus is returned when a conditional status update matched no row
// because the row already left the expected state.
var ErrStaleStatus = errors.New("record is no longer in the expected state")

// Unique violations, keyed by constraint name.
var (
	ErrDuplicateEmail           = errors.New("an account with this email already exists")
	ErrDuplicateStudentNumber   = errors.New("student with this student number already exists")
	ErrDuplicateInstitution     = errors.New("institution with this name already exists")
	ErrDuplicateExamCode        = errors.New("exam with this code already exists")
	ErrDuplicateRegistration    = errors.New("student is already registered for this exam")
	ErrDuplicateCandidateNumber = errors.New("candidate number already issued")
	ErrDuplicateResult          = errors.New("result already exists for this student and exam")
)

var uniqueConstraints = map[string]error{
	"account_emails_email_key":           ErrDuplicateEmail,
	"staff_accounts_email_key":           ErrDuplicateEmail,
	"students_email_key":                 ErrDuplicateEmail,
	"students_student_number_key":        ErrDuplicateStudentNumber,
	"institutions_name_key":              ErrDuplicateInstitution,
	"exams_code_key":                     ErrDuplicateExamCode,
	"registrations_student_exam_key":     ErrDuplicateRegistration,
	"registrations_candidate_number_key": ErrDuplicateCandidateNumber,
	"results_student_exam_key":           ErrDuplicateResult,
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError translates driver errors into the package's sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if mapped, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
				return mapped
			}
		case pgForeignKeyViolation:
			return ErrInUse
		}
	}
	return err
}

// expectOne turns a zero-row command into ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

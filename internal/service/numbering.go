package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// GeneralDepartmentCode buckets tickets filed without a department.
const GeneralDepartmentCode = "G"

// maxDailySequence bounds the 3-digit sequence; reservation 1000 within one
// partition/day fails the creation rather than widening the format.
const maxDailySequence = 999

// NumberGenerator produces unique, time-ordered ticket numbers of the form
// T<YY><MM><DD><DeptInitial><seq3>, sequenced per (UTC day, department)
// partition through an atomic reservation.
type NumberGenerator struct {
	departments repository.DepartmentRepository
	sequences   repository.SequenceReserver
	now         func() time.Time
}

// NewNumberGenerator constructs the generator.
func NewNumberGenerator(departments repository.DepartmentRepository, sequences repository.SequenceReserver) *NumberGenerator {
	return &NumberGenerator{
		departments: departments,
		sequences:   sequences,
		now:         time.Now,
	}
}

// Generate reserves the next number for the ticket's partition. A nil
// departmentID lands in the general "G" bucket, which sequences
// independently of every department.
func (g *NumberGenerator) Generate(ctx context.Context, departmentID *string) (string, error) {
	code := GeneralDepartmentCode
	if departmentID != nil {
		dept, err := g.departments.GetByID(ctx, *departmentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", apperrors.NewNotFound("department", map[string]any{"department_id": *departmentID})
			}
			return "", apperrors.MapError(err)
		}
		code = departmentCode(dept.Name)
	}

	day := g.now().UTC()
	seq, err := g.sequences.Reserve(ctx, day, code)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if seq > maxDailySequence {
		return "", apperrors.NewConflict("daily ticket capacity exceeded", map[string]any{
			"department_code": code,
			"date":            day.Format("2006-01-02"),
		})
	}

	return fmt.Sprintf("T%s%s%03d", day.Format("060102"), code, seq), nil
}

// departmentCode returns the department's first letter upper-cased, falling
// back to the general bucket for unusable names.
func departmentCode(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return GeneralDepartmentCode
}

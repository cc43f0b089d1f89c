package result

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cutm/results/core"
)

var (
	// errors
	ErrInvalidMarks = errors.New("marks must be positive and obtained marks must not exceed total marks")
)

// GradeFor maps a percentage to its grade. Each band includes its lower bound.
func GradeFor(percentage float64) Grade {
	switch {
	case percentage >= 90:
		return GradeO
	case percentage >= 85:
		return GradeE
	case percentage >= 80:
		return GradeA
	case percentage >= 75:
		return GradeB
	case percentage >= 65:
		return GradeC
	case percentage >= 50:
		return GradeD
	default: // includes NaN
		return GradeF
	}
}

// Aggregate sums subjects and grades the resulting percentage.
// Every entry is checked before anything is computed; all offending entries are reported.
func Aggregate(subjects []SubjectScore) (Summary, error) {
	var flds []core.FieldError
	for i, sub := range subjects {
		if sub.Obtained < 0 {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("subjects[%d].obtained", i),
				Error: "obtained marks cannot be negative",
			})
		}
		if sub.Total <= 0 {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("subjects[%d].total", i),
				Error: "total marks must be greater than 0",
			})
		} else if sub.Obtained > sub.Total {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("subjects[%d].obtained", i),
				Error: "obtained marks must not exceed total marks",
			})
		}
	}
	if flds != nil {
		return Summary{}, core.NewValidationError(ErrInvalidMarks, flds...)
	}

	var sum Summary
	for _, sub := range subjects {
		sum.Obtained += sub.Obtained
		sum.Total += sub.Total
	}
	sum.Percentage = Percentage(sum.Obtained, sum.Total)
	sum.Grade = GradeFor(sum.Percentage)
	return sum, nil
}

// Percentage returns obtained/total as a percentage rounded to 2 decimals, or 0 if total is not positive.
func Percentage(obtained, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(obtained) * 100 / float64(total)
	// FormatFloat rounds the exact binary value, ties to even.
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 2, 64), 64)
	return rounded
}

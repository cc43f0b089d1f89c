package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cutm/results/core/result"
)

const maxSubjects = 30

var (
	errInvalidSubjectCount = errors.Errorf("Please enter a valid number of subjects, between 1 and %d.", maxSubjects)
	errMarksNotNumbers     = errors.New("Input Error: Please ensure all marks are valid numbers.")
	errInvalidMarksMsg     = "Input Error: Marks must be positive and obtained marks must not exceed total marks."
)

func parseSubjectCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 || n > maxSubjects {
		return 0, errInvalidSubjectCount
	}
	return n, nil
}

// bindDraft reads the student form: identifying fields plus subject_i, marks_i and total_i for i in [1, count].
func bindDraft(ctx echo.Context, count int) (result.Draft, error) {
	d := result.Draft{
		Roll:     ctx.FormValue("roll"),
		Name:     ctx.FormValue("name"),
		Branch:   ctx.FormValue("branch"),
		Section:  ctx.FormValue("section"),
		Year:     ctx.FormValue("year"),
		Subjects: make([]result.SubjectScore, 0, count),
	}
	for i := 1; i <= count; i++ {
		n := strconv.Itoa(i)
		obtained, err := strconv.Atoi(strings.TrimSpace(ctx.FormValue("marks_" + n)))
		if err != nil {
			return result.Draft{}, errMarksNotNumbers
		}
		total, err := strconv.Atoi(strings.TrimSpace(ctx.FormValue("total_" + n)))
		if err != nil {
			return result.Draft{}, errMarksNotNumbers
		}
		d.Subjects = append(d.Subjects, result.SubjectScore{
			Name:     ctx.FormValue("subject_" + n),
			Obtained: obtained,
			Total:    total,
		})
	}
	return d, nil
}

func blankDraft(count int) result.Draft {
	return result.Draft{Subjects: make([]result.SubjectScore, count)}
}

func draftOf(rec result.Record) result.Draft {
	rec = rec.Clone()
	return result.Draft{
		Roll:     rec.Roll,
		Name:     rec.Name,
		Branch:   rec.Branch,
		Section:  rec.Section,
		Year:     rec.Year,
		Subjects: rec.Subjects,
	}
}

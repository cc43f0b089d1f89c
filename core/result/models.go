package result

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cutm/results/core"
)

// Grade is a letter grade on the university scale.
type Grade string

const (
	GradeO Grade = "O" // Outstanding
	GradeE Grade = "E" // Excellent
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F" // Fail
)

// Grades lists every grade, best first.
var Grades = []Grade{GradeO, GradeE, GradeA, GradeB, GradeC, GradeD, GradeF}

// Rank is the position of g in Grades (0 is best); unknown grades rank last.
func (g Grade) Rank() int {
	for i, grade := range Grades {
		if grade == g {
			return i
		}
	}
	return len(Grades)
}

func (g Grade) IsTop() bool  { return g == GradeO || g == GradeE }
func (g Grade) IsFail() bool { return g == GradeF }

// SubjectScore is one subject's result for one student.
type SubjectScore struct {
	Name     string `json:"subject_name" validate:"required"`
	Obtained int    `json:"obtained"`
	Total    int    `json:"total"`
}

// Record is one student's full result set, keyed by Roll.
type Record struct {
	ID         string         `json:"id"`
	Roll       string         `json:"roll"`
	Name       string         `json:"name"`
	Branch     string         `json:"branch"`
	Section    string         `json:"section"`
	Year       string         `json:"year"`
	Subjects   []SubjectScore `json:"subjects"`
	Percentage float64        `json:"percentage"`
	Grade      Grade          `json:"grade"`
	UpdatedBy  string         `json:"updated_by,omitempty"`
	CreatedAt  time.Time      `json:"created_at"` // UTC
	UpdatedAt  time.Time      `json:"updated_at"` // UTC
}

// Clone returns a copy of rec that shares no memory with it.
func (rec Record) Clone() Record {
	if rec.Subjects != nil {
		subjects := make([]SubjectScore, len(rec.Subjects))
		copy(subjects, rec.Subjects)
		rec.Subjects = subjects
	}
	return rec
}

// Draft contains the information submitted to create or replace a Record.
type Draft struct {
	Roll     string         `json:"roll" validate:"required"`
	Name     string         `json:"name" validate:"required"`
	Branch   string         `json:"branch" validate:"required"`
	Section  string         `json:"section" validate:"required"`
	Year     string         `json:"year" validate:"required"`
	Subjects []SubjectScore `json:"subjects" validate:"dive"`
}

// Clean trims the identifying fields and subject names in place.
func (d *Draft) Clean() {
	d.Roll = core.CleanString(d.Roll)
	d.Name = core.CleanString(d.Name)
	d.Branch = core.CleanString(d.Branch)
	d.Section = core.CleanString(d.Section)
	d.Year = core.CleanString(d.Year)
	subjects := make([]SubjectScore, len(d.Subjects))
	for i, sub := range d.Subjects {
		sub.Name = core.CleanString(sub.Name)
		subjects[i] = sub
	}
	d.Subjects = subjects
}

func (d Draft) Validate(validate *validator.Validate) error {
	return validate.Struct(d)
}

// Summary is the outcome of aggregating a list of SubjectScore.
type Summary struct {
	Obtained   int     `json:"obtained"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Grade      Grade   `json:"grade"`
}

package result

import (
	"math"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutm/results/core"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		percentage float64
		want       Grade
	}{
		{percentage: 100, want: GradeO},
		{percentage: 90, want: GradeO},
		{percentage: 89.99, want: GradeE},
		{percentage: 85, want: GradeE},
		{percentage: 84.99, want: GradeA},
		{percentage: 80, want: GradeA},
		{percentage: 79.99, want: GradeB},
		{percentage: 75, want: GradeB},
		{percentage: 74.99, want: GradeC},
		{percentage: 65, want: GradeC},
		{percentage: 64.99, want: GradeD},
		{percentage: 50, want: GradeD},
		{percentage: 49.99, want: GradeF},
		{percentage: 0, want: GradeF},
		{percentage: -10, want: GradeF},
		{percentage: 250, want: GradeO},
		{percentage: math.Inf(1), want: GradeO},
		{percentage: math.Inf(-1), want: GradeF},
		{percentage: math.NaN(), want: GradeF},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.percentage, 'f', -1, 64), func(t *testing.T) {
			assert.Equal(t, tt.want, GradeFor(tt.percentage))
		})
	}
}

func TestGradeFor_monotonic(t *testing.T) {
	prev := GradeFor(100)
	for p := 100.0; p >= -1; p -= 0.01 {
		g := GradeFor(p)
		require.Contains(t, Grades, g)
		if g.Rank() < prev.Rank() {
			t.Fatalf("GradeFor(%v) = %s is better than the grade of a higher percentage (%s)", p, g, prev)
		}
		prev = g
	}
}

func TestGrade_Rank(t *testing.T) {
	for i, g := range Grades {
		assert.Equal(t, i, g.Rank())
	}
	assert.Equal(t, len(Grades), Grade("Z").Rank())
	assert.True(t, GradeO.IsTop())
	assert.True(t, GradeE.IsTop())
	assert.False(t, GradeA.IsTop())
	assert.True(t, GradeF.IsFail())
	assert.False(t, GradeD.IsFail())
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0.0, Percentage(5, -1))
	assert.Equal(t, 83.0, Percentage(83, 100))
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 33.33, Percentage(1, 3))
	assert.Equal(t, 100.0, Percentage(50, 50))
	assert.Equal(t, 87.5, Percentage(7, 8))
	assert.Equal(t, 3.12, Percentage(1, 32))
	assert.Equal(t, 15.62, Percentage(5, 32))
	assert.Equal(t, 46.88, Percentage(15, 32))
	assert.Equal(t, 99.99, Percentage(9999, 10000))
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		subjects   []SubjectScore
		want       Summary
		wantFields []string
	}{
		{name: "nil", subjects: nil, want: Summary{Grade: GradeF}},
		{name: "empty", subjects: []SubjectScore{}, want: Summary{Grade: GradeF}},
		{
			name: "two subjects",
			subjects: []SubjectScore{
				{Name: "Maths", Obtained: 45, Total: 50},
				{Name: "Physics", Obtained: 38, Total: 50},
			},
			want: Summary{Obtained: 83, Total: 100, Percentage: 83, Grade: GradeA},
		},
		{
			name: "full marks",
			subjects: []SubjectScore{
				{Name: "Maths", Obtained: 100, Total: 100},
			},
			want: Summary{Obtained: 100, Total: 100, Percentage: 100, Grade: GradeO},
		},
		{
			name:     "zero obtained",
			subjects: []SubjectScore{{Name: "Maths", Obtained: 0, Total: 100}},
			want:     Summary{Obtained: 0, Total: 100, Percentage: 0, Grade: GradeF},
		},
		{
			name: "uneven totals",
			subjects: []SubjectScore{
				{Name: "Maths", Obtained: 70, Total: 100},
				{Name: "Lab", Obtained: 20, Total: 25},
				{Name: "Viva", Obtained: 9, Total: 10},
			},
			want: Summary{Obtained: 99, Total: 135, Percentage: 73.33, Grade: GradeC},
		},
		{
			name:       "obtained > total",
			subjects:   []SubjectScore{{Name: "Maths", Obtained: 60, Total: 50}},
			wantFields: []string{"subjects[0].obtained"},
		},
		{
			name:       "total = 0",
			subjects:   []SubjectScore{{Name: "Maths", Obtained: 5, Total: 0}},
			wantFields: []string{"subjects[0].total"},
		},
		{
			name:       "negative obtained",
			subjects:   []SubjectScore{{Name: "Maths", Obtained: -1, Total: 50}},
			wantFields: []string{"subjects[0].obtained"},
		},
		{
			name: "every bad entry is reported",
			subjects: []SubjectScore{
				{Name: "Maths", Obtained: 45, Total: 50},
				{Name: "Physics", Obtained: -3, Total: -1},
				{Name: "Chemistry", Obtained: 51, Total: 50},
			},
			wantFields: []string{"subjects[1].obtained", "subjects[1].total", "subjects[2].obtained"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before []SubjectScore
			if tt.subjects != nil {
				before = append([]SubjectScore{}, tt.subjects...)
			}

			got, err := Aggregate(tt.subjects)
			assert.Equal(t, before, tt.subjects, "input must not be mutated")

			if tt.wantFields != nil {
				require.Error(t, err)
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				require.True(t, ok, "want *core.ValidationError, got %T", err)
				assert.Equal(t, ErrInvalidMarks, vErr.Err)
				fields := make([]string, 0, len(vErr.Fields))
				for _, f := range vErr.Fields {
					fields = append(fields, f.Field)
				}
				assert.Equal(t, tt.wantFields, fields)
				assert.Equal(t, Summary{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

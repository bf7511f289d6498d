package dashboard

import (
	"testing"

	"patient-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		patients []models.Patient
		want     models.Stats
	}{
		{
			name:     "empty list",
			patients: nil,
			want:     models.Stats{},
		},
		{
			name: "mean of bmi and exact obese match",
			patients: []models.Patient{
				{ID: "P001", BMI: 20, Verdict: "Normal"},
				{ID: "P002", BMI: 31, Verdict: "Obese"},
				{ID: "P003", BMI: 33, Verdict: "obese"},
				{ID: "P004", BMI: 28, Verdict: "Overweight"},
			},
			want: models.Stats{Total: 4, AvgBMI: 28, Obese: 1},
		},
		{
			name: "missing bmi counts as zero",
			patients: []models.Patient{
				{ID: "P001", BMI: 30, Verdict: "Obese"},
				{ID: "P002"},
			},
			want: models.Stats{Total: 2, AvgBMI: 15, Obese: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.patients)
			assert.Equal(t, tt.want.Total, got.Total)
			assert.InDelta(t, tt.want.AvgBMI, got.AvgBMI, 1e-9)
			assert.Equal(t, tt.want.Obese, got.Obese)
		})
	}
}

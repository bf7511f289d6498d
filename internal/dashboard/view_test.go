package dashboard

import (
	"encoding/json"
	"testing"

	"patient-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewCards(t *testing.T) {
	list := []models.Patient{{ID: "P001"}, {ID: "P002"}}
	selected := &models.Patient{ID: "P002"}

	tests := []struct {
		name string
		view View
		want []models.Patient
	}{
		{"loading hides cards", View{Phase: PhaseLoading, Patients: list}, nil},
		{"loaded shows list in order", View{Phase: PhaseLoaded, Patients: list}, list},
		{"selection replaces list", View{Phase: PhaseSelected, Patients: list, Selected: selected}, []models.Patient{*selected}},
		{"failed sort keeps list", View{Phase: PhaseErrored, Patients: list, Error: "boom", FailedOp: models.OpFetchSorted}, list},
		{"failed search shows nothing", View{Phase: PhaseErrored, Patients: list, Error: "Patient not found", FailedOp: models.OpFetchOne}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.Cards())
		})
	}
}

func TestViewJSON(t *testing.T) {
	v := View{Phase: PhaseSelected, Selected: &models.Patient{ID: "P001"}, SortBy: models.SortByBMI, Order: models.OrderDesc}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"phase":"selected"`)
	assert.Contains(t, string(data), `"sortBy":"bmi"`)
	assert.Equal(t, "phase(9)", Phase(9).String())
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := NewStore(listFetcher(), models.SortByHeight, models.OrderAsc)
	s.view.Selected = &models.Patient{ID: "P001"}

	snap := s.Snapshot()
	snap.Selected.ID = "CHANGED"
	assert.Equal(t, "P001", s.Snapshot().Selected.ID)
}

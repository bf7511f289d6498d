package dashboard

import (
	"fmt"

	"patient-dashboard/internal/models"
)

// Phase tags the View with the outcome of the latest request.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseErrored
	PhaseSelected
)

var phaseNames = [...]string{"loading", "loaded", "errored", "selected"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// View is an immutable snapshot of the dashboard state. Patients is shared
// between snapshots and must not be modified.
type View struct {
	Phase    Phase            `json:"phase"`
	Patients []models.Patient `json:"patients"`
	Selected *models.Patient  `json:"selected,omitempty"`
	Error    string           `json:"error,omitempty"`
	// FailedOp is the operation that produced Error.
	FailedOp   string           `json:"failedOp,omitempty"`
	SortBy     models.SortField `json:"sortBy"`
	Order      models.SortOrder `json:"order"`
	SearchID   string           `json:"searchId"`
	Generation uint64           `json:"generation"`
}

func (v View) Loading() bool {
	return v.Phase == PhaseLoading
}

// Displayed is the selected patient alone when there is one, otherwise the
// list in backend order.
func (v View) Displayed() []models.Patient {
	if v.Selected != nil {
		return []models.Patient{*v.Selected}
	}
	return v.Patients
}

// ShowCards reports whether patient cards are rendered. They are hidden while
// loading and after a failed search; a failed sort keeps the previous list.
func (v View) ShowCards() bool {
	switch v.Phase {
	case PhaseLoading:
		return false
	case PhaseErrored:
		return v.FailedOp != models.OpFetchOne
	}
	return true
}

// Cards returns the patients to render as cards.
func (v View) Cards() []models.Patient {
	if !v.ShowCards() {
		return nil
	}
	return v.Displayed()
}

func (v View) Stats() models.Stats {
	return Aggregate(v.Patients)
}

func (v View) clone() View {
	out := v
	if v.Selected != nil {
		selected := *v.Selected
		out.Selected = &selected
	}
	return out
}

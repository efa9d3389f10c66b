package visits

import "strings"

// Step is the derived progress position used to drive the stepper UI and
// gate available actions. It has no persisted representation.
type Step int

const (
	StepAddNotes Step = iota
	StepGeneratePrescription
	StepPrint
	StepDone
)

var stepLabels = [...]string{"Add Notes", "Generate Prescription", "Print", "Done"}

// Label returns the display name for the step.
func (s Step) Label() string {
	if s < StepAddNotes || s > StepDone {
		return ""
	}
	return stepLabels[s]
}

// StepFor derives the step from a visit snapshot and the medicine count of
// its loaded prescription. The cascade is ordered: completion wins over an
// attached prescription, which wins over notes. It is pure and must be
// recomputed on every data change, never cached.
func StepFor(v *Visit, medicineCount int) Step {
	switch {
	case v.Status == StatusCompleted:
		return StepDone
	case medicineCount > 0:
		return StepPrint
	case strings.TrimSpace(v.Notes) != "":
		return StepGeneratePrescription
	default:
		return StepAddNotes
	}
}

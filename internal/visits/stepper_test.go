package visits

import "testing"

func TestStepFor(t *testing.T) {
	tests := []struct {
		name          string
		status        Status
		notes         string
		medicineCount int
		want          Step
	}{
		{"fresh waiting visit", StatusWaiting, "", 0, StepAddNotes},
		{"in progress no data", StatusInProgress, "", 0, StepAddNotes},
		{"blank notes ignored", StatusInProgress, "   ", 0, StepAddNotes},
		{"notes only", StatusInProgress, "fever 3 days", 0, StepGeneratePrescription},
		{"medicines attached", StatusInProgress, "fever 3 days", 2, StepPrint},
		{"medicines win over empty notes", StatusInProgress, "", 1, StepPrint},
		{"completed is terminal", StatusCompleted, "", 0, StepDone},
		{"completed wins over medicines", StatusCompleted, "notes", 3, StepDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Visit{Status: tt.status, Notes: tt.notes}
			if got := StepFor(v, tt.medicineCount); got != tt.want {
				t.Errorf("expected step %d, got %d", tt.want, got)
			}
		})
	}
}

func TestStepForIsDeterministic(t *testing.T) {
	v := &Visit{Status: StatusInProgress, Notes: "headache"}

	first := StepFor(v, 1)
	for i := 0; i < 10; i++ {
		if got := StepFor(v, 1); got != first {
			t.Fatalf("step changed between calls: %d then %d", first, got)
		}
	}
	if v.Status != StatusInProgress || v.Notes != "headache" {
		t.Error("StepFor must not mutate the visit")
	}
}

func TestStepLabels(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{StepAddNotes, "Add Notes"},
		{StepGeneratePrescription, "Generate Prescription"},
		{StepPrint, "Print"},
		{StepDone, "Done"},
		{Step(9), ""},
	}
	for _, tt := range tests {
		if got := tt.step.Label(); got != tt.want {
			t.Errorf("Step(%d).Label() = %q, want %q", tt.step, got, tt.want)
		}
	}
}

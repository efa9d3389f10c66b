package prescriptions

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FollowUpUnit is the wire enum for follow-up scheduling.
type FollowUpUnit string

const (
	UnitDays   FollowUpUnit = "DAYS"
	UnitWeeks  FollowUpUnit = "WEEKS"
	UnitMonths FollowUpUnit = "MONTHS"
)

// Valid reports whether u is a known unit.
func (u FollowUpUnit) Valid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths:
		return true
	}
	return false
}

// FollowUp is an optional future-checkup hint. A zero value collapses to
// "none" rather than a zero-value record.
type FollowUp struct {
	Value int          `json:"value"`
	Unit  FollowUpUnit `json:"unit"`
}

// Medicine is one prescription line item. A blank name marks a placeholder
// row kept by the editor for UX; placeholders never reach storage.
type Medicine struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Duration string `json:"duration"`
	Notes    string `json:"notes,omitempty"`
}

// Prescription is owned by exactly one visit through visit.prescription_id.
// The persisted medicine list is always non-empty and fully populated.
type Prescription struct {
	ID        string     `json:"id"`
	VisitID   string     `json:"visit_id"`
	Medicines []Medicine `json:"medicines"`
	FollowUp  *FollowUp  `json:"follow_up,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Draft is the editable prescription state submitted by the client. It may
// contain trailing placeholder rows.
type Draft struct {
	Medicines []Medicine `json:"medicines"`
	FollowUp  *FollowUp  `json:"follow_up,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// dosagePattern is the canonical digit-dash form, e.g. "1-0-1".
var dosagePattern = regexp.MustCompile(`^[0-9]+-[0-9]+-[0-9]+$`)

// FilterBlankRows drops placeholder rows with a blank name.
func FilterBlankRows(meds []Medicine) []Medicine {
	kept := make([]Medicine, 0, len(meds))
	for _, m := range meds {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// Clean filters placeholder rows and validates what remains. Field keys in
// the returned error use the submitted row index, so the client can map an
// error back to the originating editor row.
func (d *Draft) Clean() ([]Medicine, *FollowUp, error) {
	fields := FieldErrors{}
	kept := make([]Medicine, 0, len(d.Medicines))
	for i, m := range d.Medicines {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		m.Name = strings.TrimSpace(m.Name)
		m.Dosage = strings.TrimSpace(m.Dosage)
		m.Duration = strings.TrimSpace(m.Duration)
		switch {
		case m.Dosage == "":
			fields[fmt.Sprintf("medicine_%d_dosage", i)] = "dosage is required"
		case !dosagePattern.MatchString(m.Dosage):
			fields[fmt.Sprintf("medicine_%d_dosage", i)] = "dosage must be in D-D-D form, e.g. 1-0-1"
		}
		if m.Duration == "" {
			fields[fmt.Sprintf("medicine_%d_duration", i)] = "duration is required"
		}
		kept = append(kept, m)
	}
	if len(kept) == 0 {
		return nil, nil, ErrNoMedicines
	}

	fu := d.FollowUp
	if fu != nil {
		if fu.Value == 0 {
			fu = nil
		} else {
			if fu.Value < 0 {
				fields["follow_up"] = "follow-up value must be a positive number"
			}
			if !fu.Unit.Valid() {
				fields["follow_up_unit"] = "follow-up unit must be DAYS, WEEKS or MONTHS"
			}
		}
	}

	if len(fields) > 0 {
		return nil, nil, &ValidationError{Message: "invalid prescription fields", Fields: fields}
	}
	if fu != nil {
		clone := *fu
		fu = &clone
	}
	return kept, fu, nil
}

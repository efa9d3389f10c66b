package delivery

import (
	"time"

	"github.com/careloop/clinicdesk/internal/patients"
	"github.com/careloop/clinicdesk/internal/prescriptions"
	"github.com/careloop/clinicdesk/internal/visits"
)

// PrintDocument is the structured prescription-print contract. Layout and
// styling belong to the client; this is the data it prints from.
type PrintDocument struct {
	ClinicName    string                  `json:"clinic_name"`
	ClinicAddress string                  `json:"clinic_address,omitempty"`
	DoctorName    string                  `json:"doctor_name,omitempty"`
	Patient       PrintPatient            `json:"patient"`
	VisitDate     time.Time               `json:"visit_date"`
	VisitNotes    string                  `json:"visit_notes,omitempty"`
	Items         []PrintItem             `json:"prescription_items"`
	FollowUp      *prescriptions.FollowUp `json:"follow_up,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	GeneratedAt   time.Time               `json:"generated_at"`
}

// PrintPatient is the patient block on the letterhead.
type PrintPatient struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile_number"`
	Age    *int   `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
}

// PrintItem is one medicine line.
type PrintItem struct {
	Medicine string `json:"medicine"`
	Dosage   string `json:"dosage"`
	Duration string `json:"duration"`
	Notes    string `json:"notes,omitempty"`
}

// NewPrintDocument assembles the print contract from the stored records.
func NewPrintDocument(clinic ClinicInfo, patient *patients.Patient, v *visits.Visit, p *prescriptions.Prescription) *PrintDocument {
	items := make([]PrintItem, 0, len(p.Medicines))
	for _, m := range p.Medicines {
		items = append(items, PrintItem{
			Medicine: m.Name,
			Dosage:   m.Dosage,
			Duration: m.Duration,
			Notes:    m.Notes,
		})
	}
	doc := &PrintDocument{
		ClinicName:    clinic.Name,
		ClinicAddress: clinic.Address,
		DoctorName:    clinic.Doctor,
		Patient: PrintPatient{
			Name:   patient.Name,
			Mobile: patient.Mobile,
			Age:    patient.Age,
			Gender: string(patient.Gender),
		},
		VisitDate:   v.Date,
		VisitNotes:  v.Notes,
		Items:       items,
		FollowUp:    p.FollowUp,
		Notes:       p.Notes,
		GeneratedAt: time.Now().UTC(),
	}
	return doc
}

package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/clinicdesk/internal/observability/metrics"
	"github.com/careloop/clinicdesk/internal/patients"
	"github.com/careloop/clinicdesk/internal/prescriptions"
	"github.com/careloop/clinicdesk/internal/visits"
	"github.com/careloop/clinicdesk/internal/whatsapp"
	"github.com/careloop/clinicdesk/pkg/logging"
)

type fakeSender struct {
	sent []whatsapp.SendPrescriptionRequest
	err  error
}

func (f *fakeSender) SendPrescription(ctx context.Context, req whatsapp.SendPrescriptionRequest) (*whatsapp.SendResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &whatsapp.SendResponse{MessageID: "wamid.test", Status: "accepted"}, nil
}

type fixture struct {
	dispatcher *Dispatcher
	visits     *visits.Service
	patients   patients.Repository
	sender     *fakeSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	patientRepo := patients.NewInMemoryRepository()
	visitRepo := visits.NewInMemoryRepository()
	visitSvc := visits.NewService(visitRepo, logging.Default(), nil)
	binder := prescriptions.NewBinder(prescriptions.NewInMemoryRepository(visitRepo), visitRepo, nil, logging.Default(), nil)
	sender := &fakeSender{}
	d := NewDispatcher(visitSvc, binder, patientRepo, sender, nil,
		ClinicInfo{Name: "Sunrise Clinic", Doctor: "Dr. Mehta"}, logging.Default(), nil)
	return &fixture{dispatcher: d, visits: visitSvc, patients: patientRepo, sender: sender}
}

func (f *fixture) startVisit(t *testing.T) *visits.Visit {
	t.Helper()
	p, err := f.patients.Create(context.Background(), &patients.CreatePatientRequest{
		Name:   "Asha Rao",
		Mobile: "9876543210",
		Gender: patients.GenderFemale,
	})
	require.NoError(t, err)
	v, err := f.visits.Create(context.Background(), &visits.CreateVisitRequest{PatientID: p.ID})
	require.NoError(t, err)
	_, err = f.visits.Start(context.Background(), v.ID)
	require.NoError(t, err)
	return v
}

func validDraft() *prescriptions.Draft {
	return &prescriptions.Draft{Medicines: []prescriptions.Medicine{
		{Name: "Paracetamol", Dosage: "1-0-1", Duration: "5 days"},
	}}
}

func TestFinishSavesThenCompletes(t *testing.T) {
	f := newFixture(t)
	v := f.startVisit(t)

	res, err := f.dispatcher.Finish(context.Background(), v.ID, validDraft())
	require.NoError(t, err)
	assert.Equal(t, visits.StatusCompleted, res.Visit.Status)
	assert.NotEmpty(t, res.Prescription.ID)
	assert.Equal(t, res.Prescription.ID, res.Visit.PrescriptionID)
}

func TestFinishRejectsEmptyDraft(t *testing.T) {
	f := newFixture(t)
	v := f.startVisit(t)

	_, err := f.dispatcher.Finish(context.Background(), v.ID, &prescriptions.Draft{
		Medicines: []prescriptions.Medicine{{Name: "  "}},
	})
	require.ErrorIs(t, err, prescriptions.ErrNoMedicines)

	current, err := f.visits.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, visits.StatusInProgress, current.Status)
	assert.Empty(t, current.PrescriptionID)
}

func TestFinishRequiresInProgress(t *testing.T) {
	f := newFixture(t)
	p, err := f.patients.Create(context.Background(), &patients.CreatePatientRequest{
		Name:   "Asha Rao",
		Mobile: "9123456780",
		Gender: patients.GenderFemale,
	})
	require.NoError(t, err)
	v, err := f.visits.Create(context.Background(), &visits.CreateVisitRequest{PatientID: p.ID})
	require.NoError(t, err)

	_, err = f.dispatcher.Finish(context.Background(), v.ID, validDraft())
	require.ErrorIs(t, err, visits.ErrNotInProgress)
}

func TestWhatsAppSuccessCompletes(t *testing.T) {
	f := newFixture(t)
	v := f.startVisit(t)

	res, err := f.dispatcher.SendWhatsApp(context.Background(), v.ID, validDraft())
	require.NoError(t, err)
	assert.Equal(t, visits.StatusCompleted, res.Visit.Status)
	assert.Equal(t, "wamid.test", res.MessageID)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "9876543210", f.sender.sent[0].Mobile)
	assert.Contains(t, f.sender.sent[0].Body, "Paracetamol")
}

func TestWhatsAppFailureLeavesInProgress(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("gateway timeout")
	v := f.startVisit(t)

	_, err := f.dispatcher.SendWhatsApp(context.Background(), v.ID, validDraft())
	require.ErrorIs(t, err, ErrDeliveryFailed)

	current, err := f.visits.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, visits.StatusInProgress, current.Status)
	// The save succeeded before the send, so a retry updates in place.
	assert.NotEmpty(t, current.PrescriptionID)
}

func TestWhatsAppWithoutSender(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.sender = nil
	v := f.startVisit(t)

	_, err := f.dispatcher.SendWhatsApp(context.Background(), v.ID, validDraft())
	require.ErrorIs(t, err, ErrWhatsAppUnavailable)
}

func TestPrintReturnsDocumentAndCompletes(t *testing.T) {
	f := newFixture(t)
	v := f.startVisit(t)

	res, err := f.dispatcher.Print(context.Background(), v.ID, validDraft())
	require.NoError(t, err)
	assert.Equal(t, visits.StatusCompleted, res.Visit.Status)
	require.NotNil(t, res.Document)
	assert.Equal(t, "Sunrise Clinic", res.Document.ClinicName)
	assert.Equal(t, "Asha Rao", res.Document.Patient.Name)
	require.Len(t, res.Document.Items, 1)
	assert.Equal(t, "Paracetamol", res.Document.Items[0].Medicine)
}

func TestPreviewDoesNotComplete(t *testing.T) {
	f := newFixture(t)
	v := f.startVisit(t)

	_, err := f.dispatcher.Finish(context.Background(), v.ID, validDraft())
	require.NoError(t, err)

	// Preview of a completed visit renders without touching state.
	doc, err := f.dispatcher.Preview(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", doc.Patient.Name)
}

func TestPreviewRequiresSavedPrescription(t *testing.T) {
	f := newFixture(t)
	v := f.startVisit(t)

	_, err := f.dispatcher.Preview(context.Background(), v.ID)
	require.ErrorIs(t, err, visits.ErrPrescriptionNotSaved)

	current, err := f.visits.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, visits.StatusInProgress, current.Status)
}

func TestFinishRecordsDispatchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	patientRepo := patients.NewInMemoryRepository()
	visitRepo := visits.NewInMemoryRepository()
	visitSvc := visits.NewService(visitRepo, logging.Default(), nil)
	binder := prescriptions.NewBinder(prescriptions.NewInMemoryRepository(visitRepo), visitRepo, nil, logging.Default(), nil)
	d := NewDispatcher(visitSvc, binder, patientRepo, &fakeSender{}, nil,
		ClinicInfo{Name: "Sunrise Clinic"}, logging.Default(), metrics.NewWorkflowMetrics(reg))

	p, err := patientRepo.Create(context.Background(), &patients.CreatePatientRequest{
		Name:   "Asha Rao",
		Mobile: "9876543210",
		Gender: patients.GenderFemale,
	})
	require.NoError(t, err)
	v, err := visitSvc.Create(context.Background(), &visits.CreateVisitRequest{PatientID: p.ID})
	require.NoError(t, err)
	_, err = visitSvc.Start(context.Background(), v.ID)
	require.NoError(t, err)

	_, err = d.Finish(context.Background(), v.ID, validDraft())
	require.NoError(t, err)

	series, err := testutil.GatherAndCount(reg,
		"clinicdesk_delivery_dispatch_total",
		"clinicdesk_delivery_dispatch_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

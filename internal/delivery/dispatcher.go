package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/careloop/clinicdesk/internal/notify"
	"github.com/careloop/clinicdesk/internal/observability/metrics"
	"github.com/careloop/clinicdesk/internal/patients"
	"github.com/careloop/clinicdesk/internal/prescriptions"
	"github.com/careloop/clinicdesk/internal/visits"
	"github.com/careloop/clinicdesk/internal/whatsapp"
	"github.com/careloop/clinicdesk/pkg/logging"
)

var tracer = otel.Tracer("clinicdesk.internal.delivery")

// Channel names the terminal action that closed out a visit.
const (
	ChannelFinish   = "finish"
	ChannelPrint    = "print"
	ChannelWhatsApp = "whatsapp"
)

// PrescriptionSender delivers a rendered prescription to the patient.
type PrescriptionSender interface {
	SendPrescription(ctx context.Context, req whatsapp.SendPrescriptionRequest) (*whatsapp.SendResponse, error)
}

// ClinicInfo is the letterhead data stamped on outgoing prescriptions.
type ClinicInfo struct {
	Name    string
	Address string
	Doctor  string
}

// Dispatcher owns the terminal visit actions: finish, print and WhatsApp.
// Every path saves the prescription before any COMPLETED transition, so an
// unsaved draft can never complete a visit.
type Dispatcher struct {
	visits   *visits.Service
	binder   *prescriptions.Binder
	patients patients.Repository
	sender   PrescriptionSender
	notifier *notify.Service
	clinic   ClinicInfo
	logger   *logging.Logger
	metrics  *metrics.WorkflowMetrics
}

// NewDispatcher constructs a dispatcher. The sender and notifier are
// optional; without a sender the WhatsApp action reports unavailable.
func NewDispatcher(
	visitSvc *visits.Service,
	binder *prescriptions.Binder,
	patientRepo patients.Repository,
	sender PrescriptionSender,
	notifier *notify.Service,
	clinic ClinicInfo,
	logger *logging.Logger,
	m *metrics.WorkflowMetrics,
) *Dispatcher {
	if visitSvc == nil {
		panic("delivery: visit service required")
	}
	if binder == nil {
		panic("delivery: binder required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		visits:   visitSvc,
		binder:   binder,
		patients: patientRepo,
		sender:   sender,
		notifier: notifier,
		clinic:   clinic,
		logger:   logger,
		metrics:  m,
	}
}

// Result is the outcome of a terminal action.
type Result struct {
	Visit        *visits.Visit
	Prescription *prescriptions.Prescription
	Document     *PrintDocument
	MessageID    string
}

// Finish saves the draft and completes the visit with no delivery side
// effect.
func (d *Dispatcher) Finish(ctx context.Context, visitID string, draft *prescriptions.Draft) (*Result, error) {
	return d.complete(ctx, ChannelFinish, visitID, draft, nil)
}

// Print saves the draft, completes the visit and returns the print document.
func (d *Dispatcher) Print(ctx context.Context, visitID string, draft *prescriptions.Draft) (*Result, error) {
	return d.complete(ctx, ChannelPrint, visitID, draft, func(ctx context.Context, res *Result) error {
		doc, err := d.renderDocument(ctx, res.Visit, res.Prescription)
		if err != nil {
			return err
		}
		res.Document = doc
		return nil
	})
}

// Preview renders the print document for an existing visit without saving or
// completing anything. Rendering a preview is never a state transition.
func (d *Dispatcher) Preview(ctx context.Context, visitID string) (*PrintDocument, error) {
	v, err := d.visits.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.PrescriptionID == "" {
		return nil, visits.ErrPrescriptionNotSaved
	}
	p, err := d.binder.Get(ctx, v.PrescriptionID)
	if err != nil {
		return nil, err
	}
	return d.renderDocument(ctx, v, p)
}

// SendWhatsApp saves the draft, delivers the prescription and only then
// completes the visit. A failed send leaves the visit IN_PROGRESS with the
// prescription saved, so the front desk can retry or fall back to print.
func (d *Dispatcher) SendWhatsApp(ctx context.Context, visitID string, draft *prescriptions.Draft) (*Result, error) {
	if d.sender == nil {
		return nil, ErrWhatsAppUnavailable
	}
	return d.complete(ctx, ChannelWhatsApp, visitID, draft, func(ctx context.Context, res *Result) error {
		patient, err := d.lookupPatient(ctx, res.Visit.PatientID)
		if err != nil {
			return err
		}
		resp, err := d.sender.SendPrescription(ctx, whatsapp.SendPrescriptionRequest{
			Mobile:      patient.Mobile,
			PatientName: patient.Name,
			Body:        renderMessageBody(d.clinic, patient, res.Prescription),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		res.MessageID = resp.MessageID
		return nil
	})
}

// complete runs the shared save → deliver → complete pipeline. The deliver
// hook runs after the save and before the COMPLETED transition; its failure
// aborts completion.
func (d *Dispatcher) complete(ctx context.Context, channel, visitID string, draft *prescriptions.Draft, deliver func(context.Context, *Result) error) (*Result, error) {
	ctx, span := tracer.Start(ctx, "delivery."+channel)
	defer span.End()
	span.SetAttributes(attribute.String("clinicdesk.visit_id", visitID))
	start := time.Now()

	saved, err := d.binder.Save(ctx, visitID, draft)
	if err != nil {
		return nil, err
	}

	v, err := d.visits.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	res := &Result{Visit: v, Prescription: saved.Prescription}

	if deliver != nil {
		if err := deliver(ctx, res); err != nil {
			span.RecordError(err)
			d.metrics.ObserveDispatch(channel, "failed")
			d.logger.Warn("delivery failed, visit left in progress", "channel", channel, "visit_id", visitID, "error", err)
			return nil, err
		}
	}

	completed, err := d.visits.Complete(ctx, visitID)
	if err != nil {
		return nil, err
	}
	res.Visit = completed

	d.metrics.ObserveDispatch(channel, "ok")
	d.metrics.ObserveDispatchLatency(channel, time.Since(start).Seconds())
	d.logger.Info("visit closed out", "channel", channel, "visit_id", visitID, "prescription_id", saved.Prescription.ID)
	d.notifyCompletion(completed, saved.Prescription)
	return res, nil
}

// notifyCompletion is fire-and-forget; notification failures never surface
// to the caller.
func (d *Dispatcher) notifyCompletion(v *visits.Visit, p *prescriptions.Prescription) {
	if d.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		evt := notify.VisitCompleted{
			VisitID:       v.ID,
			MedicineCount: len(p.Medicines),
			CompletedAt:   time.Now(),
		}
		if p.FollowUp != nil {
			evt.FollowUpText = notify.FollowUpText(p.FollowUp.Value, string(p.FollowUp.Unit))
		}
		if patient, err := d.lookupPatient(ctx, v.PatientID); err == nil {
			evt.PatientName = patient.Name
			evt.PatientMobile = patient.Mobile
		}
		if err := d.notifier.NotifyVisitCompleted(ctx, evt); err != nil {
			d.logger.Warn("completion notification failed", "visit_id", v.ID, "error", err)
		}
	}()
}

func (d *Dispatcher) lookupPatient(ctx context.Context, patientID string) (*patients.Patient, error) {
	if d.patients == nil {
		return nil, fmt.Errorf("delivery: patient repository not configured")
	}
	return d.patients.GetByID(ctx, patientID)
}

func (d *Dispatcher) renderDocument(ctx context.Context, v *visits.Visit, p *prescriptions.Prescription) (*PrintDocument, error) {
	patient, err := d.lookupPatient(ctx, v.PatientID)
	if err != nil {
		return nil, err
	}
	return NewPrintDocument(d.clinic, patient, v, p), nil
}

func renderMessageBody(clinic ClinicInfo, patient *patients.Patient, p *prescriptions.Prescription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prescription for %s\n", patient.Name)
	if clinic.Doctor != "" {
		fmt.Fprintf(&b, "%s, %s\n", clinic.Doctor, clinic.Name)
	}
	b.WriteString("\n")
	for i, m := range p.Medicines {
		fmt.Fprintf(&b, "%d. %s  %s  %s", i+1, m.Name, m.Dosage, m.Duration)
		if m.Notes != "" {
			fmt.Fprintf(&b, "  (%s)", m.Notes)
		}
		b.WriteString("\n")
	}
	if p.FollowUp != nil {
		fmt.Fprintf(&b, "\nFollow-up: in %d %s\n", p.FollowUp.Value, strings.ToLower(string(p.FollowUp.Unit)))
	}
	if p.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Notes)
	}
	return b.String()
}

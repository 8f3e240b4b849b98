package services

import (
	"strings"
	"time"
)

type AppointmentStore interface {
	InsertAppointment(a *Appointment) (*Appointment, error)
	GetAppointment(id string) (*Appointment, error)
	UpdateAppointment(a *Appointment) error
	ListAppointmentsByUser(userID string) ([]*Appointment, error)
	AddAudit(entry AuditEntry)
}

// AppointmentBucket is the temporal classification shown in the
// "my appointments" view.
type AppointmentBucket string

const (
	BucketUpcoming    AppointmentBucket = "upcoming"
	BucketToday       AppointmentBucket = "today"
	BucketPast        AppointmentBucket = "past"
	BucketUnscheduled AppointmentBucket = "unscheduled"
)

// AppointmentService runs the support-appointment workflow:
// pending -> confirmed -> completed, with cancellation from either of the
// first two states.
type AppointmentService struct {
	store AppointmentStore
	now   func() time.Time
	idGen func() string
}

func NewAppointmentService(store AppointmentStore) *AppointmentService {
	return &AppointmentService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(10) },
	}
}

func (s *AppointmentService) Request(studentID string, kind AppointmentKind, motive string, preferredAt *time.Time, notes string) (*Appointment, error) {
	if studentID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if isBlank(motive) {
		return nil, NewInvalidError("motive required")
	}
	switch kind {
	case AppointmentPsychological, AppointmentAcademic, AppointmentGeneral:
	case "":
		kind = AppointmentGeneral
	default:
		return nil, NewInvalidError("invalid appointment kind")
	}
	a := &Appointment{
		ID:           s.idGen(),
		StudentID:    studentID,
		Kind:         kind,
		Motive:       strings.TrimSpace(motive),
		Status:       AppointmentPending,
		RequestedAt:  s.now(),
		PreferredAt:  preferredAt,
		StudentNotes: notes,
	}
	created, err := s.store.InsertAppointment(a)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: a.RequestedAt, Actor: studentID, Action: "request_appointment", Target: a.ID})
	if created == nil {
		return a, nil
	}
	return created, nil
}

func (s *AppointmentService) Confirm(id, staffID string, scheduledAt time.Time, location string) (*Appointment, error) {
	a, err := s.store.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("appointment not found")
	}
	if a.Status != AppointmentPending {
		return nil, NewConflictError("only pending appointments can be confirmed")
	}
	a.StaffID = staffID
	a.Status = AppointmentConfirmed
	a.ScheduledAt = &scheduledAt
	a.Location = location
	if err := s.store.UpdateAppointment(a); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: staffID, Action: "confirm_appointment", Target: id})
	return a, nil
}

func (s *AppointmentService) Complete(id, actor, staffNotes string) (*Appointment, error) {
	a, err := s.store.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("appointment not found")
	}
	if a.Status != AppointmentConfirmed {
		return nil, NewConflictError("only confirmed appointments can be completed")
	}
	now := s.now()
	a.Status = AppointmentCompleted
	a.CompletedAt = &now
	if staffNotes != "" {
		a.StaffNotes = staffNotes
	}
	if err := s.store.UpdateAppointment(a); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor, Action: "complete_appointment", Target: id})
	return a, nil
}

// Cancel is allowed for the owning student, the assigned staff member, or
// an admin.
func (s *AppointmentService) Cancel(id, actor string, admin bool) (*Appointment, error) {
	a, err := s.store.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("appointment not found")
	}
	if !admin && actor != a.StudentID && (a.StaffID == "" || actor != a.StaffID) {
		return nil, NewForbiddenError("appointment belongs to another user")
	}
	if a.Status != AppointmentPending && a.Status != AppointmentConfirmed {
		return nil, NewConflictError("appointment can no longer be cancelled")
	}
	a.Status = AppointmentCancelled
	if err := s.store.UpdateAppointment(a); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "cancel_appointment", Target: id})
	return a, nil
}

// Classify places an appointment on the timeline relative to now. Cancelled
// and completed appointments always read as past; a confirmed one is bucketed
// by its scheduled date, and anything without a date yet is unscheduled.
func Classify(a *Appointment, now time.Time) AppointmentBucket {
	if a.Status == AppointmentCompleted || a.Status == AppointmentCancelled {
		return BucketPast
	}
	if a.ScheduledAt == nil {
		return BucketUnscheduled
	}
	y1, m1, d1 := a.ScheduledAt.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return BucketToday
	}
	if a.ScheduledAt.After(now) {
		return BucketUpcoming
	}
	return BucketPast
}

// ListByBucket returns the user's appointments in the given bucket; an empty
// bucket returns everything.
func (s *AppointmentService) ListByBucket(userID string, bucket AppointmentBucket) ([]*Appointment, error) {
	all, err := s.store.ListAppointmentsByUser(userID)
	if err != nil {
		return nil, err
	}
	if bucket == "" {
		return all, nil
	}
	now := s.now()
	out := make([]*Appointment, 0, len(all))
	for _, a := range all {
		if Classify(a, now) == bucket {
			out = append(out, a)
		}
	}
	return out, nil
}

package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
)

// State transitions possibilities:
//
//	pending → confirmed → completed
//	pending → cancelled
//	confirmed → cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	ScheduledAt time.Time `gorm:"column:scheduled_at;not null;index"`
	Status      Status    `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	Reason      string    `gorm:"column:reason;type:text"`

	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CancelledBy *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`

	// Version increments on every status change.
	Version int `gorm:"column:version;not null;default:1"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}

// who may take an edge besides admin/superadmin
type edgeGrant struct {
	patient bool // owning patient
	doctor  bool // assigned doctor
}

type edge struct {
	from, to Status
}

var transitions = map[edge]edgeGrant{
	{StatusPending, StatusConfirmed}:   {doctor: true},
	{StatusPending, StatusCancelled}:   {patient: true, doctor: true},
	{StatusConfirmed, StatusCompleted}: {doctor: true},
	{StatusConfirmed, StatusCancelled}: {patient: true, doctor: true},
}

func (a *Appointment) CanTransitionTo(target Status) bool {
	_, ok := transitions[edge{a.Status, target}]
	return ok
}

// Transition validates moving a to target on behalf of actor and returns
// the updated appointment. a itself is never modified, so a failed call
// leaves no partial state behind. a must be freshly loaded: the result is
// only committed through a compare-and-set on a.Status.
func Transition(a *Appointment, target Status, actor domain.Actor, now time.Time) (*Appointment, error) {
	admin := actor.IsStaffAdmin()
	doctor := actor.IsDoctor(a.DoctorID)
	patient := actor.IsPatient(a.PatientID)

	if !admin && !doctor && !patient {
		return nil, &domain.DeniedError{Rule: "transition-relation", Reason: "actor is not related to the appointment"}
	}

	if a.Status.IsTerminal() {
		return nil, &TransitionError{From: a.Status, To: target}
	}

	grant, ok := transitions[edge{a.Status, target}]
	if !ok {
		return nil, &TransitionError{From: a.Status, To: target}
	}

	if !admin && !(doctor && grant.doctor) && !(patient && grant.patient) {
		return nil, &domain.DeniedError{
			Rule:   "transition-role",
			Reason: "actor's relation does not permit " + string(a.Status) + " -> " + string(target),
		}
	}

	next := *a
	next.Status = target
	next.Version = a.Version + 1
	next.UpdatedAt = now

	switch target {
	case StatusConfirmed:
		next.ConfirmedAt = &now
	case StatusCompleted:
		next.CompletedAt = &now
	case StatusCancelled:
		by := actor.UserID
		next.CancelledAt = &now
		next.CancelledBy = &by
	}

	return &next, nil
}

type CreateAppointmentCommand struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Reason      string
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps paging to sane defaults.
func (q *ListAppointmentsQuery) Normalize() {
	if q.PageSize <= 0 || q.PageSize > maxPageSize {
		q.PageSize = defaultPageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}
}

// Offset is the number of rows to skip for q.Page. Call Normalize first.
func (q *ListAppointmentsQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

func NewPage(items []*Appointment, total int64, q *ListAppointmentsQuery) *PagedAppointments {
	pages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &PagedAppointments{
		Appointments: items,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   pages,
	}
}

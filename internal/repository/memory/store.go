// Package memory is an in-process implementation of every repository. It
// backs the service and handler tests and local runs without Postgres.
// Values are copied in and out so callers never share state with the store.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/clinical"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
)

// Store holds all tables behind one lock so cross-table reads (the
// ownership walk, appointments by day) see a consistent snapshot.
type Store struct {
	mu sync.RWMutex

	appointments  map[uuid.UUID]appointment.Appointment
	blocks        map[uuid.UUID]schedule.Block
	doctors       map[uuid.UUID]doctor.Doctor
	specialties   map[uuid.UUID]doctor.Specialty
	patients      map[uuid.UUID]patient.Patient
	users         map[uuid.UUID]domain.User
	records       map[uuid.UUID]clinical.MedicalRecord
	treatments    map[uuid.UUID]clinical.Treatment
	prescriptions map[uuid.UUID]clinical.Prescription
	exams         map[uuid.UUID]clinical.Exam
	medications   map[uuid.UUID]clinical.Medication
	invoices      map[uuid.UUID]billing.Invoice
	payments      map[uuid.UUID]billing.Payment
	audit         []domain.AuditLog
}

func NewStore() *Store {
	return &Store{
		appointments:  make(map[uuid.UUID]appointment.Appointment),
		blocks:        make(map[uuid.UUID]schedule.Block),
		doctors:       make(map[uuid.UUID]doctor.Doctor),
		specialties:   make(map[uuid.UUID]doctor.Specialty),
		patients:      make(map[uuid.UUID]patient.Patient),
		users:         make(map[uuid.UUID]domain.User),
		records:       make(map[uuid.UUID]clinical.MedicalRecord),
		treatments:    make(map[uuid.UUID]clinical.Treatment),
		prescriptions: make(map[uuid.UUID]clinical.Prescription),
		exams:         make(map[uuid.UUID]clinical.Exam),
		medications:   make(map[uuid.UUID]clinical.Medication),
		invoices:      make(map[uuid.UUID]billing.Invoice),
		payments:      make(map[uuid.UUID]billing.Payment),
	}
}

func (s *Store) Appointments() *AppointmentRepo { return &AppointmentRepo{s: s} }
func (s *Store) Schedules() *ScheduleRepo       { return &ScheduleRepo{s: s} }
func (s *Store) Doctors() *DoctorRepo           { return &DoctorRepo{s: s} }
func (s *Store) Patients() *PatientRepo         { return &PatientRepo{s: s} }
func (s *Store) Users() *UserRepo               { return &UserRepo{s: s} }
func (s *Store) AuditLogs() *AuditRepo          { return &AuditRepo{s: s} }
func (s *Store) Ownership() *OwnershipResolver  { return &OwnershipResolver{s: s} }

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Seeding helpers. Each assigns an ID when missing and returns it.

func (s *Store) AddDoctor(d doctor.Doctor) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&d.ID)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	s.doctors[d.ID] = d
	return d.ID
}

func (s *Store) AddSpecialty(sp doctor.Specialty) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&sp.ID)
	s.specialties[sp.ID] = sp
	return sp.ID
}

func (s *Store) AddPatient(p patient.Patient) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = patient.StatusActive
	}
	s.patients[p.ID] = p
	return p.ID
}

func (s *Store) AddMedicalRecord(r clinical.MedicalRecord) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&r.ID)
	s.records[r.ID] = r
	return r.ID
}

func (s *Store) AddTreatment(t clinical.Treatment) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&t.ID)
	s.treatments[t.ID] = t
	return t.ID
}

func (s *Store) AddPrescription(p clinical.Prescription) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&p.ID)
	s.prescriptions[p.ID] = p
	return p.ID
}

func (s *Store) AddExam(e clinical.Exam) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&e.ID)
	s.exams[e.ID] = e
	return e.ID
}

func (s *Store) AddMedication(m clinical.Medication) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&m.ID)
	s.medications[m.ID] = m
	return m.ID
}

func (s *Store) AddInvoice(i billing.Invoice) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&i.ID)
	s.invoices[i.ID] = i
	return i.ID
}

func (s *Store) AddPayment(p billing.Payment) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&p.ID)
	s.payments[p.ID] = p
	return p.ID
}

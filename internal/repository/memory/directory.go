package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
)

type DoctorRepo struct {
	s *Store
}

var _ doctor.Repository = (*DoctorRepo)(nil)

func (r *DoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok || !d.IsActive {
		return nil, doctor.ErrDoctorNotFound
	}
	return &d, nil
}

func (r *DoctorRepo) List(ctx context.Context, q *doctor.ListDoctorsQuery) ([]*doctor.Doctor, int64, error) {
	q.Normalize()
	search := strings.ToLower(strings.TrimSpace(q.Search))

	r.s.mu.RLock()
	var out []*doctor.Doctor
	for _, d := range r.s.doctors {
		if !d.IsActive {
			continue
		}
		if q.SpecialtyID != nil && (d.SpecialtyID == nil || *d.SpecialtyID != *q.SpecialtyID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.FullName()), search) {
			continue
		}
		out = append(out, &d)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	total := int64(len(out))
	start := min(q.Offset(), len(out))
	end := min(start+q.PageSize, len(out))
	return out[start:end], total, nil
}

func (r *DoctorRepo) ListSpecialties(ctx context.Context) ([]*doctor.Specialty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*doctor.Specialty, 0, len(r.s.specialties))
	for _, sp := range r.s.specialties {
		out = append(out, &sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type PatientRepo struct {
	s *Store
}

var _ patient.Repository = (*PatientRepo)(nil)

func (r *PatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[id]
	if !ok || p.DeletedAt != nil {
		return nil, patient.ErrPatientNotFound
	}
	return &p, nil
}

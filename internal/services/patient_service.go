package services

import (
	"context"
	"log/slog"
	"strings"

	"medrec/internal/auth"
	"medrec/internal/domain"
	"medrec/internal/events"
	"medrec/internal/logging"
	"medrec/internal/query"
	"medrec/internal/repositories"
)

type PatientStore interface {
	Collection
	Create(ctx context.Context, in repositories.PatientInput) (int64, error)
	Update(ctx context.Context, id int64, p repositories.PatientPatch) ([]string, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type PatientForm struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Birthdate string `json:"birthdate"`
	IDCard    string `json:"IDcard"`
	Allergy   string `json:"allergy"`
	BloodType string `json:"bloodType"`
}

type PatientUpdate struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Phone     *string `json:"phone"`
	Gender    *string `json:"gender"`
	Birthdate *string `json:"birthdate"`
	IDCard    *string `json:"IDcard"`
	Allergy   *string `json:"allergy"`
	BloodType *string `json:"bloodType"`
}

type PatientService struct {
	Patients  PatientStore
	Hasher    *auth.Hasher
	Events    events.Publisher
	Log       *slog.Logger
	Query     query.Options
	RequestID string
}

func (s PatientService) List(ctx context.Context, raw map[string]string) ([]query.Record, error) {
	return list(ctx, raw, s.Query, s.Patients)
}

func (s PatientService) Get(ctx context.Context, id int64) (query.Record, error) {
	return getByID(ctx, "patient", id, s.Query, s.Patients)
}

func (s PatientService) Create(ctx context.Context, f PatientForm) (query.Record, error) {
	f.Email = auth.NormalizeIdentifier(f.Email)
	f.Name = strings.TrimSpace(f.Name)
	f.Birthdate = strings.TrimSpace(f.Birthdate)
	if err := required("name", f.Name); err != nil {
		return nil, err
	}
	if err := validEmail(f.Email); err != nil {
		return nil, err
	}
	if err := validPassword(f.Password); err != nil {
		return nil, err
	}
	if err := validDate("birthdate", f.Birthdate); err != nil {
		return nil, err
	}

	hash, err := s.Hasher.Hash(f.Password)
	if err != nil {
		return nil, domain.InternalError{Msg: "could not hash password", Err: err}
	}

	id, err := s.Patients.Create(ctx, repositories.PatientInput{
		Name:         f.Name,
		Email:        f.Email,
		Phone:        strings.TrimSpace(f.Phone),
		Gender:       strings.TrimSpace(f.Gender),
		Birthdate:    f.Birthdate,
		IDCard:       strings.TrimSpace(f.IDCard),
		Allergy:      f.Allergy,
		BloodType:    strings.ToUpper(strings.TrimSpace(f.BloodType)),
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	log := loggerOr(s.Log)
	logging.Event(log, s.RequestID, "patients", "create", "patient created", "patient_id", id)
	publish(ctx, s.Events, log, events.TopicPatientCreated, events.RecordChanged{Collection: "patients", ID: id})
	return s.Get(ctx, id)
}

func (s PatientService) Update(ctx context.Context, id int64, u PatientUpdate) (query.Record, error) {
	var p repositories.PatientPatch
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := required("name", name); err != nil {
			return nil, err
		}
		p.Name = &name
	}
	if u.Email != nil {
		email := auth.NormalizeIdentifier(*u.Email)
		if err := validEmail(email); err != nil {
			return nil, err
		}
		p.Email = &email
	}
	if u.Birthdate != nil {
		birth := strings.TrimSpace(*u.Birthdate)
		if err := validDate("birthdate", birth); err != nil {
			return nil, err
		}
		p.Birthdate = &birth
	}
	if u.BloodType != nil {
		bt := strings.ToUpper(strings.TrimSpace(*u.BloodType))
		p.BloodType = &bt
	}
	if u.Password != nil {
		if err := validPassword(*u.Password); err != nil {
			return nil, err
		}
		hash, err := s.Hasher.Hash(*u.Password)
		if err != nil {
			return nil, domain.InternalError{Msg: "could not hash password", Err: err}
		}
		p.PasswordHash = &hash
	}
	p.Phone = u.Phone
	p.Gender = u.Gender
	p.IDCard = u.IDCard
	p.Allergy = u.Allergy

	changed, err := s.Patients.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}

	log := loggerOr(s.Log)
	logging.Event(log, s.RequestID, "patients", "update", "patient updated",
		"patient_id", id, "fields", strings.Join(changed, ","))
	if len(changed) > 0 {
		publish(ctx, s.Events, log, events.TopicPatientUpdated,
			events.RecordChanged{Collection: "patients", ID: id, Changed: changed})
	}
	return s.Get(ctx, id)
}

// Delete removes a patient. Deleting an unknown id is not an error.
func (s PatientService) Delete(ctx context.Context, id int64) error {
	existed, err := s.Patients.Delete(ctx, id)
	if err != nil {
		return err
	}
	log := loggerOr(s.Log)
	logging.Event(log, s.RequestID, "patients", "delete", "patient deleted",
		"patient_id", id, "existed", existed)
	if existed {
		publish(ctx, s.Events, log, events.TopicPatientDeleted, events.RecordChanged{Collection: "patients", ID: id})
	}
	return nil
}

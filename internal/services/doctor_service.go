package services

import (
	"context"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"medrec/internal/auth"
	"medrec/internal/domain"
	"medrec/internal/events"
	"medrec/internal/logging"
	"medrec/internal/query"
	"medrec/internal/repositories"
)

type DoctorStore interface {
	Collection
	Create(ctx context.Context, in repositories.DoctorInput) (int64, error)
	Update(ctx context.Context, id int64, p repositories.DoctorPatch) ([]string, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type SpecializationChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// DoctorForm is the body of a create request.
type DoctorForm struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	Phone                string `json:"phone"`
	Gender               string `json:"gender"`
	Specialization       int64  `json:"specialization"`
	SpecializationDetail string `json:"specializationDetail"`
	Background           string `json:"background"`
	Hospital             string `json:"hospital"`
	IsOnline             bool   `json:"isOnline"`
}

// DoctorUpdate is the body of an update request. Absent fields stay as they are.
type DoctorUpdate struct {
	Name                 *string `json:"name"`
	Email                *string `json:"email"`
	Password             *string `json:"password"`
	Phone                *string `json:"phone"`
	Gender               *string `json:"gender"`
	Specialization       *int64  `json:"specialization"`
	SpecializationDetail *string `json:"specializationDetail"`
	Background           *string `json:"background"`
	Hospital             *string `json:"hospital"`
	IsOnline             *bool   `json:"isOnline"`
}

type DoctorService struct {
	Doctors         DoctorStore
	Specializations SpecializationChecker
	Hasher          *auth.Hasher
	Events          events.Publisher
	Log             *slog.Logger
	Query           query.Options
	RequestID       string
}

func (s DoctorService) List(ctx context.Context, raw map[string]string) ([]query.Record, error) {
	return list(ctx, raw, s.Query, s.Doctors)
}

// ListOnline lists doctors with isOnline=true. The other parameters still
// apply. An empty page is reported as NotFound.
func (s DoctorService) ListOnline(ctx context.Context, raw map[string]string) ([]query.Record, error) {
	params := maps.Clone(raw)
	if params == nil {
		params = map[string]string{}
	}
	for k := range params {
		if k == "isOnline" || strings.HasPrefix(k, "isOnline[") {
			delete(params, k)
		}
	}
	params["isOnline"] = "true"

	rows, err := list(ctx, params, s.Query, s.Doctors)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundError{Resource: "online doctor"}
	}
	return rows, nil
}

func (s DoctorService) Get(ctx context.Context, id int64) (query.Record, error) {
	return getByID(ctx, "doctor", id, s.Query, s.Doctors)
}

func (s DoctorService) Create(ctx context.Context, f DoctorForm) (query.Record, error) {
	f.Email = auth.NormalizeIdentifier(f.Email)
	f.Name = strings.TrimSpace(f.Name)
	if err := required("name", f.Name); err != nil {
		return nil, err
	}
	if err := validEmail(f.Email); err != nil {
		return nil, err
	}
	if err := validPassword(f.Password); err != nil {
		return nil, err
	}
	if err := s.checkSpecialization(ctx, f.Specialization); err != nil {
		return nil, err
	}

	hash, err := s.Hasher.Hash(f.Password)
	if err != nil {
		return nil, domain.InternalError{Msg: "could not hash password", Err: err}
	}

	id, err := s.Doctors.Create(ctx, repositories.DoctorInput{
		Name:                 f.Name,
		Email:                f.Email,
		Phone:                strings.TrimSpace(f.Phone),
		Gender:               strings.TrimSpace(f.Gender),
		SpecializationID:     f.Specialization,
		SpecializationDetail: f.SpecializationDetail,
		Background:           f.Background,
		Hospital:             f.Hospital,
		IsOnline:             f.IsOnline,
		PasswordHash:         hash,
	})
	if err != nil {
		return nil, err
	}

	log := loggerOr(s.Log)
	logging.Event(log, s.RequestID, "doctors", "create", "doctor created", "doctor_id", id)
	publish(ctx, s.Events, log, events.TopicDoctorCreated, events.RecordChanged{Collection: "doctors", ID: id})
	return s.Get(ctx, id)
}

func (s DoctorService) Update(ctx context.Context, id int64, u DoctorUpdate) (query.Record, error) {
	var p repositories.DoctorPatch
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
	if u.Specialization != nil {
		if err := s.checkSpecialization(ctx, *u.Specialization); err != nil {
			return nil, err
		}
		p.SpecializationID = u.Specialization
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
	p.SpecializationDetail = u.SpecializationDetail
	p.Background = u.Background
	p.Hospital = u.Hospital
	p.IsOnline = u.IsOnline

	changed, err := s.Doctors.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}

	log := loggerOr(s.Log)
	logging.Event(log, s.RequestID, "doctors", "update", "doctor updated",
		"doctor_id", id, "fields", strings.Join(changed, ","))
	if len(changed) > 0 {
		publish(ctx, s.Events, log, events.TopicDoctorUpdated,
			events.RecordChanged{Collection: "doctors", ID: id, Changed: changed})
	}
	return s.Get(ctx, id)
}

// Delete removes a doctor. Deleting an unknown id is not an error.
func (s DoctorService) Delete(ctx context.Context, id int64) error {
	existed, err := s.Doctors.Delete(ctx, id)
	if err != nil {
		return err
	}
	log := loggerOr(s.Log)
	logging.Event(log, s.RequestID, "doctors", "delete", "doctor deleted",
		"doctor_id", id, "existed", existed)
	if existed {
		publish(ctx, s.Events, log, events.TopicDoctorDeleted, events.RecordChanged{Collection: "doctors", ID: id})
	}
	return nil
}

func (s DoctorService) checkSpecialization(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ValidationError{Field: "specialization", Msg: "Invalid specialization"}
	}
	ok, err := s.Specializations.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ValidationError{
			Field: "specialization",
			Msg:   "Invalid specialization " + strconv.FormatInt(id, 10),
		}
	}
	return nil
}

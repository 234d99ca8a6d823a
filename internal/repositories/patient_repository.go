package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"medrec/internal/auth"
	"medrec/internal/domain"
	"medrec/internal/query"
)

var patientTable = Table{
	Resource: "patient",
	From:     "patients p",
	Key:      "p.id",
	Fields: []string{
		"id", "name", "email", "phone", "gender", "birthdate",
		"IDcard", "allergy", "bloodType", "createdAt", "updatedAt",
	},
	Columns: map[string]Column{
		"id":        {Expr: "p.id", Kind: KindInt},
		"name":      {Expr: "p.name"},
		"email":     {Expr: "p.email"},
		"phone":     {Expr: "p.phone"},
		"gender":    {Expr: "p.gender"},
		"birthdate": {Expr: "p.birthdate", Kind: KindDate},
		"IDcard":    {Expr: "p.id_card"},
		"allergy":   {Expr: "p.allergy"},
		"bloodType": {Expr: "p.blood_type"},
		"createdAt": {Expr: "p.created_at", Kind: KindTime},
		"updatedAt": {Expr: "p.updated_at", Kind: KindTime},
	},
}

// PatientInput is a new patient row. Birthdate is YYYY-MM-DD or empty.
type PatientInput struct {
	Name         string
	Email        string
	Phone        string
	Gender       string
	Birthdate    string
	IDCard       string
	Allergy      string
	BloodType    string
	PasswordHash string
}

type PatientPatch struct {
	Name         *string
	Email        *string
	Phone        *string
	Gender       *string
	Birthdate    *string
	IDCard       *string
	Allergy      *string
	BloodType    *string
	PasswordHash *string
}

type PatientRepository struct {
	DB *sql.DB
}

func (r PatientRepository) Collection() query.CollectionQuery {
	return NewCollection(r.DB, &patientTable)
}

func (r PatientRepository) Create(ctx context.Context, in PatientInput) (int64, error) {
	var birth any
	if in.Birthdate != "" {
		birth = in.Birthdate
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO patients
			(name, email, phone, gender, birthdate, id_card, allergy, blood_type, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Email, in.Phone, in.Gender, birth, in.IDCard, in.Allergy, in.BloodType, in.PasswordHash,
	)
	if err != nil {
		if isDuplicate(err) {
			return 0, domain.ConflictError{Resource: "patient", Msg: "email already registered", Err: err}
		}
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	return id, nil
}

func (r PatientRepository) Update(ctx context.Context, id int64, p PatientPatch) ([]string, error) {
	var a assignments
	if p.Name != nil {
		a.add("name", "name", *p.Name)
	}
	if p.Email != nil {
		a.add("email", "email", *p.Email)
	}
	if p.Phone != nil {
		a.add("phone", "phone", *p.Phone)
	}
	if p.Gender != nil {
		a.add("gender", "gender", *p.Gender)
	}
	if p.Birthdate != nil {
		var v any
		if *p.Birthdate != "" {
			v = *p.Birthdate
		}
		a.add("birthdate", "birthdate", v)
	}
	if p.IDCard != nil {
		a.add("IDcard", "id_card", *p.IDCard)
	}
	if p.Allergy != nil {
		a.add("allergy", "allergy", *p.Allergy)
	}
	if p.BloodType != nil {
		a.add("bloodType", "blood_type", *p.BloodType)
	}
	if p.PasswordHash != nil {
		a.add("password", "password_hash", *p.PasswordHash)
	}
	if err := update(ctx, r.DB, "patients", "patient", id, a); err != nil {
		return nil, err
	}
	return a.fields, nil
}

func (r PatientRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, r.DB, "patients", "patient", id)
}

// FindCredential implements auth.CredentialStore for patients.
func (r PatientRepository) FindCredential(ctx context.Context, email string) (auth.Credential, error) {
	return findCredential(ctx, r.DB, "patients", auth.SubjectPatient, email)
}

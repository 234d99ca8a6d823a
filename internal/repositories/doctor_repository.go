package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"medrec/internal/auth"
	"medrec/internal/domain"
	"medrec/internal/query"
)

var doctorTable = Table{
	Resource: "doctor",
	From:     "doctors d LEFT JOIN specializations s ON s.id = d.specialization_id",
	Key:      "d.id",
	Fields: []string{
		"id", "name", "email", "phone", "gender",
		"specialization", "specializationName", "specializationDetail",
		"background", "hospital", "isOnline", "createdAt", "updatedAt",
	},
	Columns: map[string]Column{
		"id":                   {Expr: "d.id", Kind: KindInt},
		"name":                 {Expr: "d.name"},
		"email":                {Expr: "d.email"},
		"phone":                {Expr: "d.phone"},
		"gender":               {Expr: "d.gender"},
		"specialization":       {Expr: "d.specialization_id", Kind: KindInt},
		"specializationName":   {Expr: "s.name"},
		"specializationDetail": {Expr: "d.specialization_detail"},
		"background":           {Expr: "d.background"},
		"hospital":             {Expr: "d.hospital"},
		"isOnline":             {Expr: "d.is_online", Kind: KindBool},
		"createdAt":            {Expr: "d.created_at", Kind: KindTime},
		"updatedAt":            {Expr: "d.updated_at", Kind: KindTime},
	},
}

// DoctorInput is a new doctor row. PasswordHash must already be hashed.
type DoctorInput struct {
	Name                 string
	Email                string
	Phone                string
	Gender               string
	SpecializationID     int64
	SpecializationDetail string
	Background           string
	Hospital             string
	IsOnline             bool
	PasswordHash         string
}

// DoctorPatch is a partial update; nil fields are left alone.
type DoctorPatch struct {
	Name                 *string
	Email                *string
	Phone                *string
	Gender               *string
	SpecializationID     *int64
	SpecializationDetail *string
	Background           *string
	Hospital             *string
	IsOnline             *bool
	PasswordHash         *string
}

type DoctorRepository struct {
	DB *sql.DB
}

func (r DoctorRepository) Collection() query.CollectionQuery {
	return NewCollection(r.DB, &doctorTable)
}

func (r DoctorRepository) Create(ctx context.Context, in DoctorInput) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO doctors
			(name, email, phone, gender, specialization_id, specialization_detail,
			 background, hospital, is_online, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Email, in.Phone, in.Gender, in.SpecializationID, in.SpecializationDetail,
		in.Background, in.Hospital, in.IsOnline, in.PasswordHash,
	)
	if err != nil {
		if isDuplicate(err) {
			return 0, domain.ConflictError{Resource: "doctor", Msg: "email already registered", Err: err}
		}
		return 0, fmt.Errorf("insert doctor: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert doctor: %w", err)
	}
	return id, nil
}

// Update applies p and returns the names of the fields it touched.
func (r DoctorRepository) Update(ctx context.Context, id int64, p DoctorPatch) ([]string, error) {
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
	if p.SpecializationID != nil {
		a.add("specialization", "specialization_id", *p.SpecializationID)
	}
	if p.SpecializationDetail != nil {
		a.add("specializationDetail", "specialization_detail", *p.SpecializationDetail)
	}
	if p.Background != nil {
		a.add("background", "background", *p.Background)
	}
	if p.Hospital != nil {
		a.add("hospital", "hospital", *p.Hospital)
	}
	if p.IsOnline != nil {
		a.add("isOnline", "is_online", *p.IsOnline)
	}
	if p.PasswordHash != nil {
		a.add("password", "password_hash", *p.PasswordHash)
	}
	if err := update(ctx, r.DB, "doctors", "doctor", id, a); err != nil {
		return nil, err
	}
	return a.fields, nil
}

func (r DoctorRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, r.DB, "doctors", "doctor", id)
}

// FindCredential implements auth.CredentialStore for doctors.
func (r DoctorRepository) FindCredential(ctx context.Context, email string) (auth.Credential, error) {
	return findCredential(ctx, r.DB, "doctors", auth.SubjectDoctor, email)
}

func findCredential(ctx context.Context, db queryer, table string, st auth.SubjectType, email string) (auth.Credential, error) {
	var (
		id   int64
		hash string
	)
	err := db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM "+table+" WHERE email = ? LIMIT 1", email,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Credential{}, auth.ErrCredentialNotFound
	}
	if err != nil {
		return auth.Credential{}, fmt.Errorf("find %s credential: %w", st, err)
	}
	return auth.Credential{
		SubjectID:   strconv.FormatInt(id, 10),
		SubjectType: st,
		Identifier:  email,
		SecretHash:  hash,
	}, nil
}

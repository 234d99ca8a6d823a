package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrec/internal/auth"
	"medrec/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestDoctorRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`
		INSERT INTO doctors
			(name, email, phone, gender, specialization_id, specialization_detail,
			 background, hospital, is_online, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`).
		WithArgs("Dr. Ana", "ana@clinic.test", "0812", "female", int64(2), "", "", "RS Sehat", false, "$2a$hash").
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := DoctorRepository{DB: db}.Create(context.Background(), DoctorInput{
		Name:             "Dr. Ana",
		Email:            "ana@clinic.test",
		Phone:            "0812",
		Gender:           "female",
		SpecializationID: 2,
		Hospital:         "RS Sehat",
		PasswordHash:     "$2a$hash",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepository_CreateDuplicateEmailIsConflict(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`
		INSERT INTO doctors
			(name, email, phone, gender, specialization_id, specialization_detail,
			 background, hospital, is_online, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := DoctorRepository{DB: db}.Create(context.Background(), DoctorInput{Email: "ana@clinic.test"})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
}

func TestDoctorRepository_UpdateReportsChangedFields(t *testing.T) {
	db, mock := newMock(t)
	online := true
	mock.ExpectExec("UPDATE doctors SET name = ?, is_online = ?, password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?").
		WithArgs("Dr. B", true, "$2a$new", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := DoctorRepository{DB: db}.Update(context.Background(), 7, DoctorPatch{
		Name:         strPtr("Dr. B"),
		IsOnline:     &online,
		PasswordHash: strPtr("$2a$new"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "isOnline", "password"}, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepository_UpdateMissingIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE doctors SET hospital = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?").
		WithArgs("RS", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM doctors WHERE id = ? LIMIT 1").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	_, err := DoctorRepository{DB: db}.Update(context.Background(), 9, DoctorPatch{Hospital: strPtr("RS")})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepository_UpdateUnchangedRowStillSucceeds(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE doctors SET hospital = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?").
		WithArgs("RS", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM doctors WHERE id = ? LIMIT 1").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	_, err := DoctorRepository{DB: db}.Update(context.Background(), 9, DoctorPatch{Hospital: strPtr("RS")})
	assert.NoError(t, err)
}

func TestDoctorRepository_EmptyPatchOnlyChecksExistence(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT 1 FROM doctors WHERE id = ? LIMIT 1").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	changed, err := DoctorRepository{DB: db}.Update(context.Background(), 3, DoctorPatch{})
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("DELETE FROM doctors WHERE id = ?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM doctors WHERE id = ?").
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := DoctorRepository{DB: db}
	ok, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(context.Background(), 6)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDoctorRepository_FindCredential(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT id, password_hash FROM doctors WHERE email = ? LIMIT 1").
		WithArgs("ana@clinic.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow(int64(12), "$2a$hash"))
	mock.ExpectQuery("SELECT id, password_hash FROM doctors WHERE email = ? LIMIT 1").
		WithArgs("ghost@clinic.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}))

	repo := DoctorRepository{DB: db}
	cred, err := repo.FindCredential(context.Background(), "ana@clinic.test")
	require.NoError(t, err)
	assert.Equal(t, auth.Credential{
		SubjectID:   "12",
		SubjectType: auth.SubjectDoctor,
		Identifier:  "ana@clinic.test",
		SecretHash:  "$2a$hash",
	}, cred)

	_, err = repo.FindCredential(context.Background(), "ghost@clinic.test")
	assert.ErrorIs(t, err, auth.ErrCredentialNotFound)
}

func TestPatientRepository_CreateStoresEmptyBirthdateAsNull(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`
		INSERT INTO patients
			(name, email, phone, gender, birthdate, id_card, allergy, blood_type, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`).
		WithArgs("Rina", "rina@mail.test", "", "female", nil, "3201", "", "O", "$2a$h").
		WillReturnResult(sqlmock.NewResult(8, 1))

	id, err := PatientRepository{DB: db}.Create(context.Background(), PatientInput{
		Name:         "Rina",
		Email:        "rina@mail.test",
		Gender:       "female",
		IDCard:       "3201",
		BloodType:    "O",
		PasswordHash: "$2a$h",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE patients SET birthdate = ?, id_card = ?, blood_type = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?").
		WithArgs("1990-01-02", "3202", "AB", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := PatientRepository{DB: db}.Update(context.Background(), 4, PatientPatch{
		Birthdate: strPtr("1990-01-02"),
		IDCard:    strPtr("3202"),
		BloodType: strPtr("AB"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"birthdate", "IDcard", "bloodType"}, changed)
}

func TestPatientRepository_UpdateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE patients SET email = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?").
		WillReturnError(&mysql.MySQLError{Number: 1062})

	_, err := PatientRepository{DB: db}.Update(context.Background(), 4, PatientPatch{Email: strPtr("x@y.z")})
	assert.True(t, domain.IsConflict(err))
}

func TestPatientRepository_FindCredentialStoreError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("too many connections")
	mock.ExpectQuery("SELECT id, password_hash FROM patients WHERE email = ? LIMIT 1").
		WillReturnError(boom)

	_, err := PatientRepository{DB: db}.FindCredential(context.Background(), "a@b.c")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, auth.ErrCredentialNotFound)
}

func TestSpecializationRepository_Exists(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT 1 FROM specializations WHERE id = ? LIMIT 1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM specializations WHERE id = ? LIMIT 1").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	repo := SpecializationRepository{DB: db}
	ok, err := repo.Exists(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"medrec/internal/logging"
	"medrec/internal/query"
)

// DocsService renders printable patient documents.
type DocsService struct {
	Patients  PatientService
	Log       *slog.Logger
	RequestID string
	Loader    func(context.Context, int64) (query.Record, error)
	Now       func() time.Time
}

// PatientCard returns a one page PDF with the visible fields of a patient
// and a file name for it.
func (s DocsService) PatientCard(ctx context.Context, id int64) ([]byte, string, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	logging.Event(loggerOr(s.Log), s.RequestID, "docs", "patient_card", "patient card generated", "patient_id", id)
	return buildPatientCardPDF(id, rec, s.now())
}

func (s DocsService) load(ctx context.Context, id int64) (query.Record, error) {
	if s.Loader != nil {
		return s.Loader(ctx, id)
	}
	return s.Patients.Get(ctx, id)
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var cardRows = []struct {
	field string
	label string
}{
	{"name", "Name"},
	{"email", "Email"},
	{"phone", "Phone"},
	{"gender", "Gender"},
	{"birthdate", "Birthdate"},
	{"IDcard", "ID card"},
	{"bloodType", "Blood type"},
	{"allergy", "Allergy"},
}

func buildPatientCardPDF(id int64, rec query.Record, printed time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Patient record", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PATIENT RECORD")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("%-12s : P-%06d", "Record no", id))
	pdf.Ln(7)
	for _, row := range cardRows {
		v, ok := rec[row.field]
		if !ok {
			continue
		}
		pdf.Cell(0, 7, fmt.Sprintf("%-12s : %s", row.label, cardValue(v)))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Printed "+printed.Format("2006-01-02 15:04")+". Confidential medical information.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("PATIENT_%d_%s.pdf", id, safeFilenamePart(cardValue(rec["name"])))
	return buf.Bytes(), name, nil
}

func cardValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case time.Time:
		return t.Format("2006-01-02")
	case string:
		if strings.TrimSpace(t) == "" {
			return "-"
		}
		return t
	}
	return fmt.Sprint(v)
}

func safeFilenamePart(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "patient"
	}
	return b.String()
}

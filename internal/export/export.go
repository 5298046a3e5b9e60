package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	timeLayout = "2006-01-02 15:04:05"
	sheetName  = "Tickets"
)

// ParseFormat defaults to CSV when raw is empty.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type of the encoding.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds the attachment name for a download.
func (f Format) Filename(division *domain.Division) string {
	scope := "all"
	if division != nil {
		scope = string(*division)
	}
	return fmt.Sprintf("tickets_%s.%s", scope, f)
}

var header = []string{
	"ID", "Title", "Description", "Division", "Status", "Client", "Project", "Infrastructure",
	"Created By", "Assigned To", "Created At", "Started At", "Closed At", "Working Hours", "Notes",
}

func record(t domain.Ticket, loc *time.Location) []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.Title,
		t.Description,
		string(t.Division),
		string(t.Status),
		t.ClientName,
		t.ProjectName,
		t.InfrastructureName,
		t.CreatedBy,
		deref(t.AssignedTo),
		t.CreatedAt.In(loc).Format(timeLayout),
		formatTime(t.StartedAt, loc),
		formatTime(t.ClosedAt, loc),
		formatInt(t.WorkingHours),
		deref(t.Notes),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(ts *time.Time, loc *time.Location) string {
	if ts == nil {
		return ""
	}
	return ts.In(loc).Format(timeLayout)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// Write encodes tickets in the given format. Timestamps are rendered in loc.
func Write(format Format, tickets []domain.Ticket, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	switch format {
	case FormatXLSX:
		return WriteXLSX(tickets, loc)
	default:
		return WriteCSV(tickets, loc)
	}
}

// WriteCSV renders tickets as CSV with a header row.
func WriteCSV(tickets []domain.Ticket, loc *time.Location) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if err := w.Write(record(t, loc)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX renders tickets as a single-sheet workbook.
func WriteXLSX(tickets []domain.Ticket, loc *time.Location) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := xl.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return nil, err
	}

	for i, t := range tickets {
		fields := record(t, loc)
		row := make([]any, len(fields))
		for j, v := range fields {
			row[j] = v
		}
		row[0] = t.ID
		if t.WorkingHours != nil {
			row[13] = *t.WorkingHours
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := xl.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

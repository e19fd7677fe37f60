// Package importer parses lead lists from CSV and XLSX files into
// model.Lead records. Column order is free: the first row is treated as
// a header and matched against known aliases.
package importer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/adrata/dataops-cli/internal/model"
)

// headerAliases maps normalized header names to lead fields.
var headerAliases = map[string]string{
	"name":          "full_name",
	"full name":     "full_name",
	"contact":       "full_name",
	"contact name":  "full_name",
	"title":         "title",
	"job title":     "title",
	"role":          "title",
	"email":         "email",
	"email address": "email",
	"company":       "company",
	"company name":  "company",
	"organization":  "company",
	"account":       "company",
	"website":       "website",
	"url":           "website",
	"domain":        "website",
}

// ParseLeads reads a lead list from path, dispatching on the file
// extension (.csv or .xlsx).
func ParseLeads(path string) ([]model.Lead, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(path)
	case ".xlsx":
		return parseXLSX(path)
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

func parseCSV(path string) ([]model.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv")
	}
	return leadsFromRows(rows)
}

func parseXLSX(path string) ([]model.Lead, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return leadsFromRows(rows)
}

func leadsFromRows(rows [][]string) ([]model.Lead, error) {
	if len(rows) == 0 {
		return nil, eris.New("importer: file is empty")
	}

	fields, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var leads []model.Lead
	for _, row := range rows[1:] {
		lead := model.Lead{}
		empty := true
		for i, field := range fields {
			if field == "" || i >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[i])
			if value == "" {
				continue
			}
			empty = false
			switch field {
			case "full_name":
				lead.FullName = value
			case "title":
				lead.Title = value
			case "email":
				lead.Email = value
			case "company":
				lead.CompanyName = value
			case "website":
				lead.Website = value
			}
		}
		if !empty {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}

// mapHeader resolves each header cell to a lead field, "" for
// unrecognized columns. At least one of name or company must map.
func mapHeader(header []string) ([]string, error) {
	fields := make([]string, len(header))
	var hasName, hasCompany bool
	for i, h := range header {
		field := headerAliases[strings.ToLower(strings.TrimSpace(h))]
		fields[i] = field
		switch field {
		case "full_name":
			hasName = true
		case "company":
			hasCompany = true
		}
	}
	if !hasName && !hasCompany {
		return nil, eris.Errorf("importer: no name or company column found in header %v", header)
	}
	return fields, nil
}

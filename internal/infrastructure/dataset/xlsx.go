package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/procura/internal/core/domain"
)

const xlsxSheet = "Sedi"

// xlsxColumns maps the spreadsheet header to dataset keys, in column order.
var xlsxColumns = []struct {
	header string
	key    string
}{
	{"ID", "id"},
	{"Sede", "sede"},
	{"Regione", "regione"},
	{"PEC", "pec"},
	{"Commissione competente", "commissioneCompetente"},
	{"Motivo selezione", "motivoSelezione"},
}

// ReadXLSX loads a dataset from the first sheet of a workbook. Columns are
// matched by header name, so their order is free.
func ReadXLSX(r io.Reader) (*Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open dataset workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read dataset workbook", fmt.Errorf("no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read dataset workbook", err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read dataset workbook", fmt.Errorf("sheet %q is empty", sheets[0]))
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range xlsxColumns {
		if col.key == "regione" {
			continue
		}
		if _, ok := index[strings.ToLower(col.header)]; !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read dataset workbook", fmt.Errorf("missing column %q", col.header))
		}
	}

	entries := make([]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		entry := make(map[string]any, len(xlsxColumns))
		for _, col := range xlsxColumns {
			i, ok := index[strings.ToLower(col.header)]
			if !ok {
				continue
			}
			entry[col.key] = cellAt(row, i)
		}
		entries = append(entries, entry)
	}

	if err := validateAgainstSchema(map[string]any{"sedi": entries}); err != nil {
		return nil, err
	}

	records := make([]domain.JurisdictionRecord, 0, len(entries))
	for _, e := range entries {
		entry := e.(map[string]any)
		str := func(key string) string {
			s, _ := entry[key].(string)
			return s
		}
		records = append(records, domain.JurisdictionRecord{
			ID:                 str("id"),
			DisplayName:        str("sede"),
			Region:             str("regione"),
			ContactAddress:     str("pec"),
			CompetentAuthority: str("commissioneCompetente"),
			SelectionReason:    domain.SelectionReason(str("motivoSelezione")),
		})
	}
	return NewCatalog(records)
}

// WriteXLSX exports the grouped listing as a single-sheet workbook.
func WriteXLSX(w io.Writer, groups []domain.RegionGroup) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(xlsxColumns))
	for _, col := range xlsxColumns {
		header = append(header, col.header)
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, g := range groups {
		for _, rec := range g.Jurisdictions {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []interface{}{
				rec.ID,
				rec.DisplayName,
				g.Region,
				rec.ContactAddress,
				rec.CompetentAuthority,
				string(rec.SelectionReason),
			}
			if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(xlsxSheet, "A", "F", 26); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(xlsxSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

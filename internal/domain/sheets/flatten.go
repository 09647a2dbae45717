package sheets

import "strings"

const (
	columnTaxonID        = "taxonId"
	columnScientificName = "scientificName"
	columnVernacularName = "vernacularName"
	columnScientificKey  = "SCIENTIFIC_NAME"
)

// Records flattens data rows into header-keyed records. Rows with no values at all are
// dropped: the API returns them when a row's contents were cleared but the row was kept.
func (s Sheet) Records() []Record {
	out := make([]Record, 0, len(s.Rows))
	for _, row := range s.Rows {
		if isBlank(row) {
			continue
		}
		rec := make(Record, len(s.Header))
		for idx, col := range s.Header {
			if col == "" {
				continue
			}
			if idx < len(row) {
				rec[col] = row[idx]
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

func (r Record) get(col string) string {
	return strings.TrimSpace(r[col])
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// vernacularsByTaxon groups vernacular rows by taxonId, keeping sheet order.
func vernacularsByTaxon(records []Record) (map[string][]VernacularName, int) {
	out := make(map[string][]VernacularName)
	rejected := 0
	for _, rec := range records {
		id := rec.get(columnTaxonID)
		if id == "" {
			rejected++
			continue
		}
		out[id] = append(out[id], VernacularName{
			TaxonID:        id,
			ScientificName: rec.get(columnScientificName),
			VernacularName: rec.get(columnVernacularName),
			Columns:        rec,
		})
	}
	return out, rejected
}

// rowsByScientificName indexes rows by SCIENTIFIC_NAME; a later duplicate replaces an earlier one.
func rowsByScientificName(records []Record) (map[string]TaxonRow, int) {
	out := make(map[string]TaxonRow, len(records))
	rejected := 0
	for _, rec := range records {
		name := rec.get(columnScientificKey)
		if name == "" {
			rejected++
			continue
		}
		out[name] = TaxonRow{ScientificName: name, Columns: rec}
	}
	return out, rejected
}

// signupsByKey groups signups by the value of the second column. Columns are positional:
// date, key, -, first, last.
func signupsByKey(rows [][]string) map[string][]Signup {
	out := make(map[string][]Signup)
	for _, row := range rows {
		key := cell(row, 1)
		if key == "" {
			continue
		}
		out[key] = append(out[key], Signup{
			First: cell(row, 3),
			Last:  cell(row, 4),
			Date:  cell(row, 0),
		})
	}
	return out
}

package sheets

// Sheet is one tab of a spreadsheet: its properties, header row and data rows.
// Missing cells are represented as empty strings.
type Sheet struct {
	Properties Properties
	Header     []string
	Rows       [][]string
}

// Properties mirrors the sheet metadata returned by the Sheets API.
type Properties struct {
	SheetID int64  `json:"sheetId"`
	Title   string `json:"title"`
	Index   int    `json:"index"`
}

// Record is a row keyed by header names.
type Record map[string]string

// VernacularName is one vernacular name row for a taxon.
type VernacularName struct {
	TaxonID        string `json:"taxonId"`
	ScientificName string `json:"scientificName"`
	VernacularName string `json:"vernacularName"`
	Columns        Record `json:"columns"`
}

// TaxonRow is a row of a table keyed by scientific name, such as S-ranks or conservation status.
type TaxonRow struct {
	ScientificName string `json:"scientificName"`
	Columns        Record `json:"columns"`
}

// Signup is one volunteer signup.
type Signup struct {
	First string `json:"first"`
	Last  string `json:"last"`
	Date  string `json:"date"`
}

// SheetIDs names the spreadsheets backing each table.
type SheetIDs struct {
	Signups            string
	Vernacular         string
	TaxonSRank         string
	ConservationStatus string
}

// Config wires the sheets domain.
type Config struct {
	IDs SheetIDs
}

// DefaultSheetIDs are the published spreadsheets used by the web application.
var DefaultSheetIDs = SheetIDs{
	Signups:            "1O5fk2pDQCg_U4UNzlYSbewRJs4JVgonKEjg3jzDO6mA",
	Vernacular:         "17_e15RB8GgpMVZgvwkFHV8Y9ZgLRXg5Swow49wZsAyQ",
	TaxonSRank:         "1bEu_14eXGaBvPiwEirJs88F2ZdwR_ywBMpamtgIv0lc",
	ConservationStatus: "1Y1DCKqIQG0inJMaganaosVC-hgMjagXfcIDOkUfPMYM",
}

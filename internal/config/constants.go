package config

// Application constants for the ICE dashboard core.
const (
	AppName    = "Dashboard ICE"
	AppVersion = "1.0.0"

	// Backing media
	MediumCSV    = "csv"
	MediumXLSX   = "xlsx"
	MediumSheets = "sheets"

	// Date layouts. Sources use day-first dates; DateLayoutISO is the
	// fallback when automatic detection kicks in.
	DateLayout    = "02/01/2006"
	DateLayoutISO = "2006-01-02"

	// DefaultTarget is the goal assumed when the source has no Meta column.
	DefaultTarget = 1.0

	// TotalWeight is distributed evenly across distinct indicator codes at
	// load time when the source has no Peso column.
	TotalWeight = 100.0

	// CSVDelimiter is the field separator of the flat-file medium.
	CSVDelimiter = ';'
)

// Source column headers as they appear in row 1 of the spreadsheet media.
const (
	HeaderActionLine = "LINEA DE ACCIÓN"
	HeaderComponent  = "COMPONENTE PROPUESTO"
	HeaderCategory   = "CATEGORÍA"
	HeaderCode       = "COD"
	HeaderName       = "Nombre de indicador"
	HeaderValue      = "Valor"
	HeaderDate       = "Fecha"
	HeaderType       = "Tipo"
	HeaderTarget     = "Meta"
	HeaderWeight     = "Peso"
)

// ColumnHeaders is the canonical header order used when persisting back to
// a spreadsheet medium.
var ColumnHeaders = []string{
	HeaderActionLine,
	HeaderComponent,
	HeaderCategory,
	HeaderCode,
	HeaderName,
	HeaderValue,
	HeaderDate,
	HeaderTarget,
	HeaderWeight,
}

// RequiredHeaders must all be present after renaming; a load with any of
// them missing is a schema error, not a partial result.
var RequiredHeaders = []string{
	HeaderComponent,
	HeaderCategory,
	HeaderCode,
	HeaderValue,
	HeaderDate,
}

package reimbursement

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "Pendiente"
	StatusApproved Status = "Aprobado"
	StatusRejected Status = "Rechazado"
	StatusObserved Status = "Observado"
)

// ValidStatuses is ordered the way it is listed to users.
var ValidStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusObserved}

const (
	CategoryMedicines    = "Medicinas"
	CategoryExams        = "Exámenes"
	CategoryConsultation = "Consultas"

	PrefixOther = "OTR"

	// NoResponseDate marks a request the team has not answered yet.
	NoResponseDate = "No"
	// InReviewResponse is the team response every new request starts with.
	InReviewResponse = "En revisión por el área médica"

	dateLayout = "2006-01-02"
	idDigits   = 5
)

var categoryPrefixes = map[string]string{
	CategoryMedicines:    "MED",
	CategoryExams:        "EXA",
	CategoryConsultation: "CON",
}

// Request is one reimbursement claim row.
type Request struct {
	ID               string
	InsuredName      string
	BeneficiaryName  string
	ExpenseCategory  string
	Amount           decimal.Decimal
	Status           Status
	RegistrationDate string
	ResponseDate     string
	TeamResponse     string
}

// Responded reports whether the team has set a response date.
func (r Request) Responded() bool {
	return r.ResponseDate != "" && r.ResponseDate != NoResponseDate
}

// NormalizeCategory trims the category and upper-cases only its first letter.
func NormalizeCategory(raw string) string {
	return capitalize(raw)
}

// PrefixFor returns the id prefix of a normalized category.
func PrefixFor(category string) string {
	if p, ok := categoryPrefixes[category]; ok {
		return p
	}
	return PrefixOther
}

// ParseStatus normalizes raw the same way categories are and checks membership.
func ParseStatus(raw string) (Status, bool) {
	s := Status(capitalize(raw))
	for _, v := range ValidStatuses {
		if v == s {
			return s, true
		}
	}
	return s, false
}

func statusList() string {
	names := make([]string, 0, len(ValidStatuses))
	for _, s := range ValidStatuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func capitalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

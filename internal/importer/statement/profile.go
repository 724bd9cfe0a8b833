package statement

import "strings"

type amountMode int

const (
	// amountSingle is one signed column; only positive values are savings.
	amountSingle amountMode = iota
	// amountSplit is separate debit and credit columns; only credits are savings.
	amountSplit
)

// Profile describes the column layout of a statement export.
type Profile struct {
	Name       string
	DateCol    string
	DateLayout string
	NoteCol    string
	AmountMode amountMode
	AmountCol  string
	DebitCol   string
	CreditCol  string
}

func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol}

	switch p.AmountMode {
	case amountSingle:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles are tried in order; the more specific layouts come first.
var profiles = []Profile{
	{
		Name:       "bank",
		DateCol:    "date",
		DateLayout: "02-01-2006",
		NoteCol:    "description",
		AmountMode: amountSplit,
		DebitCol:   "debit",
		CreditCol:  "credit",
	},
	{
		Name:       "cgd",
		DateCol:    "data mov.",
		DateLayout: "02-01-2006",
		NoteCol:    "descrição",
		AmountMode: amountSingle,
		AmountCol:  "montante",
	},
	{
		Name:       "standard",
		DateCol:    "date",
		DateLayout: "2006-01-02",
		NoteCol:    "note",
		AmountMode: amountSingle,
		AmountCol:  "amount",
	},
}

func headerKey(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

// Package statement reads savings statements exported as CSV and turns the
// deposits in them into contribution lines.
package statement

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
)

// Result is a parsed statement. Withdrawals and rows that are not dated
// transactions are dropped and counted in Skipped.
type Result struct {
	Profile string
	Charset Charset
	Lines   []contribution.Line
	Skipped int
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*Result, error) {
	utf8r, charset, err := toUTF8(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	body, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.Comma = sniffDelimiter(body)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching statement format: expected Date and Amount, or Date, Debit and Credit columns")
	}

	res := &Result{Profile: profile.Name, Charset: charset}

	for _, row := range rows[headerIdx+1:] {
		line, ok := parseRow(profile, cols, row)
		if !ok {
			res.Skipped++
			continue
		}

		res.Lines = append(res.Lines, line)
	}

	slog.Debug("statement parsed",
		"profile", res.Profile,
		"charset", res.Charset,
		"lines", len(res.Lines),
		"skipped", res.Skipped,
	)

	return res, nil
}

// sniffDelimiter picks ';' or ',' by which is more common on the busiest of
// the first lines. Bank exports prefix the header with metadata rows.
func sniffDelimiter(body []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(body))

	semis, commas := 0, 0

	for n := 0; n < 32 && sc.Scan(); n++ {
		line := sc.Text()
		semis = max(semis, strings.Count(line, ";"))
		commas = max(commas, strings.Count(line, ","))
	}

	if semis >= commas && semis > 0 {
		return ';'
	}

	return ','
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := headerKey(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRow(p *Profile, cols colIndex, row []string) (contribution.Line, bool) {
	date, err := time.Parse(p.DateLayout, cellValue(row, cols[p.DateCol]))
	if err != nil {
		return contribution.Line{}, false
	}

	var raw string

	switch p.AmountMode {
	case amountSingle:
		raw = cellValue(row, cols[p.AmountCol])
	case amountSplit:
		raw = cellValue(row, cols[p.CreditCol])
	}

	if raw == "" {
		return contribution.Line{}, false
	}

	amount, err := parseAmount(raw)
	if err != nil || errs.CheckAmount(amount) != nil {
		return contribution.Line{}, false
	}

	note := ""
	if idx, ok := cols[p.NoteCol]; ok {
		note = cellValue(row, idx)
	}

	return contribution.Line{Amount: amount, Date: date, Note: note}, true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// Package importer loads savings history from uploaded statements into a goal.
package importer

import (
	"io"

	"github.com/MrJamesThe3rd/ajo/internal/importer/statement"
)

type Parser interface {
	Parse(r io.Reader) (*statement.Result, error)
}

package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/importer/statement"
)

//go:generate mockgen -source=service.go -destination=recorder_mock.go -package=importer
type Recorder interface {
	RecordBatch(ctx context.Context, userID, goalID uuid.UUID, lines []contribution.Line) ([]*contribution.Contribution, error)
}

type Service struct {
	parser   Parser
	recorder Recorder
}

func NewService(recorder Recorder) *Service {
	return &Service{parser: statement.NewParser(), recorder: recorder}
}

type Result struct {
	Profile  string
	Recorded []*contribution.Contribution
	Skipped  int
}

// Import parses r and records every deposit in it against goalID. Either all
// deposits are recorded or none are.
func (s *Service) Import(ctx context.Context, userID, goalID uuid.UUID, r io.Reader) (*Result, error) {
	parsed, err := s.parser.Parse(r)
	if err != nil {
		return nil, errs.Invalid("%v", err)
	}

	if len(parsed.Lines) == 0 {
		return nil, errs.Invalid("statement has no deposits")
	}

	recorded, err := s.recorder.RecordBatch(ctx, userID, goalID, parsed.Lines)
	if err != nil {
		return nil, fmt.Errorf("recording statement: %w", err)
	}

	slog.Info("statement imported",
		"goal_id", goalID,
		"user_id", userID,
		"profile", parsed.Profile,
		"recorded", len(recorded),
		"skipped", parsed.Skipped,
	)

	return &Result{Profile: parsed.Profile, Recorded: recorded, Skipped: parsed.Skipped}, nil
}

package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/importer"
)

func TestService_Import(t *testing.T) {
	user := uuid.New()
	goalID := uuid.New()

	type testCase struct {
		name      string
		body      string
		setupMock func(m *importer.MockRecorder)
		wantLen   int
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			body: "Date,Amount,Note\n2025-01-02,100,a\n2025-01-03,-5,b\n2025-01-04,20.5,c\n",
			setupMock: func(m *importer.MockRecorder) {
				m.EXPECT().
					RecordBatch(gomock.Any(), user, goalID, gomock.Len(2)).
					DoAndReturn(func(_ context.Context, _, _ uuid.UUID, lines []contribution.Line) ([]*contribution.Contribution, error) {
						out := make([]*contribution.Contribution, len(lines))
						for i, l := range lines {
							out[i] = &contribution.Contribution{ID: uuid.New(), Amount: l.Amount, Date: l.Date}
						}

						return out, nil
					})
			},
			wantLen: 2,
		},
		{
			name:    "UnknownFormat",
			body:    "a,b\n1,2\n",
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:    "NoDeposits",
			body:    "Date,Amount\n2025-01-03,-5\n",
			wantErr: errs.ErrInvalidInput,
		},
		{
			name: "RecorderRejects",
			body: "Date,Amount\n2025-01-03,5\n",
			setupMock: func(m *importer.MockRecorder) {
				m.EXPECT().
					RecordBatch(gomock.Any(), user, goalID, gomock.Any()).
					Return(nil, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			rec := importer.NewMockRecorder(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(rec)
			}

			got, err := importer.NewService(rec).Import(context.Background(), user, goalID, strings.NewReader(tt.body))

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "standard", got.Profile)
			assert.Len(t, got.Recorded, tt.wantLen)
			assert.Equal(t, 1, got.Skipped)
		})
	}
}

package contribution_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/events"
)

var (
	now    = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	anchor = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	weekly = contribution.GroupClock{Frequency: cycle.Weekly, Anchor: anchor, CycleAmount: decimal.NewFromInt(1000)}
)

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func newService(repo contribution.Repository, pub events.Publisher) *contribution.Service {
	return contribution.NewService(repo,
		contribution.WithClock(func() time.Time { return now }),
		contribution.WithPublisher(pub),
	)
}

func TestService_Record(t *testing.T) {
	user := uuid.New()
	goalID := uuid.New()
	groupID := uuid.New()
	lookupErr := errs.Storage("listing settled cycles", errors.New("conn refused"))

	type testCase struct {
		name      string
		params    contribution.RecordParams
		setupMock func(m *contribution.MockRepository)
		wantErr   error
		check     func(t *testing.T, c *contribution.Contribution)
	}

	tests := []testCase{
		{
			name: "GoalSuccess",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GoalTarget(goalID),
				Amount: decimal.NewFromInt(30000),
				Date:   now.AddDate(0, 0, -3),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GoalOwner(gomock.Any(), goalID).Return(user, nil)
				m.EXPECT().
					CreateContribution(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c *contribution.Contribution) error {
						c.ID = uuid.New()
						return nil
					})
			},
			check: func(t *testing.T, c *contribution.Contribution) {
				require.NotNil(t, c.GoalID)
				assert.Equal(t, goalID, *c.GoalID)
				assert.Nil(t, c.GroupID)
				assert.Nil(t, c.CycleIndex)
				assert.Equal(t, contribution.TargetGoal, c.Kind())
			},
		},
		{
			name: "ZeroDateDefaultsToNow",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GoalTarget(goalID),
				Amount: decimal.NewFromInt(10),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GoalOwner(gomock.Any(), goalID).Return(user, nil)
				m.EXPECT().CreateContribution(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, c *contribution.Contribution) {
				assert.Equal(t, now, c.Date)
			},
		},
		{
			name: "GoalOfAnotherUser",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GoalTarget(goalID),
				Amount: decimal.NewFromInt(10),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GoalOwner(gomock.Any(), goalID).Return(uuid.New(), nil)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name: "ZeroAmount",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GoalTarget(goalID),
				Amount: decimal.Zero,
			},
			wantErr: errs.ErrInvalidAmount,
		},
		{
			name: "NegativeAmount",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(-1000),
			},
			wantErr: errs.ErrInvalidAmount,
		},
		{
			name: "SubCentAmount",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.RequireFromString("0.001"),
			},
			wantErr: errs.ErrInvalidAmount,
		},
		{
			name: "AmountRoundingToCycle",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.RequireFromString("999.995"),
			},
			wantErr: errs.ErrInvalidAmount,
		},
		{
			name: "FutureDate",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GoalTarget(goalID),
				Amount: decimal.NewFromInt(10),
				Date:   now.Add(time.Minute),
			},
			wantErr: errs.ErrInvalidDate,
		},
		{
			name: "NoTarget",
			params: contribution.RecordParams{
				UserID: user,
				Amount: decimal.NewFromInt(10),
			},
			wantErr: errs.ErrInvalidInput,
		},
		{
			name: "BothTargets",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.Target{GoalID: &goalID, GroupID: &groupID},
				Amount: decimal.NewFromInt(10),
			},
			wantErr: errs.ErrInvalidInput,
		},
		{
			name: "GroupSuccessDerivesCycle",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(1000),
				Date:   time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GroupClock(gomock.Any(), groupID).Return(weekly, nil)
				m.EXPECT().IsMember(gomock.Any(), groupID, user).Return(true, nil)
				m.EXPECT().SettledCycles(gomock.Any(), groupID, user, 0, weekly.CycleAmount).Return([]int{0}, nil)
				m.EXPECT().CreateContribution(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, c *contribution.Contribution) {
				require.NotNil(t, c.CycleIndex)
				assert.Equal(t, 1, *c.CycleIndex)
				assert.Equal(t, contribution.TargetGroup, c.Kind())
			},
		},
		{
			name: "GroupCurrentCycleSkipsSettlementLookup",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(1000),
				Date:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GroupClock(gomock.Any(), groupID).Return(weekly, nil)
				m.EXPECT().IsMember(gomock.Any(), groupID, user).Return(true, nil)
				m.EXPECT().CreateContribution(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, c *contribution.Contribution) {
				require.NotNil(t, c.CycleIndex)
				assert.Equal(t, 0, *c.CycleIndex)
			},
		},
		{
			name: "GroupLatePaymentSettlesHeldCycle",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(1000),
				Date:   time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GroupClock(gomock.Any(), groupID).Return(weekly, nil)
				m.EXPECT().IsMember(gomock.Any(), groupID, user).Return(true, nil)
				m.EXPECT().SettledCycles(gomock.Any(), groupID, user, 0, weekly.CycleAmount).Return(nil, nil)
				m.EXPECT().CreateContribution(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, c *contribution.Contribution) {
				require.NotNil(t, c.CycleIndex)
				assert.Equal(t, 0, *c.CycleIndex)
				assert.Equal(t, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), c.Date)
			},
		},
		{
			name: "GroupBackdatedIntoClosedCycle",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(1000),
				Date:   time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *contribution.MockRepository) {
				advanced := weekly
				advanced.CurrentCycle = 1

				m.EXPECT().GroupClock(gomock.Any(), groupID).Return(advanced, nil)
				m.EXPECT().IsMember(gomock.Any(), groupID, user).Return(true, nil)
				m.EXPECT().CreateContribution(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, c *contribution.Contribution) {
				require.NotNil(t, c.CycleIndex)
				assert.Equal(t, 0, *c.CycleIndex)
			},
		},
		{
			name: "GroupSettlementLookupFails",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(1000),
				Date:   time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GroupClock(gomock.Any(), groupID).Return(weekly, nil)
				m.EXPECT().IsMember(gomock.Any(), groupID, user).Return(true, nil)
				m.EXPECT().
					SettledCycles(gomock.Any(), groupID, user, 0, weekly.CycleAmount).
					Return(nil, lookupErr)
			},
			wantErr: lookupErr,
		},
		{
			name: "GroupNotAMember",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(1000),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GroupClock(gomock.Any(), groupID).Return(weekly, nil)
				m.EXPECT().IsMember(gomock.Any(), groupID, user).Return(false, nil)
			},
			wantErr: errs.ErrNotAMember,
		},
		{
			name: "GroupMissing",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(1000),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GroupClock(gomock.Any(), groupID).Return(contribution.GroupClock{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name: "GroupDateBeforeAnchor",
			params: contribution.RecordParams{
				UserID: user,
				Target: contribution.GroupTarget(groupID),
				Amount: decimal.NewFromInt(1000),
				Date:   anchor.Add(-time.Hour),
			},
			setupMock: func(m *contribution.MockRepository) {
				m.EXPECT().GroupClock(gomock.Any(), groupID).Return(weekly, nil)
				m.EXPECT().IsMember(gomock.Any(), groupID, user).Return(true, nil)
			},
			wantErr: errs.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := contribution.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			pub := &recordingPublisher{}
			got, err := newService(repo, pub).Record(context.Background(), tt.params)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.Empty(t, pub.events)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, user, got.UserID)
			require.Len(t, pub.events, 1)
			assert.Equal(t, events.ContributionRecorded, pub.events[0].Type)

			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestService_Record_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := uuid.New()
	goalID := uuid.New()

	repo := contribution.NewMockRepository(ctrl)
	repo.EXPECT().GoalOwner(gomock.Any(), goalID).Return(user, nil)
	repo.EXPECT().
		CreateContribution(gomock.Any(), gomock.Any()).
		Return(errs.Storage("creating contribution", errors.New("connection reset")))

	_, err := newService(repo, events.Nop{}).Record(context.Background(), contribution.RecordParams{
		UserID: user,
		Target: contribution.GoalTarget(goalID),
		Amount: decimal.NewFromInt(5),
	})

	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))
}

func TestService_Record_PublishFailureKeepsWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := uuid.New()
	goalID := uuid.New()

	repo := contribution.NewMockRepository(ctrl)
	repo.EXPECT().GoalOwner(gomock.Any(), goalID).Return(user, nil)
	repo.EXPECT().CreateContribution(gomock.Any(), gomock.Any()).Return(nil)

	pub := &recordingPublisher{err: errors.New("broker down")}

	got, err := newService(repo, pub).Record(context.Background(), contribution.RecordParams{
		UserID: user,
		Target: contribution.GoalTarget(goalID),
		Amount: decimal.NewFromInt(5),
	})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, pub.events, 1)
}

func TestService_RecordBatch(t *testing.T) {
	user := uuid.New()
	goalID := uuid.New()

	lines := []contribution.Line{
		{Amount: decimal.NewFromInt(100), Date: now.AddDate(0, 0, -2), Note: "salary"},
		{Amount: decimal.RequireFromString("50.25"), Date: now.AddDate(0, 0, -1)},
	}

	type testCase struct {
		name      string
		lines     []contribution.Line
		setupMock func(m *contribution.MockRepository, tx *contribution.MockBatchTx)
		wantLen   int
		wantErr   error
	}

	tests := []testCase{
		{
			name:  "Success",
			lines: lines,
			setupMock: func(m *contribution.MockRepository, tx *contribution.MockBatchTx) {
				m.EXPECT().GoalOwner(gomock.Any(), goalID).Return(user, nil)
				m.EXPECT().BeginBatch(gomock.Any()).Return(tx, nil)
				tx.EXPECT().
					CreateContributions(gomock.Any(), gomock.Len(2)).
					Return(nil)
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantLen: 2,
		},
		{
			name:    "Empty",
			lines:   nil,
			wantLen: 0,
		},
		{
			name: "InvalidLineWritesNothing",
			lines: append([]contribution.Line{
				{Amount: decimal.NewFromInt(-1), Date: now},
			}, lines...),
			wantErr: errs.ErrInvalidAmount,
		},
		{
			name:    "MissingDate",
			lines:   []contribution.Line{{Amount: decimal.NewFromInt(1)}},
			wantErr: errs.ErrInvalidDate,
		},
		{
			name:  "InsertFailureRollsBack",
			lines: lines,
			setupMock: func(m *contribution.MockRepository, tx *contribution.MockBatchTx) {
				m.EXPECT().GoalOwner(gomock.Any(), goalID).Return(user, nil)
				m.EXPECT().BeginBatch(gomock.Any()).Return(tx, nil)
				tx.EXPECT().
					CreateContributions(gomock.Any(), gomock.Any()).
					Return(errs.Storage("creating contribution", errors.New("boom")))
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: &errs.StorageError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := contribution.NewMockRepository(ctrl)
			tx := contribution.NewMockBatchTx(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, tx)
			}

			got, err := newService(repo, events.Nop{}).RecordBatch(context.Background(), user, goalID, tt.lines)

			if tt.wantErr != nil {
				require.Error(t, err)

				var se *errs.StorageError
				if errors.As(tt.wantErr, &se) {
					assert.True(t, errs.IsStorage(err))
				} else {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)

			for _, c := range got {
				assert.Equal(t, goalID, *c.GoalID)
			}
		})
	}
}

func TestService_ListForGroupCycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	groupID := uuid.New()
	repo := contribution.NewMockRepository(ctrl)

	repo.EXPECT().
		ListByGroupCycle(gomock.Any(), groupID, 1).
		Return([]*contribution.Contribution{{ID: uuid.New()}}, nil)

	got, err := newService(repo, events.Nop{}).ListForGroupCycle(context.Background(), groupID, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = newService(repo, events.Nop{}).ListForGroupCycle(context.Background(), groupID, -1)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

package admin

import (
	"context"
	"errors"
	"testing"

	"carp-service/internal/domain/audit"
	"carp-service/internal/domain/emission"
	"carp-service/internal/domain/stats"
	"carp-service/internal/domain/user"
	xerrors "carp-service/internal/pkg/errors"
	auditsvc "carp-service/internal/service/audit"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTx applies staged writes only when committed.
type fakeTx struct {
	pgx.Tx
	staged     []func()
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	for _, apply := range t.staged {
		apply()
	}
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) BeginTx(context.Context) (pgx.Tx, error) {
	d.tx = &fakeTx{}
	return d.tx, nil
}

func stage(tx pgx.Tx, apply func()) {
	ftx := tx.(*fakeTx)
	ftx.staged = append(ftx.staged, apply)
}

type fakeUsers struct {
	users map[int64]user.User
	// concurrent holds rows another transaction committed after an
	// unlocked read; the row lock sees them.
	concurrent map[int64]user.User
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) List(_ context.Context, _ *user.UserListFilters) ([]user.User, int64, error) {
	var out []user.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) FindByIDForUpdate(ctx context.Context, _ pgx.Tx, id int64) (*user.User, error) {
	if u, ok := f.concurrent[id]; ok {
		return &u, nil
	}
	return f.FindByID(ctx, id)
}

func (f *fakeUsers) UpdateWithTx(_ context.Context, tx pgx.Tx, u *user.User) error {
	cp := *u
	stage(tx, func() { f.users[cp.ID] = cp })
	return nil
}

func (f *fakeUsers) DeleteWithTx(_ context.Context, tx pgx.Tx, id int64) error {
	stage(tx, func() { delete(f.users, id) })
	return nil
}

type fakeFactors struct {
	nextID  int64
	factors map[int64]emission.EmissionFactor
}

func (f *fakeFactors) List(_ context.Context, _ *emission.FactorListFilters) ([]emission.EmissionFactor, int64, error) {
	return nil, 0, nil
}

func (f *fakeFactors) CreateWithTx(_ context.Context, tx pgx.Tx, factor *emission.EmissionFactor) error {
	f.nextID++
	factor.ID, factor.Version = f.nextID, 1
	cp := *factor
	stage(tx, func() { f.factors[cp.ID] = cp })
	return nil
}

func (f *fakeFactors) FindByIDForUpdate(_ context.Context, _ pgx.Tx, id int64) (*emission.EmissionFactor, error) {
	factor, ok := f.factors[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &factor, nil
}

func (f *fakeFactors) UpdateWithTx(_ context.Context, tx pgx.Tx, factor *emission.EmissionFactor) error {
	factor.Version++
	cp := *factor
	stage(tx, func() { f.factors[cp.ID] = cp })
	return nil
}

func (f *fakeFactors) DeactivateWithTx(_ context.Context, tx pgx.Tx, id int64) error {
	stage(tx, func() {
		factor := f.factors[id]
		factor.IsActive = false
		f.factors[id] = factor
	})
	return nil
}

type MockLogWriter struct {
	mock.Mock
}

func (m *MockLogWriter) Create(ctx context.Context, entry *audit.AdminLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockLogWriter) CreateWithTx(ctx context.Context, tx pgx.Tx, entry *audit.AdminLog) error {
	return m.Called(ctx, tx, entry).Error(0)
}

type fakeStats struct{}

func (fakeStats) AdminStats(context.Context) (*stats.AdminStats, error) {
	return &stats.AdminStats{TotalUsers: 2, PendingTrips: 1}, nil
}

type fakeLogs struct{}

func (fakeLogs) List(context.Context, *audit.LogListFilters) ([]audit.AdminLog, int64, error) {
	return []audit.AdminLog{{ID: 1}}, 1, nil
}

type recordingPending struct {
	pairs []string
}

func (r *recordingPending) ResolvePending(_ context.Context, vt emission.VehicleType, ft emission.FuelType) (int, error) {
	r.pairs = append(r.pairs, string(vt)+"/"+string(ft))
	return 1, nil
}

type recordingRevoker struct {
	revoked []int64
}

func (r *recordingRevoker) RevokeUser(_ context.Context, userID int64) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

type fixture struct {
	svc     *AdminService
	db      *fakeDB
	users   *fakeUsers
	factors *fakeFactors
	logs    *MockLogWriter
	pending *recordingPending
	revoker *recordingRevoker
}

func newFixture() *fixture {
	f := &fixture{
		db: &fakeDB{},
		users: &fakeUsers{users: map[int64]user.User{
			1: {ID: 1, Email: "root@carp.local", FullName: "Root", Role: user.RoleAdmin, IsActive: true},
			2: {ID: 2, Email: "ada@example.com", FullName: "Ada", Role: user.RoleUser, IsActive: true},
		}},
		factors: &fakeFactors{nextID: 1, factors: map[int64]emission.EmissionFactor{
			1: {ID: 1, VehicleType: "car", FuelType: "gasoline", FactorGPerKm: 120, IsActive: true, Version: 1},
		}},
		logs:    new(MockLogWriter),
		pending: &recordingPending{},
		revoker: &recordingRevoker{},
	}
	recorder := auditsvc.NewRecorder(f.db, f.logs, auditsvc.DefaultPolicy(), zap.NewNop())
	f.svc = NewAdminService(f.users, f.factors, fakeStats{}, fakeLogs{}, recorder, f.pending, f.revoker, zap.NewNop())
	return f
}

var rootActor = audit.Actor{AdminID: 1, IPAddress: "10.0.0.1", UserAgent: "test"}

func TestUpdateUserRole_LogFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.logs.On("CreateWithTx", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	role := user.RoleAdmin
	_, err := f.svc.UpdateUser(context.Background(), rootActor, 2, &user.UpdateUserRequest{Role: &role})

	assert.ErrorIs(t, err, xerrors.ErrAdminActionFailed)
	assert.True(t, f.db.tx.rolledBack)
	assert.Equal(t, user.RoleUser, f.users.users[2].Role)
	assert.Empty(t, f.revoker.revoked)
}

func TestUpdateUserRole_LoggedInTransaction(t *testing.T) {
	f := newFixture()
	f.logs.On("CreateWithTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e *audit.AdminLog) bool {
		return e.Action == audit.ActionUpdateUserRole && *e.TargetID == 2 &&
			len(e.OldData) > 0 && len(e.NewData) > 0
	})).Return(nil)

	role := user.RoleAdmin
	got, err := f.svc.UpdateUser(context.Background(), rootActor, 2, &user.UpdateUserRequest{Role: &role})
	require.NoError(t, err)

	assert.Equal(t, user.RoleAdmin, got.Role)
	assert.Equal(t, user.RoleAdmin, f.users.users[2].Role)
	assert.Equal(t, []int64{2}, f.revoker.revoked)
	f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateUserRole_DecidedFromLockedRow(t *testing.T) {
	f := newFixture()
	promoted := f.users.users[2]
	promoted.Role = user.RoleAdmin
	f.users.concurrent = map[int64]user.User{2: promoted}

	f.logs.On("CreateWithTx", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	role := user.RoleUser
	_, err := f.svc.UpdateUser(context.Background(), rootActor, 2, &user.UpdateUserRequest{Role: &role})

	assert.ErrorIs(t, err, xerrors.ErrAdminActionFailed)
	assert.True(t, f.db.tx.rolledBack)
	f.logs.AssertCalled(t, "CreateWithTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e *audit.AdminLog) bool {
		return e.Action == audit.ActionUpdateUserRole
	}))
	f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateUser_SameRoleIsNotARoleChange(t *testing.T) {
	f := newFixture()
	f.logs.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.AdminLog) bool {
		return e.Action == audit.ActionUpdateUser
	})).Return(nil)

	role := user.RoleUser
	_, err := f.svc.UpdateUser(context.Background(), rootActor, 2, &user.UpdateUserRequest{Role: &role})
	require.NoError(t, err)

	f.logs.AssertExpectations(t)
	f.logs.AssertNotCalled(t, "CreateWithTx", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.revoker.revoked)
}

func TestUpdateUser_NameChangeIsFailOpen(t *testing.T) {
	f := newFixture()
	f.logs.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.AdminLog) bool {
		return e.Action == audit.ActionUpdateUser
	})).Return(errors.New("disk full"))

	name := "Ada Lovelace"
	got, err := f.svc.UpdateUser(context.Background(), rootActor, 2, &user.UpdateUserRequest{FullName: &name})
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.Equal(t, "Ada Lovelace", f.users.users[2].FullName)
	assert.True(t, f.db.tx.committed)
	f.logs.AssertExpectations(t)
}

func TestUpdateUser_SelfProtection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	role := user.RoleUser
	_, err := f.svc.UpdateUser(ctx, rootActor, 1, &user.UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	inactive := false
	_, err = f.svc.UpdateUser(ctx, rootActor, 1, &user.UpdateUserRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, rootActor, 1), xerrors.ErrForbidden)
	assert.Nil(t, f.db.tx)
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	f := newFixture()

	role := user.Role("owner")
	_, err := f.svc.UpdateUser(context.Background(), rootActor, 2, &user.UpdateUserRequest{Role: &role})
	fe, ok := xerrors.AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "role", fe.Field)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture()
	f.logs.On("CreateWithTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e *audit.AdminLog) bool {
		return e.Action == audit.ActionDeleteUser && len(e.OldData) > 0 && e.NewData == nil
	})).Return(nil)

	require.NoError(t, f.svc.DeleteUser(context.Background(), rootActor, 2))

	_, exists := f.users.users[2]
	assert.False(t, exists)
	assert.Equal(t, []int64{2}, f.revoker.revoked)
}

func TestDeleteUser_Unknown(t *testing.T) {
	f := newFixture()

	err := f.svc.DeleteUser(context.Background(), rootActor, 42)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	f.logs.AssertNotCalled(t, "CreateWithTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateEmissionFactor(t *testing.T) {
	f := newFixture()
	f.logs.On("Create", mock.Anything, mock.MatchedBy(func(e *audit.AdminLog) bool {
		return e.Action == audit.ActionCreateEmissionFactor && e.TargetID != nil && *e.TargetID == 2
	})).Return(nil)

	got, err := f.svc.CreateEmissionFactor(context.Background(), rootActor, &emission.CreateFactorRequest{
		VehicleType:  "van",
		FuelType:     "electric",
		FactorGPerKm: 60,
		Description:  " Electric van ",
		Tags:         []string{"Efficient", "efficient"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, "Electric van", got.Description)
	assert.Equal(t, []string{"efficient"}, got.Tags)
	assert.Equal(t, int64(1), *got.CreatedBy)
	assert.True(t, f.factors.factors[2].IsActive)
	assert.Equal(t, []string{"van/electric"}, f.pending.pairs)
	f.logs.AssertExpectations(t)
}

func TestCreateEmissionFactor_Invalid(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateEmissionFactor(context.Background(), rootActor, &emission.CreateFactorRequest{
		VehicleType: "car", FuelType: "gasoline", FactorGPerKm: -5,
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Nil(t, f.db.tx)
}

func TestDeactivateThenReactivateFactor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.logs.On("Create", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.DeactivateEmissionFactor(ctx, rootActor, 1)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.False(t, f.factors.factors[1].IsActive)
	assert.Empty(t, f.pending.pairs)

	active := true
	got, err = f.svc.UpdateEmissionFactor(ctx, rootActor, 1, &emission.UpdateFactorRequest{IsActive: &active})
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, []string{"car/gasoline"}, f.pending.pairs)

	// a plain value change does not trigger a back-fill
	value := 118.0
	_, err = f.svc.UpdateEmissionFactor(ctx, rootActor, 1, &emission.UpdateFactorRequest{FactorGPerKm: &value})
	require.NoError(t, err)
	assert.Len(t, f.pending.pairs, 1)
	assert.Equal(t, 118.0, f.factors.factors[1].FactorGPerKm)
}

func TestStatsAndLogs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalUsers)

	logs, err := f.svc.ListLogs(ctx, &audit.LogListFilters{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), logs.Total)
	assert.Equal(t, 1, logs.TotalPages)
}

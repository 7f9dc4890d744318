package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestPoolBalanceSumsSucceededContributions(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0)`)).
		WithArgs("pool-1", ContributionStatusSucceeded).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("150.50"))

	balance, err := NewPoolRepository(db).Balance("pool-1")
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.RequireFromString("150.50")))
}

func TestPoolCloseReportsAlreadyClosed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPoolRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE pools SET status`)).
		WithArgs(PoolStatusClosed, "pool-1", PoolStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))

	closed, err := repo.Close("pool-1")
	require.NoError(t, err)
	require.True(t, closed)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE pools SET status`)).
		WithArgs(PoolStatusClosed, "pool-1", PoolStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 0))

	closed, err = repo.Close("pool-1")
	require.NoError(t, err)
	require.False(t, closed)
}

func TestGroupCreateWithOwnerInsertsOwnerMembership(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO groups`)).
		WithArgs("user-1", "Lisbon trip", "EUR").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "currency", "created_at"}).
			AddRow("group-1", "user-1", "Lisbon trip", "EUR", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO group_members`)).
		WithArgs("group-1", "user-1", GroupRoleOwner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	group, err := NewGroupRepository(db).CreateWithOwner(&models.Group{
		OwnerID:  "user-1",
		Name:     "Lisbon trip",
		Currency: "EUR",
	})
	require.NoError(t, err)
	require.Equal(t, "group-1", group.ID)
}

func TestGroupCreateWithOwnerRollsBackOnMemberFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO groups`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "currency", "created_at"}).
			AddRow("group-1", "user-1", "Lisbon trip", "EUR", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO group_members`)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	_, err := NewGroupRepository(db).CreateWithOwner(&models.Group{OwnerID: "user-1", Name: "Lisbon trip", Currency: "EUR"})
	require.Error(t, err)
}

func TestGroupMemberWritesSkipOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE group_members SET role`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateMember("group-1", "owner-1", GroupRoleMember, decimal.NullDecimal{})
	require.ErrorIs(t, err, ErrOwnerMembershipImmutable)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM group_members`)).
		WithArgs("group-1", "member-1", GroupRoleOwner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RemoveMember("group-1", "member-1"))
}

func TestTransactionInsertIgnoresDuplicateReference(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	trx := &models.Transaction{
		PoolID:            "pool-1",
		Amount:            decimal.RequireFromString("12.00"),
		Type:              TransactionTypePurchase,
		Status:            TransactionStatusPosted,
		ProviderReference: "ipi_123",
	}

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (provider_reference) DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	inserted, err := repo.Insert(trx)
	require.NoError(t, err)
	require.True(t, inserted)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (provider_reference) DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	inserted, err = repo.Insert(trx)
	require.NoError(t, err)
	require.False(t, inserted)
}

func TestSplitSettleIfComplete(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE splits SET status`)).
		WithArgs(SplitStatusSettled, "split-1", SplitStatusOpen, ParticipantStatusUnpaid).
		WillReturnResult(sqlmock.NewResult(0, 1))

	settled, err := NewSplitRepository(db).SettleIfComplete("split-1")
	require.NoError(t, err)
	require.True(t, settled)
}

func TestCountConsecutiveFailedLoginAttempts(t *testing.T) {
	tests := []struct {
		name         string
		descriptions []string
		want         int
	}{
		{"no attempts", nil, 0},
		{"three failures", []string{"Login failed", "Login failed", "Login failed"}, 3},
		{"success breaks the run", []string{"Login failed", "Login successful", "Login failed"}, 1},
		{"latest success", []string{"Login successful", "Login failed"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)

			rows := sqlmock.NewRows([]string{"description"})
			for _, d := range tt.descriptions {
				rows.AddRow(d)
			}
			mock.ExpectQuery(regexp.QuoteMeta(`FROM audit_logs`)).
				WithArgs("user-1", ActivityLogUserEntity).
				WillReturnRows(rows)

			got := NewActivityRepository(db).CountConsecutiveFailedLoginAttempts("user-1", "Login failed")
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSettingSetStoresNullUpdaterForSeeds(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO system_settings`)).
		WithArgs(SettingKillSwitch, "false", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewSettingRepository(db).Set(SettingKillSwitch, "false", ""))
}

func TestSplitHasPendingPayment(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM split_payments`)).
		WithArgs("participant-1", SplitPaymentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	pending, err := NewSplitRepository(db).HasPendingPayment("participant-1")
	require.NoError(t, err)
	require.True(t, pending)
}

func TestSplitInsertPaymentKeepsFirstRowPerReference(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (provider_reference) WHERE provider_reference <> '' DO NOTHING`)).
		WithArgs("participant-1", sqlmock.AnyArg(), "pi_9", SplitPaymentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewSplitRepository(db).InsertPayment(&models.SplitPayment{
		ParticipantID:     "participant-1",
		Amount:            decimal.RequireFromString("33.34"),
		ProviderReference: "pi_9",
		Status:            SplitPaymentStatusPending,
	})
	require.NoError(t, err)
}

func TestContributionUpdateStatusOnlyMovesPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContributionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contributions`)).
		WithArgs(ContributionStatusSucceeded, "pi_1", "", "c-1", ContributionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.UpdateStatus("c-1", ContributionStatusSucceeded, "pi_1", "")
	require.NoError(t, err)
	require.True(t, updated)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contributions`)).
		WithArgs(ContributionStatusFailed, "", "timeout", "c-1", ContributionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err = repo.UpdateStatus("c-1", ContributionStatusFailed, "", "timeout")
	require.NoError(t, err)
	require.False(t, updated)
}

func TestAdminActionListPassesFilter(t *testing.T) {
	db, mock := newMockDB(t)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM admin_actions`)).
		WithArgs(AdminActionUnlockUser, sqlmock.AnyArg(), sqlmock.AnyArg(), 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id", "action", "target_type", "target_id", "details", "created_at"}).
			AddRow("a-1", "admin-1", AdminActionUnlockUser, "user", "user-1", "", from))

	actions, err := NewAdminActionRepository(db).List(ListFilter{
		Search: AdminActionUnlockUser,
		From:   &from,
		Limit:  20,
		Offset: 40,
	})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.Equal(t, "user-1", actions[0].TargetID)
}

func TestLookupsTreatMalformedIdsAsNotFound(t *testing.T) {
	// no query is expected: sqlmock fails the test if one is sent
	db, _ := newMockDB(t)

	_, found, err := NewPoolRepository(db).GetOne("abc")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = NewCardRepository(db).GetOne("1; DROP TABLE cards")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = NewGroupRepository(db).GetMember("8a1f0c4e-1b8e-4a55-9a57-0d6b0f3c2e11", "not-a-user")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = NewVerificationRepository(db).GetByUserId("")
	require.NoError(t, err)
	require.False(t, found)
}

func TestPoolGetOneQueriesValidIds(t *testing.T) {
	db, mock := newMockDB(t)

	id := "8a1f0c4e-1b8e-4a55-9a57-0d6b0f3c2e11"
	mock.ExpectQuery(regexp.QuoteMeta(`FROM pools`)).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, found, err := NewPoolRepository(db).GetOne(id)
	require.NoError(t, err)
	require.False(t, found)
}

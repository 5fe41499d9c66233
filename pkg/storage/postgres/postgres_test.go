package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestGetClient(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "phone", "mobile",
			"company_name", "status", "sales_contact_id", "created_at", "updated_at",
		}).AddRow(7, "Olive", "Owner", "olive@initech.test", "", "", "Initech", true, 2, now, now)
		mock.ExpectQuery("SELECT id, first_name, last_name, email, phone, mobile, company_name, status, sales_contact_id, created_at, updated_at FROM clients WHERE id =").
			WithArgs(int64(7)).
			WillReturnRows(rows)

		c, err := s.GetClient(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "Olive", c.FirstName)
		assert.True(t, c.Status)
		require.NotNil(t, c.SalesContactID)
		assert.Equal(t, int64(2), *c.SalesContactID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, first_name").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := s.GetClient(ctx, 99)
		var nf *crm.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "client", nf.Kind)
		assert.Equal(t, int64(99), nf.ID)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClient(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO clients").
		WithArgs("Pat", "Prospect", "pat@acme.test", "", "", "Acme", false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(3, now, now))

	c := &crm.Client{FirstName: "Pat", LastName: "Prospect", Email: "pat@acme.test", CompanyName: "Acme"}
	require.NoError(t, s.CreateClient(ctx, c))
	assert.Equal(t, int64(3), c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClient(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM clients WHERE id =").
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, s.DeleteClient(ctx, 3))
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM clients WHERE id =").
			WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		var nf *crm.NotFoundError
		require.ErrorAs(t, s.DeleteClient(ctx, 4), &nf)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListClientsForActor(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()
	seller := crm.User{ID: 2, Team: crm.TeamSales}

	t.Run("sales sees prospects and owned", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "phone", "mobile",
			"company_name", "status", "sales_contact_id", "created_at", "updated_at",
		}).AddRow(1, "Pat", "Prospect", "pat@acme.test", "", "", "Acme", false, nil, now, now)
		mock.ExpectQuery(`FROM clients WHERE \(status = FALSE OR sales_contact_id = \$1\) ORDER BY id`).
			WithArgs(int64(2)).
			WillReturnRows(rows)

		got, err := s.ListClientsForActor(ctx, seller, storage.ClientFilter{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].SalesContactID)
	})

	t.Run("filters combine with scope predicate", func(t *testing.T) {
		converted := true
		mock.ExpectQuery(`FROM clients WHERE status = \$1 AND \(status = FALSE OR sales_contact_id = \$2\)`).
			WithArgs(true, int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "first_name", "last_name", "email", "phone", "mobile",
				"company_name", "status", "sales_contact_id", "created_at", "updated_at",
			}))

		got, err := s.ListClientsForActor(ctx, seller, storage.ClientFilter{Status: &converted})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown team sees nothing without querying", func(t *testing.T) {
		got, err := s.ListClientsForActor(ctx, crm.User{ID: 9, Team: "intern"}, storage.ClientFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateContract(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()
	due := now.Add(14 * 24 * time.Hour)

	t.Run("updated", func(t *testing.T) {
		mock.ExpectQuery("UPDATE contracts").
			WithArgs(int64(2), true, 1200.0, due, int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		k := &crm.Contract{ID: 5, ClientID: 1, SalesContactID: 2, Status: true, Amount: 1200, PaymentDue: due}
		require.NoError(t, s.UpdateContract(ctx, k))
		assert.WithinDuration(t, now, k.UpdatedAt, time.Second)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		mock.ExpectQuery("UPDATE contracts").
			WithArgs(int64(2), false, 100.0, due, int64(77)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

		k := &crm.Contract{ID: 77, SalesContactID: 2, Amount: 100, PaymentDue: due}
		var nf *crm.NotFoundError
		require.ErrorAs(t, s.UpdateContract(ctx, k), &nf)
		assert.Equal(t, "contract", nf.Kind)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEventByContract(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "contract_id", "name", "location", "support_contact_id",
		"event_status", "attendees", "event_date", "notes", "created_at", "updated_at",
	}).AddRow(1, 5, "Launch", "Paris", 4, false, 80, now, "", now, now)
	mock.ExpectQuery("FROM events WHERE contract_id =").
		WithArgs(int64(5)).
		WillReturnRows(rows)

	e, err := s.GetEventByContract(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Launch", e.Name)
	require.NotNil(t, e.SupportContactID)
	assert.Equal(t, int64(4), *e.SupportContactID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportLinks(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(4), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := s.SupportsClient(ctx, 4, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(4), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	ok, err = s.SupportsContract(ctx, 4, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("FROM users WHERE id =").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "full_name", "team", "is_active", "created_at", "updated_at",
		}).AddRow(2, "sam", "sam@epic.test", "Sam Seller", "sales", true, now, now))

	u, err := s.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, crm.TeamSales, u.Team)
	assert.True(t, u.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounts(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM clients`).
		WillReturnRows(sqlmock.NewRows([]string{
			"c1", "c2", "c3", "c4", "c5", "c6", "c7",
		}).AddRow(10, 4, 6, 3, 3, 5, 8))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), counts.Clients)
	assert.Equal(t, int64(4), counts.ClientsConverted)
	assert.Equal(t, int64(3), counts.ContractsSigned)
	assert.Equal(t, int64(8), counts.ActiveTokens)
	assert.NoError(t, mock.ExpectationsWereMet())
}

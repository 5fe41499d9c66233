package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/perm"
)

func seedStore(t *testing.T) (*MemoryStore, map[string]crm.User) {
	t.Helper()
	s := NewMemoryStore()

	users := map[string]crm.User{
		"manager":   s.AddUser(crm.User{Username: "mona", Team: crm.TeamManagement, IsActive: true}),
		"seller":    s.AddUser(crm.User{Username: "sam", Team: crm.TeamSales, IsActive: true}),
		"otherSale": s.AddUser(crm.User{Username: "sue", Team: crm.TeamSales, IsActive: true}),
		"supporter": s.AddUser(crm.User{Username: "sid", Team: crm.TeamSupport, IsActive: true}),
		"idleSup":   s.AddUser(crm.User{Username: "stan", Team: crm.TeamSupport, IsActive: true}),
	}
	ctx := context.Background()
	seller := users["seller"]
	otherSale := users["otherSale"]
	supporter := users["supporter"]

	// Prospect with no contracts.
	prospect := &crm.Client{FirstName: "Pat", LastName: "Prospect", Email: "pat@acme.test", CompanyName: "Acme"}
	require.NoError(t, s.CreateClient(ctx, prospect))

	// Converted client owned by seller, with a signed contract and a
	// planned event assigned to supporter.
	owned := &crm.Client{FirstName: "Olive", LastName: "Owner", Email: "olive@initech.test", CompanyName: "Initech", Status: true, SalesContactID: &seller.ID}
	require.NoError(t, s.CreateClient(ctx, owned))
	signed := &crm.Contract{ClientID: owned.ID, SalesContactID: seller.ID, Status: true, Amount: 1200, PaymentDue: time.Now().Add(30 * 24 * time.Hour)}
	require.NoError(t, s.CreateContract(ctx, signed))
	ev := &crm.Event{ContractID: signed.ID, Name: "Launch", Location: "Paris", SupportContactID: &supporter.ID, Attendees: 80, EventDate: time.Now().Add(45 * 24 * time.Hour)}
	require.NoError(t, s.CreateEvent(ctx, ev))

	// Converted client owned by the other seller, unsigned contract only.
	foreign := &crm.Client{FirstName: "Fred", LastName: "Far", Email: "fred@umbrella.test", CompanyName: "Umbrella", Status: true, SalesContactID: &otherSale.ID}
	require.NoError(t, s.CreateClient(ctx, foreign))
	draft := &crm.Contract{ClientID: foreign.ID, SalesContactID: otherSale.ID, Amount: 400, PaymentDue: time.Now().Add(14 * 24 * time.Hour)}
	require.NoError(t, s.CreateContract(ctx, draft))

	return s, users
}

func TestClientCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	c := &crm.Client{FirstName: "Ada", LastName: "Lively", Email: "ada@ex.test"}
	require.NoError(t, s.CreateClient(ctx, c))
	assert.NotZero(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := s.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)

	got.CompanyName = "Lovelace Ltd"
	require.NoError(t, s.UpdateClient(ctx, got))
	again, err := s.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace Ltd", again.CompanyName)

	require.NoError(t, s.DeleteClient(ctx, c.ID))
	_, err = s.GetClient(ctx, c.ID)
	var nf *crm.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "client", nf.Kind)
}

func TestCreateContractRequiresClient(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	err := s.CreateContract(ctx, &crm.Contract{ClientID: 99, SalesContactID: 1, Amount: 10})
	var nf *crm.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "client", nf.Kind)
}

func TestGetEventByContract(t *testing.T) {
	ctx := context.Background()
	s, _ := seedStore(t)

	ev, err := s.GetEventByContract(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Launch", ev.Name)

	_, err = s.GetEventByContract(ctx, 2)
	var nf *crm.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestListClientsFilters(t *testing.T) {
	ctx := context.Background()
	s, _ := seedStore(t)

	converted := true
	got, err := s.ListClients(ctx, ClientFilter{Status: &converted})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListClients(ctx, ClientFilter{Search: "aCmE"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pat", got[0].FirstName)
}

func TestListContractsFilters(t *testing.T) {
	ctx := context.Background()
	s, _ := seedStore(t)

	min := 1000.0
	got, err := s.ListContracts(ctx, ContractFilter{AmountMin: &min})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1200.0, got[0].Amount)

	unsigned := false
	got, err = s.ListContracts(ctx, ContractFilter{Status: &unsigned})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 400.0, got[0].Amount)
}

func TestListEventsFilters(t *testing.T) {
	ctx := context.Background()
	s, _ := seedStore(t)

	min := 100
	got, err := s.ListEvents(ctx, EventFilter{AttendeesMin: &min})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.ListEvents(ctx, EventFilter{Search: "lau"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestScopedClientLists(t *testing.T) {
	ctx := context.Background()
	s, users := seedStore(t)

	t.Run("management sees everything", func(t *testing.T) {
		got, err := s.ListClientsForActor(ctx, users["manager"], ClientFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("sales sees prospects and owned", func(t *testing.T) {
		got, err := s.ListClientsForActor(ctx, users["seller"], ClientFilter{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Pat", got[0].FirstName)
		assert.Equal(t, "Olive", got[1].FirstName)
	})

	t.Run("support sees clients behind supported events", func(t *testing.T) {
		got, err := s.ListClientsForActor(ctx, users["supporter"], ClientFilter{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Olive", got[0].FirstName)
	})

	t.Run("unassigned support sees nothing", func(t *testing.T) {
		got, err := s.ListClientsForActor(ctx, users["idleSup"], ClientFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestScopedContractLists(t *testing.T) {
	ctx := context.Background()
	s, users := seedStore(t)

	got, err := s.ListContractsForActor(ctx, users["manager"], ContractFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListContractsForActor(ctx, users["seller"], ContractFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(users["seller"].ID), got[0].SalesContactID)

	got, err = s.ListContractsForActor(ctx, users["supporter"], ContractFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Status)
}

func TestScopedEventLists(t *testing.T) {
	ctx := context.Background()
	s, users := seedStore(t)

	got, err := s.ListEventsForActor(ctx, users["manager"], EventFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.ListEventsForActor(ctx, users["seller"], EventFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.ListEventsForActor(ctx, users["otherSale"], EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.ListEventsForActor(ctx, users["supporter"], EventFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.ListEventsForActor(ctx, users["idleSup"], EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSupportReachability(t *testing.T) {
	ctx := context.Background()
	s, users := seedStore(t)
	sup := users["supporter"].ID

	ok, err := s.SupportsClient(ctx, sup, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SupportsClient(ctx, sup, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.SupportsContract(ctx, sup, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SupportsContract(ctx, sup, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

// A scoped list must contain exactly the records the actor is allowed to
// retrieve individually. Any drift between the two paths leaks data or
// hides records the actor should see.
func TestScopedListsMatchRetrievePermissions(t *testing.T) {
	ctx := context.Background()
	s, users := seedStore(t)
	checker := perm.NewChecker(s)

	for name, actor := range users {
		t.Run(name, func(t *testing.T) {
			listed, err := s.ListClientsForActor(ctx, actor, ClientFilter{})
			require.NoError(t, err)
			inList := make(map[int64]bool, len(listed))
			for _, c := range listed {
				inList[c.ID] = true
			}
			all, err := s.ListClients(ctx, ClientFilter{})
			require.NoError(t, err)
			for _, c := range all {
				d, err := checker.CanRetrieveClient(ctx, actor, c)
				require.NoError(t, err)
				assert.Equal(t, d.Allowed, inList[c.ID], "client %d", c.ID)
			}

			listedK, err := s.ListContractsForActor(ctx, actor, ContractFilter{})
			require.NoError(t, err)
			inListK := make(map[int64]bool, len(listedK))
			for _, k := range listedK {
				inListK[k.ID] = true
			}
			allK, err := s.ListContracts(ctx, ContractFilter{})
			require.NoError(t, err)
			for _, k := range allK {
				d, err := checker.CanRetrieveContract(ctx, actor, k)
				require.NoError(t, err)
				assert.Equal(t, d.Allowed, inListK[k.ID], "contract %d", k.ID)
			}

			listedE, err := s.ListEventsForActor(ctx, actor, EventFilter{})
			require.NoError(t, err)
			inListE := make(map[int64]bool, len(listedE))
			for _, e := range listedE {
				inListE[e.ID] = true
			}
			allE, err := s.ListEvents(ctx, EventFilter{})
			require.NoError(t, err)
			for _, e := range allE {
				k, err := s.GetContract(ctx, e.ContractID)
				require.NoError(t, err)
				d := checker.CanRetrieveEvent(actor, e, k)
				assert.Equal(t, d.Allowed, inListE[e.ID], "event %d", e.ID)
			}
		})
	}
}

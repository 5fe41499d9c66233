package perm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/pkg/crm"
)

// fakeRelations answers support reachability from fixed sets.
type fakeRelations struct {
	clients   map[[2]int64]bool // (userID, clientID)
	contracts map[[2]int64]bool // (userID, contractID)
	err       error
}

func (f *fakeRelations) SupportsClient(_ context.Context, userID, clientID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.clients[[2]int64{userID, clientID}], nil
}

func (f *fakeRelations) SupportsContract(_ context.Context, userID, contractID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.contracts[[2]int64{userID, contractID}], nil
}

var (
	manager   = crm.User{ID: 1, Username: "mona", Team: crm.TeamManagement}
	seller    = crm.User{ID: 2, Username: "sam", Team: crm.TeamSales}
	otherSale = crm.User{ID: 3, Username: "sue", Team: crm.TeamSales}
	supporter = crm.User{ID: 4, Username: "sid", Team: crm.TeamSupport}
)

func ownedClient(owner int64, converted bool) *crm.Client {
	c := &crm.Client{ID: 10, Status: converted}
	if converted {
		c.SalesContactID = &owner
	}
	return c
}

func TestCanCreate(t *testing.T) {
	c := NewChecker(&fakeRelations{})

	assert.True(t, c.CanCreateClient(seller).Allowed)
	assert.False(t, c.CanCreateClient(manager).Allowed)
	assert.False(t, c.CanCreateClient(supporter).Allowed)

	assert.True(t, c.CanCreateContract(seller).Allowed)
	assert.False(t, c.CanCreateContract(manager).Allowed)
	assert.False(t, c.CanCreateContract(supporter).Allowed)

	assert.True(t, c.CanCreateEvent(seller).Allowed)
	assert.False(t, c.CanCreateEvent(manager).Allowed)
	assert.False(t, c.CanCreateEvent(supporter).Allowed)
}

func TestCanRetrieveClient(t *testing.T) {
	rel := &fakeRelations{clients: map[[2]int64]bool{
		{supporter.ID, 10}: true,
	}}
	c := NewChecker(rel)
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  crm.User
		client *crm.Client
		want   bool
	}{
		{"management reads any client", manager, ownedClient(seller.ID, true), true},
		{"sales reads any prospect", otherSale, ownedClient(0, false), true},
		{"sales reads own converted client", seller, ownedClient(seller.ID, true), true},
		{"sales denied on foreign converted client", otherSale, ownedClient(seller.ID, true), false},
		{"support reads linked client", supporter, ownedClient(seller.ID, true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.CanRetrieveClient(ctx, tt.actor, tt.client)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Allowed, "rule %s: %s", d.Rule, d.Reason)
		})
	}

	t.Run("support denied without link", func(t *testing.T) {
		unlinked := &crm.Client{ID: 99, Status: true}
		d, err := c.CanRetrieveClient(ctx, supporter, unlinked)
		require.NoError(t, err)
		assert.False(t, d.Allowed)

		var perr *crm.PermissionError
		assert.True(t, errors.As(d.Err, &perr))
	})

	t.Run("relation lookup failure propagates", func(t *testing.T) {
		broken := NewChecker(&fakeRelations{err: errors.New("db down")})
		_, err := broken.CanRetrieveClient(ctx, supporter, ownedClient(seller.ID, true))
		assert.Error(t, err)
	})
}

func TestCanUpdateClient(t *testing.T) {
	c := NewChecker(&fakeRelations{})

	tests := []struct {
		name   string
		actor  crm.User
		client *crm.Client
		want   bool
	}{
		{"management is read-only", manager, ownedClient(0, false), false},
		{"sales updates any prospect", otherSale, ownedClient(0, false), true},
		{"sales updates own client", seller, ownedClient(seller.ID, true), true},
		{"sales denied on foreign converted client", otherSale, ownedClient(seller.ID, true), false},
		{"support never updates clients", supporter, ownedClient(0, false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.CanUpdateClient(tt.actor, tt.client)
			assert.Equal(t, tt.want, d.Allowed, "rule %s", d.Rule)
		})
	}
}

func TestCanDeleteClient(t *testing.T) {
	c := NewChecker(&fakeRelations{})

	t.Run("sales deletes prospect", func(t *testing.T) {
		d := c.CanDeleteClient(seller, ownedClient(0, false))
		assert.True(t, d.Allowed)
	})

	t.Run("converted client locked even for owner", func(t *testing.T) {
		d := c.CanDeleteClient(seller, ownedClient(seller.ID, true))
		assert.False(t, d.Allowed)
		assert.Equal(t, "converted-client-locked", d.Rule)
	})

	t.Run("management and support denied", func(t *testing.T) {
		assert.False(t, c.CanDeleteClient(manager, ownedClient(0, false)).Allowed)
		assert.False(t, c.CanDeleteClient(supporter, ownedClient(0, false)).Allowed)
	})
}

func TestCanRetrieveContract(t *testing.T) {
	rel := &fakeRelations{contracts: map[[2]int64]bool{
		{supporter.ID, 30}: true,
	}}
	c := NewChecker(rel)
	ctx := context.Background()

	contract := &crm.Contract{ID: 30, ClientID: 10, SalesContactID: seller.ID}

	d, err := c.CanRetrieveContract(ctx, manager, contract)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = c.CanRetrieveContract(ctx, seller, contract)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = c.CanRetrieveContract(ctx, otherSale, contract)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = c.CanRetrieveContract(ctx, supporter, contract)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = c.CanRetrieveContract(ctx, supporter, &crm.Contract{ID: 31, SalesContactID: seller.ID})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestCanUpdateContract(t *testing.T) {
	c := NewChecker(&fakeRelations{})

	t.Run("owner updates unsigned contract", func(t *testing.T) {
		d := c.CanUpdateContract(seller, &crm.Contract{ID: 30, SalesContactID: seller.ID})
		assert.True(t, d.Allowed)
	})

	t.Run("signed contract locked for every actor", func(t *testing.T) {
		signed := &crm.Contract{ID: 30, SalesContactID: seller.ID, Status: true}
		for _, actor := range []crm.User{manager, seller, otherSale, supporter} {
			d := c.CanUpdateContract(actor, signed)
			assert.False(t, d.Allowed)
			assert.Equal(t, "signed-contract-locked", d.Rule)

			var locked *crm.StateLockedError
			require.True(t, errors.As(d.Err, &locked), "actor %s", actor.Username)
			assert.Equal(t, crm.DetailSignedContract, locked.Detail)
		}
	})

	t.Run("foreign sales actor denied", func(t *testing.T) {
		d := c.CanUpdateContract(otherSale, &crm.Contract{ID: 30, SalesContactID: seller.ID})
		assert.False(t, d.Allowed)

		var perr *crm.PermissionError
		assert.True(t, errors.As(d.Err, &perr))
	})
}

func TestCanDeleteContractAlwaysDenied(t *testing.T) {
	c := NewChecker(&fakeRelations{})
	contract := &crm.Contract{ID: 30, SalesContactID: seller.ID}
	for _, actor := range []crm.User{manager, seller, supporter} {
		assert.False(t, c.CanDeleteContract(actor, contract).Allowed)
	}
}

func TestCanRetrieveEvent(t *testing.T) {
	c := NewChecker(&fakeRelations{})
	contract := &crm.Contract{ID: 30, SalesContactID: seller.ID, Status: true}
	sid := supporter.ID
	event := &crm.Event{ID: 40, ContractID: 30, SupportContactID: &sid}

	assert.True(t, c.CanRetrieveEvent(manager, event, contract).Allowed)
	assert.True(t, c.CanRetrieveEvent(seller, event, contract).Allowed)
	assert.True(t, c.CanRetrieveEvent(supporter, event, contract).Allowed)
	assert.False(t, c.CanRetrieveEvent(otherSale, event, contract).Allowed)

	unassigned := &crm.Event{ID: 41, ContractID: 30}
	assert.False(t, c.CanRetrieveEvent(supporter, unassigned, contract).Allowed)
}

func TestCanUpdateEvent(t *testing.T) {
	c := NewChecker(&fakeRelations{})
	contract := &crm.Contract{ID: 30, SalesContactID: seller.ID, Status: true}
	sid := supporter.ID

	t.Run("contract owner updates upcoming event", func(t *testing.T) {
		d := c.CanUpdateEvent(seller, &crm.Event{ID: 40, ContractID: 30}, contract)
		assert.True(t, d.Allowed)
	})

	t.Run("assigned support updates upcoming event", func(t *testing.T) {
		d := c.CanUpdateEvent(supporter, &crm.Event{ID: 40, ContractID: 30, SupportContactID: &sid}, contract)
		assert.True(t, d.Allowed)
	})

	t.Run("finished event locked before ownership", func(t *testing.T) {
		done := &crm.Event{ID: 40, ContractID: 30, SupportContactID: &sid, EventStatus: true}
		for _, actor := range []crm.User{manager, seller, otherSale, supporter} {
			d := c.CanUpdateEvent(actor, done, contract)
			assert.False(t, d.Allowed)
			assert.Equal(t, "finished-event-locked", d.Rule)

			var locked *crm.StateLockedError
			require.True(t, errors.As(d.Err, &locked))
			assert.Equal(t, crm.DetailFinishedEvent, locked.Detail)
		}
	})

	t.Run("unassigned support denied", func(t *testing.T) {
		d := c.CanUpdateEvent(supporter, &crm.Event{ID: 41, ContractID: 30}, contract)
		assert.False(t, d.Allowed)
	})

	t.Run("management denied", func(t *testing.T) {
		d := c.CanUpdateEvent(manager, &crm.Event{ID: 40, ContractID: 30}, contract)
		assert.False(t, d.Allowed)
	})
}

func TestDecisionsAreIdempotent(t *testing.T) {
	rel := &fakeRelations{clients: map[[2]int64]bool{{supporter.ID, 10}: true}}
	c := NewChecker(rel)
	ctx := context.Background()
	client := ownedClient(seller.ID, true)

	first, err := c.CanRetrieveClient(ctx, supporter, client)
	require.NoError(t, err)
	second, err := c.CanRetrieveClient(ctx, supporter, client)
	require.NoError(t, err)

	assert.Equal(t, first.Allowed, second.Allowed)
	assert.Equal(t, first.Rule, second.Rule)
	assert.Equal(t, first.Reason, second.Reason)
}

package transition

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/pkg/crm"
)

var (
	seller    = crm.User{ID: 2, Username: "sam", Team: crm.TeamSales}
	otherSale = crm.User{ID: 3, Username: "sue", Team: crm.TeamSales}
)

func TestClientCreateForcesOwner(t *testing.T) {
	t.Run("converted client is owned by the creator", func(t *testing.T) {
		foreign := int64(99)
		incoming := &crm.Client{Status: true, SalesContactID: &foreign}

		require.NoError(t, ClientCreate(seller, incoming))
		require.NotNil(t, incoming.SalesContactID)
		assert.Equal(t, seller.ID, *incoming.SalesContactID)
	})

	t.Run("prospect has no owner", func(t *testing.T) {
		foreign := int64(99)
		incoming := &crm.Client{Status: false, SalesContactID: &foreign}

		require.NoError(t, ClientCreate(seller, incoming))
		assert.Nil(t, incoming.SalesContactID)
	})
}

func TestClientUpdate(t *testing.T) {
	owner := seller.ID
	converted := &crm.Client{ID: 2, Status: true, SalesContactID: &owner, CreatedAt: time.Now()}

	t.Run("reverting a converted client is rejected", func(t *testing.T) {
		incoming := &crm.Client{ID: 2, Status: false}
		err := ClientUpdate(otherSale, converted, incoming)

		var verr *crm.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, crm.DetailConvertedClientStatus, verr.Detail)
	})

	t.Run("updating a converted client reassigns ownership to the editor", func(t *testing.T) {
		incoming := &crm.Client{Status: true}
		require.NoError(t, ClientUpdate(otherSale, converted, incoming))
		require.NotNil(t, incoming.SalesContactID)
		assert.Equal(t, otherSale.ID, *incoming.SalesContactID)
		assert.Equal(t, converted.ID, incoming.ID)
		assert.Equal(t, converted.CreatedAt, incoming.CreatedAt)
	})

	t.Run("prospect stays unowned", func(t *testing.T) {
		prospect := &crm.Client{ID: 3, Status: false}
		incoming := &crm.Client{Status: false, SalesContactID: &owner}
		require.NoError(t, ClientUpdate(seller, prospect, incoming))
		assert.Nil(t, incoming.SalesContactID)
	})

	t.Run("converting a prospect assigns the editor", func(t *testing.T) {
		prospect := &crm.Client{ID: 3, Status: false}
		incoming := &crm.Client{Status: true}
		require.NoError(t, ClientUpdate(seller, prospect, incoming))
		require.NotNil(t, incoming.SalesContactID)
		assert.Equal(t, seller.ID, *incoming.SalesContactID)
	})
}

func TestContractCreate(t *testing.T) {
	t.Run("unconverted client rejected", func(t *testing.T) {
		prospect := &crm.Client{ID: 5, Status: false}
		incoming := &crm.Contract{Amount: 100}
		err := ContractCreate(seller, prospect, incoming)

		var verr *crm.ValidationError
		require.True(t, errors.As(err, &verr))
	})

	t.Run("converted client accepted with forced owner", func(t *testing.T) {
		owner := otherSale.ID
		converted := &crm.Client{ID: 5, Status: true, SalesContactID: &owner}
		incoming := &crm.Contract{ClientID: 999, SalesContactID: 999, Amount: 100}

		require.NoError(t, ContractCreate(seller, converted, incoming))
		assert.Equal(t, converted.ID, incoming.ClientID)
		assert.Equal(t, seller.ID, incoming.SalesContactID)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		converted := &crm.Client{ID: 5, Status: true}
		err := ContractCreate(seller, converted, &crm.Contract{Amount: 0})
		var verr *crm.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestContractUpdate(t *testing.T) {
	current := &crm.Contract{ID: 7, ClientID: 5, SalesContactID: seller.ID, CreatedAt: time.Now()}

	incoming := &crm.Contract{ClientID: 999, SalesContactID: 999, Amount: 500}
	require.NoError(t, ContractUpdate(otherSale, current, incoming))

	assert.Equal(t, current.ID, incoming.ID)
	assert.Equal(t, current.ClientID, incoming.ClientID, "client reference is preserved")
	assert.Equal(t, otherSale.ID, incoming.SalesContactID, "ownership follows the editor")
	assert.Equal(t, current.CreatedAt, incoming.CreatedAt)
}

func TestEventCreate(t *testing.T) {
	t.Run("unsigned contract rejected", func(t *testing.T) {
		unsigned := &crm.Contract{ID: 7, Status: false}
		err := EventCreate(seller, unsigned, &crm.Event{Attendees: 10})

		var verr *crm.ValidationError
		require.True(t, errors.As(err, &verr))
	})

	t.Run("signed contract accepted, support starts unassigned", func(t *testing.T) {
		signed := &crm.Contract{ID: 7, Status: true}
		supportID := int64(4)
		incoming := &crm.Event{ContractID: 999, SupportContactID: &supportID, Attendees: 10}

		require.NoError(t, EventCreate(seller, signed, incoming))
		assert.Equal(t, signed.ID, incoming.ContractID)
		assert.Nil(t, incoming.SupportContactID)
	})
}

func TestEventUpdate(t *testing.T) {
	supportID := int64(4)
	current := &crm.Event{ID: 1, ContractID: 7, SupportContactID: &supportID, CreatedAt: time.Now()}

	t.Run("changing the contract reference is rejected first", func(t *testing.T) {
		incoming := &crm.Event{ContractID: 8, Attendees: 0}
		err := EventUpdate(current, incoming)

		var verr *crm.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, crm.DetailRelatedContract, verr.Detail)
	})

	t.Run("omitted contract reference is filled from the stored event", func(t *testing.T) {
		incoming := &crm.Event{Attendees: 10}
		require.NoError(t, EventUpdate(current, incoming))
		assert.Equal(t, current.ContractID, incoming.ContractID)
	})

	t.Run("support contact is preserved, never taken from the payload", func(t *testing.T) {
		foreign := int64(77)
		incoming := &crm.Event{ContractID: 7, SupportContactID: &foreign, Attendees: 10}

		require.NoError(t, EventUpdate(current, incoming))
		require.NotNil(t, incoming.SupportContactID)
		assert.Equal(t, supportID, *incoming.SupportContactID)
	})

	t.Run("clearing support contact in the payload is ignored", func(t *testing.T) {
		incoming := &crm.Event{ContractID: 7, SupportContactID: nil, Attendees: 10}
		require.NoError(t, EventUpdate(current, incoming))
		require.NotNil(t, incoming.SupportContactID)
		assert.Equal(t, supportID, *incoming.SupportContactID)
	})
}

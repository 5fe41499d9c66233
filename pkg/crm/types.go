package crm

import (
	"fmt"
	"strings"
	"time"
)

// Team represents the team a user belongs to.
// The set is closed: exactly these three values exist.
type Team string

const (
	TeamManagement Team = "management"
	TeamSales      Team = "sales"
	TeamSupport    Team = "support"
)

// Teams returns the fixed set of teams.
func Teams() []Team {
	return []Team{TeamManagement, TeamSales, TeamSupport}
}

// ParseTeam parses a team name, case-insensitively.
func ParseTeam(s string) (Team, error) {
	switch Team(strings.ToLower(strings.TrimSpace(s))) {
	case TeamManagement:
		return TeamManagement, nil
	case TeamSales:
		return TeamSales, nil
	case TeamSupport:
		return TeamSupport, nil
	default:
		return "", fmt.Errorf("unknown team %q (must be one of management, sales, support)", s)
	}
}

// Valid reports whether the team is one of the three known values.
func (t Team) Valid() bool {
	switch t {
	case TeamManagement, TeamSales, TeamSupport:
		return true
	}
	return false
}

// String returns the team name.
func (t Team) String() string {
	return string(t)
}

// User represents an authenticated actor. Identity records are owned by
// the identity store (pkg/auth); the domain logic only reads ID and Team.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Team      Team      `json:"team"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client represents a prospect or converted customer.
//
// Status is false for a prospect and true once converted; the transition
// is one-way. SalesContactID is non-nil only when Status is true.
type Client struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Mobile         string    `json:"mobile,omitempty"`
	CompanyName    string    `json:"company_name"`
	Status         bool      `json:"status"`
	SalesContactID *int64    `json:"sales_contact"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Converted reports whether the client has been converted from prospect.
func (c *Client) Converted() bool {
	return c.Status
}

// OwnedBy reports whether the given user is the client's sales contact.
func (c *Client) OwnedBy(userID int64) bool {
	return c.SalesContactID != nil && *c.SalesContactID == userID
}

// Contract represents a contract attached to a converted client.
//
// Status is false while unsigned and true once signed. A signed contract
// is immutable. SalesContactID always tracks the last sales actor who
// wrote the contract.
type Contract struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"client"`
	SalesContactID int64     `json:"sales_contact"`
	Status         bool      `json:"status"`
	Amount         float64   `json:"amount"`
	PaymentDue     time.Time `json:"payment_due"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Signed reports whether the contract has been signed.
func (k *Contract) Signed() bool {
	return k.Status
}

// OwnedBy reports whether the given user is the contract's sales contact.
func (k *Contract) OwnedBy(userID int64) bool {
	return k.SalesContactID == userID
}

// Event represents the single event attached to a signed contract.
//
// The contract reference is immutable after creation. EventStatus is
// false while upcoming and true once completed; a completed event is
// immutable. SupportContactID is nil until a support actor is assigned.
type Event struct {
	ID               int64     `json:"id"`
	ContractID       int64     `json:"contract"`
	Name             string    `json:"name"`
	Location         string    `json:"location,omitempty"`
	SupportContactID *int64    `json:"support_contact"`
	EventStatus      bool      `json:"event_status"`
	Attendees        int       `json:"attendees"`
	EventDate        time.Time `json:"event_date"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Completed reports whether the event has finished.
func (e *Event) Completed() bool {
	return e.EventStatus
}

// SupportedBy reports whether the given user is the event's support contact.
func (e *Event) SupportedBy(userID int64) bool {
	return e.SupportContactID != nil && *e.SupportContactID == userID
}

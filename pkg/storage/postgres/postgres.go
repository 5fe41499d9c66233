// Package postgres implements the storage.Store interface on top of
// PostgreSQL using database/sql and lib/pq. Scoped list queries express
// the team visibility rules as SQL predicates so filtering happens in
// the database rather than in process.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store on an open database handle. The caller owns
// the handle and is responsible for closing it.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

const clientColumns = "id, first_name, last_name, email, phone, mobile, company_name, status, sales_contact_id, created_at, updated_at"

func scanClient(row interface{ Scan(...interface{}) error }) (*crm.Client, error) {
	var c crm.Client
	var salesContact sql.NullInt64
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Mobile,
		&c.CompanyName, &c.Status, &salesContact, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if salesContact.Valid {
		c.SalesContactID = &salesContact.Int64
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, client *crm.Client) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO clients (first_name, last_name, email, phone, mobile, company_name, status, sales_contact_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		client.FirstName, client.LastName, client.Email, client.Phone, client.Mobile,
		client.CompanyName, client.Status, client.SalesContactID,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id int64) (*crm.Client, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = $1", id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &crm.NotFoundError{Kind: "client", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateClient(ctx context.Context, client *crm.Client) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE clients
		SET first_name = $1, last_name = $2, email = $3, phone = $4, mobile = $5,
			company_name = $6, status = $7, sales_contact_id = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at`,
		client.FirstName, client.LastName, client.Email, client.Phone, client.Mobile,
		client.CompanyName, client.Status, client.SalesContactID, client.ID,
	).Scan(&client.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &crm.NotFoundError{Kind: "client", ID: client.ID}
	}
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return &crm.NotFoundError{Kind: "client", ID: id}
	}
	return nil
}

// conditions accumulates WHERE clauses with positional placeholders.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(format string, arg interface{}) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(format, len(c.args)))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func clientConditions(filter storage.ClientFilter) *conditions {
	cond := &conditions{}
	if filter.Status != nil {
		cond.add("status = $%d", *filter.Status)
	}
	if filter.Search != "" {
		pattern := filter.Search + "%"
		cond.args = append(cond.args, pattern)
		n := len(cond.args)
		cond.clauses = append(cond.clauses, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company_name ILIKE $%d)",
			n, n, n, n))
	}
	return cond
}

func (s *Store) queryClients(ctx context.Context, cond *conditions) ([]*crm.Client, error) {
	query := "SELECT " + clientColumns + " FROM clients" + cond.where() + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var out []*crm.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListClients(ctx context.Context, filter storage.ClientFilter) ([]*crm.Client, error) {
	return s.queryClients(ctx, clientConditions(filter))
}

func (s *Store) ListClientsForActor(ctx context.Context, actor crm.User, filter storage.ClientFilter) ([]*crm.Client, error) {
	cond := clientConditions(filter)
	switch actor.Team {
	case crm.TeamManagement:
		// Full visibility.
	case crm.TeamSales:
		cond.add("(status = FALSE OR sales_contact_id = $%d)", actor.ID)
	case crm.TeamSupport:
		cond.add(`id IN (
			SELECT k.client_id FROM contracts k
			JOIN events e ON e.contract_id = k.id
			WHERE e.support_contact_id = $%d)`, actor.ID)
	default:
		return nil, nil
	}
	return s.queryClients(ctx, cond)
}

const contractColumns = "id, client_id, sales_contact_id, status, amount, payment_due, created_at, updated_at"

func scanContract(row interface{ Scan(...interface{}) error }) (*crm.Contract, error) {
	var k crm.Contract
	err := row.Scan(&k.ID, &k.ClientID, &k.SalesContactID, &k.Status, &k.Amount,
		&k.PaymentDue, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *Store) CreateContract(ctx context.Context, contract *crm.Contract) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO contracts (client_id, sales_contact_id, status, amount, payment_due)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		contract.ClientID, contract.SalesContactID, contract.Status, contract.Amount, contract.PaymentDue,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

func (s *Store) GetContract(ctx context.Context, id int64) (*crm.Contract, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+contractColumns+" FROM contracts WHERE id = $1", id)
	k, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &crm.NotFoundError{Kind: "contract", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return k, nil
}

func (s *Store) UpdateContract(ctx context.Context, contract *crm.Contract) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE contracts
		SET sales_contact_id = $1, status = $2, amount = $3, payment_due = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`,
		contract.SalesContactID, contract.Status, contract.Amount, contract.PaymentDue, contract.ID,
	).Scan(&contract.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &crm.NotFoundError{Kind: "contract", ID: contract.ID}
	}
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return nil
}

func contractConditions(filter storage.ContractFilter) *conditions {
	cond := &conditions{}
	if filter.Status != nil {
		cond.add("status = $%d", *filter.Status)
	}
	if filter.AmountMin != nil {
		cond.add("amount >= $%d", *filter.AmountMin)
	}
	if filter.AmountMax != nil {
		cond.add("amount <= $%d", *filter.AmountMax)
	}
	if filter.PaymentDueGTE != nil {
		cond.add("payment_due >= $%d", *filter.PaymentDueGTE)
	}
	if filter.PaymentDueLTE != nil {
		cond.add("payment_due <= $%d", *filter.PaymentDueLTE)
	}
	return cond
}

func (s *Store) queryContracts(ctx context.Context, cond *conditions) ([]*crm.Contract, error) {
	query := "SELECT " + contractColumns + " FROM contracts" + cond.where() + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var out []*crm.Contract
	for rows.Next() {
		k, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *Store) ListContracts(ctx context.Context, filter storage.ContractFilter) ([]*crm.Contract, error) {
	return s.queryContracts(ctx, contractConditions(filter))
}

func (s *Store) ListContractsForActor(ctx context.Context, actor crm.User, filter storage.ContractFilter) ([]*crm.Contract, error) {
	cond := contractConditions(filter)
	switch actor.Team {
	case crm.TeamManagement:
		// Full visibility.
	case crm.TeamSales:
		cond.add("sales_contact_id = $%d", actor.ID)
	case crm.TeamSupport:
		cond.add("id IN (SELECT contract_id FROM events WHERE support_contact_id = $%d)", actor.ID)
	default:
		return nil, nil
	}
	return s.queryContracts(ctx, cond)
}

const eventColumns = "id, contract_id, name, location, support_contact_id, event_status, attendees, event_date, notes, created_at, updated_at"

func scanEvent(row interface{ Scan(...interface{}) error }) (*crm.Event, error) {
	var e crm.Event
	var supportContact sql.NullInt64
	err := row.Scan(&e.ID, &e.ContractID, &e.Name, &e.Location, &supportContact,
		&e.EventStatus, &e.Attendees, &e.EventDate, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if supportContact.Valid {
		e.SupportContactID = &supportContact.Int64
	}
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, event *crm.Event) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO events (contract_id, name, location, support_contact_id, event_status, attendees, event_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		event.ContractID, event.Name, event.Location, event.SupportContactID,
		event.EventStatus, event.Attendees, event.EventDate, event.Notes,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (*crm.Event, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = $1", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &crm.NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (s *Store) GetEventByContract(ctx context.Context, contractID int64) (*crm.Event, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE contract_id = $1", contractID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &crm.NotFoundError{Kind: "event", ID: contractID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by contract: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, event *crm.Event) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE events
		SET name = $1, location = $2, support_contact_id = $3, event_status = $4,
			attendees = $5, event_date = $6, notes = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`,
		event.Name, event.Location, event.SupportContactID, event.EventStatus,
		event.Attendees, event.EventDate, event.Notes, event.ID,
	).Scan(&event.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &crm.NotFoundError{Kind: "event", ID: event.ID}
	}
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

func eventConditions(filter storage.EventFilter) *conditions {
	cond := &conditions{}
	if filter.EventStatus != nil {
		cond.add("event_status = $%d", *filter.EventStatus)
	}
	if filter.AttendeesMin != nil {
		cond.add("attendees >= $%d", *filter.AttendeesMin)
	}
	if filter.AttendeesMax != nil {
		cond.add("attendees <= $%d", *filter.AttendeesMax)
	}
	if filter.EventDateGTE != nil {
		cond.add("event_date >= $%d", *filter.EventDateGTE)
	}
	if filter.EventDateLTE != nil {
		cond.add("event_date <= $%d", *filter.EventDateLTE)
	}
	if filter.Search != "" {
		pattern := filter.Search + "%"
		cond.args = append(cond.args, pattern)
		n := len(cond.args)
		cond.clauses = append(cond.clauses, fmt.Sprintf("(name ILIKE $%d OR location ILIKE $%d)", n, n))
	}
	return cond
}

func (s *Store) queryEvents(ctx context.Context, cond *conditions) ([]*crm.Event, error) {
	query := "SELECT " + eventColumns + " FROM events" + cond.where() + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []*crm.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListEvents(ctx context.Context, filter storage.EventFilter) ([]*crm.Event, error) {
	return s.queryEvents(ctx, eventConditions(filter))
}

func (s *Store) ListEventsForActor(ctx context.Context, actor crm.User, filter storage.EventFilter) ([]*crm.Event, error) {
	cond := eventConditions(filter)
	switch actor.Team {
	case crm.TeamManagement:
		// Full visibility.
	case crm.TeamSales:
		cond.add("contract_id IN (SELECT id FROM contracts WHERE sales_contact_id = $%d)", actor.ID)
	case crm.TeamSupport:
		cond.add("support_contact_id = $%d", actor.ID)
	default:
		return nil, nil
	}
	return s.queryEvents(ctx, cond)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*crm.User, error) {
	var u crm.User
	var team string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, team, is_active, created_at, updated_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &team, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &crm.NotFoundError{Kind: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Team = crm.Team(team)
	return &u, nil
}

// SupportsClient reports whether the user supports an event reachable
// through one of the client's contracts.
func (s *Store) SupportsClient(ctx context.Context, userID, clientID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM events e
			JOIN contracts k ON k.id = e.contract_id
			WHERE e.support_contact_id = $1 AND k.client_id = $2
		)`, userID, clientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check client support link: %w", err)
	}
	return exists, nil
}

// SupportsContract reports whether the user supports the contract's event.
func (s *Store) SupportsContract(ctx context.Context, userID, contractID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM events
			WHERE support_contact_id = $1 AND contract_id = $2
		)`, userID, contractID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check contract support link: %w", err)
	}
	return exists, nil
}

// Counts holds aggregate row counts for the business gauges.
type Counts struct {
	Clients          int64
	ClientsConverted int64
	Contracts        int64
	ContractsSigned  int64
	Events           int64
	ActiveUsers      int64
	ActiveTokens     int64
}

// Counts returns the row counts in a single round trip.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clients),
			(SELECT COUNT(*) FROM clients WHERE status = TRUE),
			(SELECT COUNT(*) FROM contracts),
			(SELECT COUNT(*) FROM contracts WHERE status = TRUE),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM api_tokens
			 WHERE revoked_at IS NULL
			   AND (expires_at IS NULL OR expires_at > NOW()))`).Scan(
		&c.Clients, &c.ClientsConverted,
		&c.Contracts, &c.ContractsSigned,
		&c.Events, &c.ActiveUsers, &c.ActiveTokens,
	)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}

var _ storage.Store = (*Store)(nil)

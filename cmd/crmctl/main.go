package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/epicevents/crm/pkg/auth"
	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/storage/postgres"
)

var logger = logrus.New()

func main() {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(getEnv("CRM_LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(level)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "migrate":
		err = runMigrate(args)
	case "create-user":
		err = runCreateUser(args)
	case "list-users":
		err = runListUsers(args)
	case "create-token":
		err = runCreateToken(args)
	case "revoke-token":
		err = runRevokeToken(args)
	case "list-tokens":
		err = runListTokens(args)
	case "assign-support":
		err = runAssignSupport(args)
	case "help", "-h", "--help":
		usage()
	default:
		logger.Errorf("Unknown command: %s", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: crmctl <command> [flags]

Commands:
  migrate         Apply pending database migrations
  create-user     Create a collaborator account
  list-users      List collaborator accounts
  create-token    Issue an API token for a collaborator
  revoke-token    Revoke an API token
  list-tokens     List a collaborator's API tokens
  assign-support  Assign a support contact to an event

Flags are listed per command with: crmctl <command> -h
The database is taken from -db-url or CRM_DATABASE_URL.
`)
}

func connect(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL required (use -db-url or CRM_DATABASE_URL)")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

func dbURLFlag(fs *flag.FlagSet) *string {
	return fs.String("db-url", getEnv("CRM_DATABASE_URL", ""), "PostgreSQL connection URL")
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbURL := dbURLFlag(fs)
	fs.Parse(args)

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := postgres.RunMigrations(ctx, db); err != nil {
		return err
	}
	logger.Info("Migrations applied")
	return nil
}

func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	dbURL := dbURLFlag(fs)
	username := fs.String("username", "", "Login name (required)")
	email := fs.String("email", "", "Email address")
	fullName := fs.String("full-name", "", "Display name")
	team := fs.String("team", "", "Team: management, sales or support (required)")
	fs.Parse(args)

	if *username == "" || *team == "" {
		return fmt.Errorf("-username and -team are required")
	}

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	manager, err := auth.NewManager(db, 0)
	if err != nil {
		return err
	}

	user := &crm.User{
		Username: *username,
		Email:    *email,
		FullName: *fullName,
		Team:     crm.Team(strings.ToLower(*team)),
		IsActive: true,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := manager.CreateUser(ctx, user); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"id": user.ID, "username": user.Username, "team": user.Team}).Info("User created")
	return nil
}

func runListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ExitOnError)
	dbURL := dbURLFlag(fs)
	fs.Parse(args)

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	manager, err := auth.NewManager(db, 0)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	users, err := manager.ListUsers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tTEAM\tACTIVE\tFULL NAME")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Team, u.IsActive, u.FullName)
	}
	return w.Flush()
}

func runCreateToken(args []string) error {
	fs := flag.NewFlagSet("create-token", flag.ExitOnError)
	dbURL := dbURLFlag(fs)
	username := fs.String("username", "", "Token owner (required)")
	name := fs.String("name", "", "Token label (required)")
	ttl := fs.Duration("ttl", 0, "Token lifetime, e.g. 720h (0 means no expiry)")
	fs.Parse(args)

	if *username == "" || *name == "" {
		return fmt.Errorf("-username and -name are required")
	}

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	manager, err := auth.NewManager(db, 0)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := manager.GetUserByUsername(ctx, *username)
	if err != nil {
		return err
	}

	var expiresAt *time.Time
	if *ttl > 0 {
		t := time.Now().Add(*ttl)
		expiresAt = &t
	}

	record, token, err := manager.CreateToken(ctx, user.ID, *name, expiresAt)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"id": record.ID, "user": user.Username}).Info("Token created")
	// The plaintext token is shown exactly once; only its hash is stored.
	fmt.Println(token)
	return nil
}

func runRevokeToken(args []string) error {
	fs := flag.NewFlagSet("revoke-token", flag.ExitOnError)
	dbURL := dbURLFlag(fs)
	tokenID := fs.Int64("id", 0, "Token ID (required)")
	fs.Parse(args)

	if *tokenID == 0 {
		return fmt.Errorf("-id is required")
	}

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	manager, err := auth.NewManager(db, 0)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := manager.RevokeToken(ctx, *tokenID); err != nil {
		return err
	}
	logger.WithField("id", *tokenID).Info("Token revoked")
	return nil
}

func runListTokens(args []string) error {
	fs := flag.NewFlagSet("list-tokens", flag.ExitOnError)
	dbURL := dbURLFlag(fs)
	username := fs.String("username", "", "Token owner (required)")
	fs.Parse(args)

	if *username == "" {
		return fmt.Errorf("-username is required")
	}

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	manager, err := auth.NewManager(db, 0)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := manager.GetUserByUsername(ctx, *username)
	if err != nil {
		return err
	}
	tokens, err := manager.ListUserTokens(ctx, user.ID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPREFIX\tCREATED\tEXPIRES\tREVOKED")
	for _, tok := range tokens {
		expires := "-"
		if tok.ExpiresAt != nil {
			expires = tok.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n",
			tok.ID, tok.Name, tok.TokenPrefix, tok.CreatedAt.Format(time.RFC3339), expires, tok.Revoked())
	}
	return w.Flush()
}

// runAssignSupport is the management path for staffing an event. Event
// writes through the HTTP API never touch the support contact, so this
// is the only way the assignment changes.
func runAssignSupport(args []string) error {
	fs := flag.NewFlagSet("assign-support", flag.ExitOnError)
	dbURL := dbURLFlag(fs)
	eventID := fs.Int64("event", 0, "Event ID (required)")
	userID := fs.Int64("user", 0, "Support collaborator ID (required, 0 with -clear)")
	clear := fs.Bool("clear", false, "Remove the current assignment")
	fs.Parse(args)

	if *eventID == 0 {
		return fmt.Errorf("-event is required")
	}
	if !*clear && *userID == 0 {
		return fmt.Errorf("-user is required unless -clear is set")
	}

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	store := postgres.NewStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	event, err := store.GetEvent(ctx, *eventID)
	if err != nil {
		return err
	}
	if event.Completed() {
		return fmt.Errorf("event %d is finished and can no longer be staffed", event.ID)
	}

	if *clear {
		event.SupportContactID = nil
	} else {
		user, err := store.GetUser(ctx, *userID)
		if err != nil {
			return err
		}
		if user.Team != crm.TeamSupport {
			return fmt.Errorf("user %s is on team %s, not support", user.Username, user.Team)
		}
		event.SupportContactID = &user.ID
	}

	if err := store.UpdateEvent(ctx, event); err != nil {
		return err
	}
	if *clear {
		logger.WithField("event", event.ID).Info("Support assignment cleared")
	} else {
		logger.WithFields(logrus.Fields{"event": event.ID, "user": *userID}).Info("Support contact assigned")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

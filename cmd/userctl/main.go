// Command userctl provisions user accounts directly against the
// configured database. The HTTP API deliberately has no signup
// endpoint, so this is the only way accounts come into existence.
//
//	userctl add    -username alice -name "Alice Doe"
//	userctl delete -username alice
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/hellomouse/pinboard-server/internal/server/app"
	"github.com/hellomouse/pinboard-server/internal/server/service"
	"github.com/hellomouse/pinboard-server/internal/server/store"
	"github.com/hellomouse/pinboard-server/internal/server/store/drivers/postgres"
	"github.com/hellomouse/pinboard-server/internal/server/store/drivers/sqlite"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.ApplyMigrations(); err != nil {
		log.Fatalf("failed to apply database migrations: %v", err)
	}

	auth := &service.AuthService{
		Store: db,
		Policy: service.PasswordPolicy{
			MinLength: cfg.Server.PasswordMinLength,
			MaxLength: cfg.Server.PasswordMaxLength,
		},
	}

	switch os.Args[1] {
	case "add":
		err = runAdd(auth, os.Args[2:])
	case "delete":
		err = runDelete(auth, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: userctl <add|delete> [flags]")
}

func openStore(cfg app.Config) (store.Store, error) {
	if cfg.Database.Driver == "postgres" {
		return postgres.NewStore(postgres.Config{
			Host:     cfg.Database.IP,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
		})
	}
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.Database.File)
	return sqlite.NewStore(host)
}

func runAdd(auth *service.AuthService, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	username := fs.String("username", "", "login username (required)")
	name := fs.String("name", "", "display name (required)")
	_ = fs.Parse(args)

	if *username == "" || *name == "" {
		return fmt.Errorf("add: -username and -name are required")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	user, err := auth.CreateAccount(context.Background(), *username, *name, password)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
	return nil
}

func runDelete(auth *service.AuthService, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	username := fs.String("username", "", "login username (required)")
	_ = fs.Parse(args)

	if *username == "" {
		return fmt.Errorf("delete: -username is required")
	}

	if err := auth.DeleteAccount(context.Background(), *username); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	fmt.Printf("deleted user %s\n", *username)
	return nil
}

// promptPassword reads the password twice without echo so it never
// lands in shell history or process listings.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

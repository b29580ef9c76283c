package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/sydlexius/sprout/internal/exploration"
	"github.com/sydlexius/sprout/internal/user"
)

// resetCredentials removes every account and session so the next start
// prompts for initial setup. Use it to recover a lost admin password.
func resetCredentials() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	users := user.NewService(db)

	all, err := users.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range all {
		if err := users.Delete(ctx, u.ID); err != nil {
			return fmt.Errorf("removing user %s: %w", u.Username, err)
		}
	}

	fmt.Println("Credentials reset successfully.")
	fmt.Printf("Removed %d user accounts and their sessions.\n", len(all))
	fmt.Println("The application will prompt for initial setup on next start.")
	return nil
}

// createUser adds an account from the command line, reading the password
// from the terminal without echo.
func createUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	username := fs.String("username", "", "username (required)")
	admin := fs.Bool("admin", false, "grant the admin role")
	editor := fs.Bool("editor", false, "register the user as an editor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		fs.Usage()
		return errors.New("-username is required")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	users := user.NewService(db)

	role := user.RoleMember
	if *admin {
		role = user.RoleAdmin
	}
	u, err := users.Create(ctx, *username, password, role)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	if *editor {
		if err := users.RegisterAsEditor(ctx, u.ID); err != nil {
			return fmt.Errorf("registering editor: %w", err)
		}
	}

	fmt.Printf("Created user %s (%s, role %s)\n", u.Username, u.ID, u.Role)
	return nil
}

// setPassword replaces one account's password. Existing sessions stay
// valid.
func setPassword(args []string) error {
	fs := flag.NewFlagSet("set-password", flag.ContinueOnError)
	username := fs.String("username", "", "username (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		fs.Usage()
		return errors.New("-username is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	users := user.NewService(db)
	u, err := users.GetByUsername(ctx, *username)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", *username, err)
	}

	password, err := readPassword()
	if err != nil {
		return err
	}
	if err := users.SetPassword(ctx, u.ID, password); err != nil {
		return fmt.Errorf("setting password: %w", err)
	}
	fmt.Printf("Password updated for %s\n", u.Username)
	return nil
}

func readPassword() (string, error) {
	fmt.Print("Enter password: ")
	password, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // Stdin is an int on some platforms only
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(password), nil
}

// loadDemos seeds missing demo explorations. With -force every demo is
// reloaded, discarding edits.
func loadDemos(args []string) error {
	fs := flag.NewFlagSet("load-demos", flag.ContinueOnError)
	force := fs.Bool("force", false, "reload demos that already exist")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	svc := exploration.NewService(db)

	if !*force {
		loaded, err := svc.LoadMissingDemos(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d missing demos %v\n", len(loaded), loaded)
		return nil
	}
	for _, id := range exploration.DemoIDs() {
		if err := svc.LoadDemo(ctx, id); err != nil {
			return fmt.Errorf("loading demo %s: %w", id, err)
		}
		fmt.Printf("Reloaded demo %s\n", id)
	}
	return nil
}

// runBackup writes one backup and applies the retention policy.
func runBackup() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc := newBackupService(cfg, db, logger)
	info, err := svc.Create(context.Background())
	if err != nil {
		return err
	}
	removed, err := svc.Prune()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d bytes) to %s; pruned %d old backups\n", info.Filename, info.Size, svc.Dir(), removed)
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wolfeidau/agrodash/internal/client"
	"github.com/wolfeidau/agrodash/internal/services"
	"github.com/wolfeidau/agrodash/internal/session"
	"golang.org/x/term"
)

// LoginCmd exchanges credentials for a token and stores the session.
type LoginCmd struct {
	Login    string `help:"Account login" env:"AGRODASH_LOGIN"`
	Password string `help:"Account password, prompted for when empty on a terminal" env:"AGRODASH_PASSWORD"`
	File     string `help:"YAML or JSON file with login and password" type:"existingfile" short:"f"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	req := services.LoginRequest{Login: l.Login, Password: l.Password}
	if l.File != "" {
		if err := loadFile(l.File, &req); err != nil {
			return err
		}
	}

	if req.Login == "" {
		return errors.New("login is required")
	}

	if req.Password == "" {
		password, err := readPassword()
		if err != nil {
			return err
		}
		req.Password = password
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ok, err := services.NewAuthService(e.client, e.store).Login(ctx, req)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("login %q was not accepted", req.Login)
	}

	fmt.Fprintf(globals.out(), "Logged in as %s.\n", req.Login)
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password is required")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// LogoutCmd revokes the stored token and removes the session.
type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := services.NewAuthService(e.client, e.store).Logout(ctx); err != nil {
		return err
	}

	if _, err := e.store.Load(ctx); err == nil {
		fmt.Fprintln(globals.out(), "Logout was not confirmed by the server, session kept.")
		return nil
	}

	fmt.Fprintln(globals.out(), "Logged out.")
	return nil
}

// StatusCmd reports whether the stored session is still valid.
type StatusCmd struct{}

type statusOutput struct {
	LoggedIn    bool     `json:"logged_in"`
	AuthURL     string   `json:"auth_url"`
	UserID      int64    `json:"user_id,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	out := statusOutput{
		LoggedIn: services.NewAuthService(e.client, e.store).IsLoggedIn(ctx),
		AuthURL:  e.client.BaseURL(client.ServiceAuth),
	}

	if sess, err := e.store.Load(ctx); err == nil {
		out.UserID = sess.UserID
		out.Permissions = sess.Permissions
		if sess.HasToken() {
			out.Fingerprint = session.Fingerprint(sess.Token)
		}
	}

	if globals.jsonOutput() {
		return globals.printJSON(out)
	}

	w := globals.out()
	if !out.LoggedIn {
		fmt.Fprintf(w, "Not logged in to %s.\n", out.AuthURL)
		return nil
	}

	fmt.Fprintf(w, "Logged in:    %v\n", out.LoggedIn)
	fmt.Fprintf(w, "Auth API:     %s\n", out.AuthURL)
	fmt.Fprintf(w, "User ID:      %d\n", out.UserID)
	fmt.Fprintf(w, "Permissions:  %s\n", strings.Join(out.Permissions, ", "))
	fmt.Fprintf(w, "Fingerprint:  %s\n", out.Fingerprint)

	return nil
}

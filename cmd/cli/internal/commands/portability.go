package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/agrodash/internal/services"
)

// PortabilityCmd runs the external client data portability flow.
type PortabilityCmd struct {
	Login     PortabilityLoginCmd     `cmd:"" help:"Log in as an external client and print the client token"`
	Validate  PortabilityValidateCmd  `cmd:"" help:"Check a client token"`
	Logout    PortabilityLogoutCmd    `cmd:"" help:"Revoke a client token"`
	Button    PortabilityButtonCmd    `cmd:"" help:"Print the portability button HTML"`
	Authorize PortabilityAuthorizeCmd `cmd:"" help:"Authorize the client for a user and print the authorized token"`
	Data      PortabilityDataCmd      `cmd:"" help:"Read the user record granted to an authorized token"`
}

// CredentialFlags are shared by the commands that send a login and password.
type CredentialFlags struct {
	Login    string `help:"Login" env:"AGRODASH_PORTABILITY_LOGIN"`
	Password string `help:"Password, prompted for when empty on a terminal" env:"AGRODASH_PORTABILITY_PASSWORD"`
	File     string `help:"YAML or JSON file with login and password" type:"existingfile" short:"f"`
}

func (c CredentialFlags) request() (services.LoginRequest, error) {
	req := services.LoginRequest{Login: c.Login, Password: c.Password}
	if c.File != "" {
		if err := loadFile(c.File, &req); err != nil {
			return req, err
		}
	}

	if req.Login == "" {
		return req, errors.New("login is required")
	}

	if req.Password == "" {
		password, err := readPassword()
		if err != nil {
			return req, err
		}
		req.Password = password
	}

	return req, nil
}

type ClientTokenFlag struct {
	ClientToken string `name:"client-token" help:"External client token" env:"AGRODASH_CLIENT_TOKEN" required:""`
}

type tokenOutput struct {
	Token string `json:"token"`
}

type PortabilityLoginCmd struct {
	CredentialFlags `embed:""`
}

func (p *PortabilityLoginCmd) Run(ctx context.Context, globals *Globals) error {
	req, err := p.request()
	if err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	token, err := services.NewPortabilityService(e.client).ClientLogin(ctx, req)
	if err != nil {
		return err
	}

	if token == "" {
		return fmt.Errorf("client login %q was not accepted", req.Login)
	}

	return printToken(globals, token)
}

type PortabilityValidateCmd struct {
	ClientTokenFlag `embed:""`
}

func (p *PortabilityValidateCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	valid, err := services.NewPortabilityService(e.client).ValidateClient(ctx, p.ClientToken)
	if err != nil {
		return err
	}

	if globals.jsonOutput() {
		return globals.printJSON(map[string]bool{"valid": valid})
	}

	fmt.Fprintf(globals.out(), "Valid:  %v\n", valid)
	return nil
}

type PortabilityLogoutCmd struct {
	ClientTokenFlag `embed:""`
}

func (p *PortabilityLogoutCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ok, err := services.NewPortabilityService(e.client).ClientLogout(ctx, p.ClientToken)
	if err != nil {
		return err
	}

	if !ok {
		return errors.New("server did not confirm the logout")
	}

	fmt.Fprintln(globals.out(), "Client token revoked.")
	return nil
}

type PortabilityButtonCmd struct {
	ClientTokenFlag `embed:""`
}

func (p *PortabilityButtonCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	html, err := services.NewPortabilityService(e.client).Button(ctx, p.ClientToken)
	if err != nil {
		return err
	}

	fmt.Fprintln(globals.out(), html)
	return nil
}

type PortabilityAuthorizeCmd struct {
	ClientTokenFlag `embed:""`
	CredentialFlags `embed:""`
}

func (p *PortabilityAuthorizeCmd) Run(ctx context.Context, globals *Globals) error {
	req, err := p.request()
	if err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	token, err := services.NewPortabilityService(e.client).Authorize(ctx, p.ClientToken, req)
	if err != nil {
		return err
	}

	if token == "" {
		return fmt.Errorf("user %q did not authorize the client", req.Login)
	}

	return printToken(globals, token)
}

type PortabilityDataCmd struct {
	AuthorizedToken string `name:"authorized-token" help:"Token returned by portability authorize" env:"AGRODASH_AUTHORIZED_TOKEN" required:""`
}

func (p *PortabilityDataCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	user, err := services.NewPortabilityService(e.client).Data(ctx, p.AuthorizedToken)
	if err != nil {
		return err
	}

	if globals.jsonOutput() {
		return globals.printJSON(user)
	}

	out := globals.out()
	fmt.Fprintf(out, "ID:     %d\n", user.ID)
	fmt.Fprintf(out, "Name:   %s\n", user.Name)
	fmt.Fprintf(out, "Login:  %s\n", user.Login)
	fmt.Fprintf(out, "Email:  %s\n", user.Email)
	return nil
}

func printToken(globals *Globals, token string) error {
	if globals.jsonOutput() {
		return globals.printJSON(tokenOutput{Token: token})
	}
	fmt.Fprintln(globals.out(), token)
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/agrodash/internal/services"
)

// UsersCmd manages accounts on the auth API.
type UsersCmd struct {
	List   UsersListCmd   `cmd:"" help:"List users"`
	Get    UsersGetCmd    `cmd:"" help:"Show a user"`
	Create UsersCreateCmd `cmd:"" help:"Register a user"`
	Update UsersUpdateCmd `cmd:"" help:"Update a user"`
	Delete UsersDeleteCmd `cmd:"" help:"Delete a user"`
}

type UsersListCmd struct {
	Page int `help:"Page number" default:"1"`
	Size int `help:"Users per page" default:"20"`
}

func (u *UsersListCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	page, err := services.NewUserService(e.client).List(ctx, u.Page, u.Size)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(page)
	}

	fmt.Fprintf(globals.out(), "Users (page %d/%d, %d total):\n", u.Page, page.TotalPages, page.TotalItems)
	printUsers(globals, page.Items...)
	return nil
}

type UsersGetCmd struct {
	ID int64 `arg:"" help:"User ID"`
}

func (u *UsersGetCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	user, err := services.NewUserService(e.client).Get(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(user)
	}

	printUsers(globals, user)
	return nil
}

type UsersCreateCmd struct {
	File string `help:"YAML or JSON file with the new user" type:"existingfile" short:"f" required:""`
}

func (u *UsersCreateCmd) Run(ctx context.Context, globals *Globals) error {
	var req services.NewUser
	if err := loadFile(u.File, &req); err != nil {
		return err
	}

	if req.Login == "" || req.Password == "" {
		return errors.New("login and password are required")
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	user, err := services.NewUserService(e.client).Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(user)
	}

	fmt.Fprintf(globals.out(), "User %q created with ID %d.\n", user.Login, user.ID)
	return nil
}

type UsersUpdateCmd struct {
	ID   int64  `arg:"" help:"User ID"`
	File string `help:"YAML or JSON file with the fields to change" type:"existingfile" short:"f" required:""`
}

func (u *UsersUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	var req services.UserUpdate
	if err := loadFile(u.File, &req); err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	user, err := services.NewUserService(e.client).Update(ctx, u.ID, req)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(user)
	}

	fmt.Fprintf(globals.out(), "User %d updated.\n", u.ID)
	return nil
}

type UsersDeleteCmd struct {
	ID int64 `arg:"" help:"User ID"`
}

func (u *UsersDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := services.NewUserService(e.client).Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Fprintf(globals.out(), "User %d deleted.\n", u.ID)
	return nil
}

func printUsers(globals *Globals, users ...services.User) {
	if len(users) == 0 {
		fmt.Fprintln(globals.out(), "No users found.")
		return
	}

	w := globals.table()
	fmt.Fprintln(w, "ID\tNAME\tLOGIN\tEMAIL\tPERMISSION\tTERMS\tDISABLED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%v\n",
			u.ID, u.Name, u.Login, u.Email, u.PermissionID, u.VersionTermsAgreement, deref(u.DisabledSince))
	}
	w.Flush()
}

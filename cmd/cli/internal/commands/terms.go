package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/agrodash/internal/services"
)

// TermsCmd manages terms of service and user acceptance.
type TermsCmd struct {
	List             TermsListCmd             `cmd:"" help:"List every terms version"`
	Active           TermsActiveCmd           `cmd:"" help:"Show the active terms"`
	Create           TermsCreateCmd           `cmd:"" help:"Create terms"`
	NewVersion       TermsNewVersionCmd       `cmd:"" name:"new-version" help:"Publish a new terms version"`
	Accept           TermsAcceptCmd           `cmd:"" help:"Record a user's acceptance"`
	UpdateAcceptance TermsUpdateAcceptanceCmd `cmd:"" name:"update-acceptance" help:"Update a user's acceptance"`
	Compliance       TermsComplianceCmd       `cmd:"" help:"Check whether a user accepted the required topics"`
	User             TermsUserCmd             `cmd:"" help:"Show a user's acceptance record"`
}

type TermsListCmd struct{}

func (t *TermsListCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	terms, err := services.NewTermsService(e.client).List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list terms: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(terms)
	}

	if len(terms) == 0 {
		fmt.Fprintln(globals.out(), "No terms found.")
		return nil
	}

	w := globals.table()
	fmt.Fprintln(w, "ID\tVERSION\tSTATUS\tTOPICS")
	for _, term := range terms {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", term.ID, term.Version, term.Status, len(term.Topics))
	}
	w.Flush()
	return nil
}

type TermsActiveCmd struct{}

func (t *TermsActiveCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	active, err := services.NewTermsService(e.client).Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active terms: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(active)
	}

	out := globals.out()
	fmt.Fprintf(out, "ID:       %s\n", active.ID)
	fmt.Fprintf(out, "Version:  %s\n", active.Version)
	fmt.Fprintf(out, "Current:  %v\n", active.IsCurrent)
	fmt.Fprintln(out)
	fmt.Fprintln(out, active.Text)

	if len(active.Topics) > 0 {
		fmt.Fprintln(out)
		w := globals.table()
		fmt.Fprintln(w, "TOPIC\tSTATUS\tREQUIRED")
		for _, topic := range active.Topics {
			fmt.Fprintf(w, "%s\t%s\t%v\n", topic.Description, topic.Status, topic.Required)
		}
		w.Flush()
	}

	return nil
}

type TermsCreateCmd struct {
	File string `help:"YAML or JSON file with the terms" type:"existingfile" short:"f" required:""`
}

func (t *TermsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	var req services.CreateTermRequest
	if err := loadFile(t.File, &req); err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	term, err := services.NewTermsService(e.client).Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create terms: %w", err)
	}

	return printTerm(globals, "created", term)
}

type TermsNewVersionCmd struct {
	File string `help:"YAML or JSON file with the new version" type:"existingfile" short:"f" required:""`
}

func (t *TermsNewVersionCmd) Run(ctx context.Context, globals *Globals) error {
	var req services.NewTermVersionRequest
	if err := loadFile(t.File, &req); err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	term, err := services.NewTermsService(e.client).NewVersion(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to publish terms version: %w", err)
	}

	return printTerm(globals, "published", term)
}

type TermsAcceptCmd struct {
	File string `help:"YAML or JSON file with user_id and accepted topics" type:"existingfile" short:"f" required:""`
}

func (t *TermsAcceptCmd) Run(ctx context.Context, globals *Globals) error {
	var req services.AcceptanceRequest
	if err := loadFile(t.File, &req); err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	resp, err := services.NewTermsService(e.client).Accept(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to accept terms: %w", err)
	}

	return printSuccess(globals, resp, "Acceptance recorded.")
}

type TermsUpdateAcceptanceCmd struct {
	UserID string `arg:"" help:"User ID"`
	File   string `help:"YAML or JSON file with the accepted topics" type:"existingfile" short:"f" required:""`
}

func (t *TermsUpdateAcceptanceCmd) Run(ctx context.Context, globals *Globals) error {
	var req services.UpdateAcceptanceRequest
	if err := loadFile(t.File, &req); err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	resp, err := services.NewTermsService(e.client).UpdateAcceptance(ctx, t.UserID, req)
	if err != nil {
		return fmt.Errorf("failed to update acceptance: %w", err)
	}

	return printSuccess(globals, resp, "Acceptance updated.")
}

type TermsComplianceCmd struct {
	UserID string `arg:"" help:"User ID"`
}

func (t *TermsComplianceCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	compliance, err := services.NewTermsService(e.client).Compliance(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("failed to check compliance: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(compliance)
	}

	out := globals.out()
	fmt.Fprintf(out, "Compliant:  %v\n", compliance.IsCompliant)

	if len(compliance.PendingTopics) > 0 {
		fmt.Fprintln(out)
		w := globals.table()
		fmt.Fprintln(w, "PENDING TOPIC\tTERMS\tREQUIRED")
		for _, topic := range compliance.PendingTopics {
			fmt.Fprintf(w, "%s\t%s\t%v\n", topic.Description, topic.TermID, topic.Required)
		}
		w.Flush()
	}

	return nil
}

type TermsUserCmd struct {
	UserID string `arg:"" help:"User ID"`
}

func (t *TermsUserCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	record, err := services.NewTermsService(e.client).UserTerms(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user terms: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(record)
	}

	if len(record.Topics) == 0 {
		fmt.Fprintf(globals.out(), "User %s has not accepted any topic.\n", t.UserID)
		return nil
	}

	w := globals.table()
	fmt.Fprintln(w, "TOPIC\tSTATUS\tACCEPTED")
	for _, topic := range record.Topics {
		fmt.Fprintf(w, "%s\t%s\t%v\n", topic.Description, topic.Status, topic.Accepted)
	}
	w.Flush()
	return nil
}

func printTerm(globals *Globals, action string, term services.Term) error {
	if globals.jsonOutput() {
		return globals.printJSON(term)
	}
	fmt.Fprintf(globals.out(), "Terms %s %s (version %s).\n", term.ID, action, term.Version)
	return nil
}

func printSuccess(globals *Globals, resp services.SuccessResponse, msg string) error {
	if globals.jsonOutput() {
		return globals.printJSON(resp)
	}
	if !resp.Success {
		return fmt.Errorf("server did not confirm the request")
	}
	fmt.Fprintln(globals.out(), msg)
	return nil
}

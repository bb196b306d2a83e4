package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/domain/routing"
)

func runRoutes(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("routes", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return printRoutes(cmdCtx.Out, routing.DefaultTable())
}

func printRoutes(w io.Writer, table *routing.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "NAME\tPATH\tACCESS\tNAV\tREDIRECT\n"); err != nil {
		return fmt.Errorf("print routes header: %w", err)
	}
	for _, r := range table.Routes() {
		redirect := "-"
		if r.RedirectTo != "" {
			redirect = table.PathOf(r.RedirectTo)
		}
		if err := writef(tw, "%s\t%s\t%s\t%t\t%s\n", r.Name, r.Path, r.Access, r.Nav, redirect); err != nil {
			return fmt.Errorf("print route %s: %w", r.Name, err)
		}
	}
	return tw.Flush()
}

type checkAccessOptions struct {
	Path          string
	Role          string
	Authenticated bool
}

func runCheckAccess(cmdCtx *commandContext, args []string) error {
	opts, err := parseCheckAccessFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}
	return checkAccess(cmdCtx.Out, routing.DefaultTable(), opts)
}

func parseCheckAccessFlags(args []string, out io.Writer) (checkAccessOptions, error) {
	var opts checkAccessOptions
	fs := flag.NewFlagSet("check-access", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.Path, "path", "", "Route path to evaluate, e.g. /usuarios")
	fs.StringVar(&opts.Role, "role", "", "Session role (admin_general, admin_sucursal, empleado)")
	fs.BoolVar(&opts.Authenticated, "authenticated", false, "Evaluate as a session holding a token")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Path == "" {
		return opts, errors.New("--path is required")
	}
	return opts, nil
}

func checkAccess(w io.Writer, table *routing.Table, opts checkAccessOptions) error {
	route, ok := table.ByPath(opts.Path)
	if !ok {
		return fmt.Errorf("no route for path %q", opts.Path)
	}

	state := domainauth.State{Role: domainauth.Role(opts.Role)}
	if opts.Authenticated {
		state.Token = "cli"
	}
	decision := routing.Evaluate(route, state)

	if err := writef(w, "route:    %s (%s, %s)\n", route.Name, route.Path, route.Access); err != nil {
		return err
	}
	if decision.Allowed() {
		return writef(w, "decision: %s\n", decision.Outcome)
	}
	return writef(w, "decision: %s -> %s\n", decision.Outcome, table.PathOf(decision.Target))
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	redisadapter "github.com/almacen/almacen-ui/internal/adapters/redis"
	"github.com/almacen/almacen-ui/internal/bootstrap"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
)

var errAborted = errors.New("aborted by user")

// sessionBackend is the slice of the session store the commands need.
type sessionBackend = bootstrap.SessionBackend

// withRedisSessions connects to Redis and hands a session store to fn.
func withRedisSessions(cmdCtx *commandContext, fn func(ctx context.Context, store sessionBackend) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, bootstrap.RedisOptions{Config: cmdCtx.Config.Redis, Logger: cmdCtx.Logger})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer closeRedis(cmdCtx, client)

	return fn(ctx, redisadapter.NewSessionStore(client))
}

func closeRedis(cmdCtx *commandContext, client redis.UniversalClient) {
	if err := client.Close(); err != nil {
		cmdCtx.Logger.Warn("redis close failed", "error", err)
	}
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Out)
	role := fs.String("role", "", "Only show sessions with this role")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withRedisSessions(cmdCtx, func(ctx context.Context, store sessionBackend) error {
		return listSessions(ctx, cmdCtx.Out, store, domainauth.Role(*role), time.Now())
	})
}

func listSessions(ctx context.Context, w io.Writer, store sessionBackend, role domainauth.Role, now time.Time) error {
	sessions, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	sessions = filterSessions(sessions, role)
	if len(sessions) == 0 {
		return writeln(w, "(no sessions found)")
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ExpiresAt.Before(sessions[j].ExpiresAt) })

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tUSER\tNAME\tROLE\tEXPIRES IN\n"); err != nil {
		return err
	}
	for _, s := range sessions {
		label := string(s.Role)
		if label == "" {
			label = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.UserID, s.DisplayName(), label, expiresIn(s, now)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\nTotal sessions: %d\n", len(sessions))
}

func filterSessions(in []domainauth.Session, role domainauth.Role) []domainauth.Session {
	if role == "" {
		return in
	}
	out := make([]domainauth.Session, 0, len(in))
	for _, s := range in {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

func expiresIn(s domainauth.Session, now time.Time) string {
	if s.ExpiresAt.IsZero() {
		return "never"
	}
	if s.Expired(now) {
		return "expired"
	}
	return s.ExpiresAt.Sub(now).Truncate(time.Second).String()
}

type revokeOptions struct {
	ID     string
	UserID string
	DryRun bool
	Yes    bool
}

func runRevokeSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseRevokeFlags(args, cmdCtx.Out)
	if err != nil {
		return err
	}
	return withRedisSessions(cmdCtx, func(ctx context.Context, store sessionBackend) error {
		return revokeSessions(ctx, cmdCtx, store, opts)
	})
}

func parseRevokeFlags(args []string, out io.Writer) (revokeOptions, error) {
	var opts revokeOptions
	fs := flag.NewFlagSet("revoke-session", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.ID, "id", "", "Session ID to revoke")
	fs.StringVar(&opts.UserID, "user", "", "Revoke every session of this user ID")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Show what would be revoked without deleting")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if (opts.ID == "") == (opts.UserID == "") {
		return opts, errors.New("exactly one of --id or --user is required")
	}
	return opts, nil
}

func revokeSessions(ctx context.Context, cmdCtx *commandContext, store sessionBackend, opts revokeOptions) error {
	ids, err := sessionsToRevoke(ctx, store, opts)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return writeln(cmdCtx.Out, "(no matching sessions)")
	}

	if opts.DryRun {
		return writef(cmdCtx.Out, "Would revoke %d session(s): %s\n", len(ids), strings.Join(ids, ", "))
	}
	if err := confirm(cmdCtx, opts, len(ids)); err != nil {
		return err
	}

	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			return fmt.Errorf("revoke session %s: %w", id, err)
		}
		cmdCtx.Logger.Info("session revoked", "session_id", id)
	}
	return writef(cmdCtx.Out, "Revoked %d session(s)\n", len(ids))
}

func sessionsToRevoke(ctx context.Context, store sessionBackend, opts revokeOptions) ([]string, error) {
	if opts.ID != "" {
		if _, err := store.Get(ctx, opts.ID); err != nil {
			return nil, fmt.Errorf("session %s: %w", opts.ID, err)
		}
		return []string{opts.ID}, nil
	}

	sessions, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var ids []string
	for _, s := range sessions {
		if s.UserID == opts.UserID {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func confirm(cmdCtx *commandContext, opts revokeOptions, n int) error {
	if opts.Yes {
		return nil
	}
	if err := writef(cmdCtx.Out, "About to revoke %d session(s). Continue? [y/N]: ", n); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/botivate/systems-dashboard/internal/adapters/sheets"
	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
	"github.com/botivate/systems-dashboard/internal/ports"
	"github.com/botivate/systems-dashboard/internal/service"
)

type checkCatalogOptions struct {
	UserID string
	Rows   bool
}

func parseCheckCatalogFlags(args []string) (checkCatalogOptions, error) {
	fs := flag.NewFlagSet("check-catalog", flag.ContinueOnError)
	var opts checkCatalogOptions
	fs.StringVar(&opts.UserID, "user", "", "Show the systems this user id would see")
	fs.BoolVar(&opts.Rows, "rows", false, "Print every system row")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	return opts, nil
}

func runCheckCatalog(cmdCtx *commandContext, args []string) error {
	opts, err := parseCheckCatalogFlags(args)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config.Catalog
	client, err := sheets.New(sheets.Config{
		Endpoint:    cfg.Endpoint,
		Timeout:     cfg.Timeout,
		SuccessExpr: cfg.SuccessExpr,
		RowsExpr:    cfg.RowsExpr,
		BearerToken: cfg.BearerToken,
		OAuth:       oauthConfig(cfg.OAuth.TokenURL, cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.Scopes),
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("catalog client: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()
	snap, err := fetchCatalog(ctx, client)
	if err != nil {
		return err
	}
	return renderCatalog(cmdCtx.Out, snap, opts)
}

func oauthConfig(tokenURL, clientID, secret string, scopes []string) *sheets.OAuthConfig {
	if tokenURL == "" || clientID == "" {
		return nil
	}
	return &sheets.OAuthConfig{TokenURL: tokenURL, ClientID: clientID, ClientSecret: secret, Scopes: scopes}
}

type catalogSnapshot struct {
	Users   []domainauth.UserRecord
	Systems []model.SystemRecord
}

// fetchCatalog reads both sheets in parallel.
func fetchCatalog(ctx context.Context, source ports.CatalogSource) (catalogSnapshot, error) {
	var snap catalogSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := source.FetchCredentials(gctx)
		if err != nil {
			return fmt.Errorf("fetch credentials: %w", err)
		}
		snap.Users = users
		return nil
	})
	g.Go(func() error {
		systems, err := source.FetchSystems(gctx)
		if err != nil {
			return fmt.Errorf("fetch systems: %w", err)
		}
		snap.Systems = systems
		return nil
	})
	if err := g.Wait(); err != nil {
		return catalogSnapshot{}, err
	}
	return snap, nil
}

func renderCatalog(w io.Writer, snap catalogSnapshot, opts checkCatalogOptions) error {
	var admins, noGrant int
	for _, u := range snap.Users {
		switch {
		case u.IsAdmin():
			admins++
		case strings.TrimSpace(u.AccessGrant) == "":
			noGrant++
		}
	}
	if err := writef(w, "Credentials: %d (admins %d, users %d, users without access grant %d)\n",
		len(snap.Users), admins, len(snap.Users)-admins, noGrant); err != nil {
		return err
	}

	projector := service.NewCatalogProjector(service.CatalogProjectorOptions{})
	all := projector.Project(snap.Systems, domainauth.UserRecord{Role: domainauth.RoleAdmin})
	if err := writef(w, "Systems: %d (complete %d, running %d, other %d)\n",
		len(snap.Systems), len(all.Complete), len(all.Running), len(snap.Systems)-all.Len()); err != nil {
		return err
	}

	if opts.UserID != "" {
		if err := renderUserView(w, snap, opts.UserID); err != nil {
			return err
		}
	}
	if opts.Rows {
		return renderSystemRows(w, snap.Systems)
	}
	return nil
}

func renderUserView(w io.Writer, snap catalogSnapshot, userID string) error {
	user, ok := findUser(snap.Users, userID)
	if !ok {
		return writef(w, "\nUser %q not found in the credentials sheet\n", userID)
	}
	projector := service.NewCatalogProjector(service.CatalogProjectorOptions{})
	view := projector.Project(snap.Systems, user)
	if err := writef(w, "\n%s %s sees: complete %d", user.Role.Label(), user.UserID, len(view.Complete)); err != nil {
		return err
	}
	if user.IsAdmin() {
		return writef(w, ", running %d\n", len(view.Running))
	}
	return writeln(w)
}

// findUser matches the way login does: exact, case-sensitive user id.
func findUser(users []domainauth.UserRecord, id string) (domainauth.UserRecord, bool) {
	for _, u := range users {
		if u.UserID == id {
			return u, true
		}
	}
	return domainauth.UserRecord{}, false
}

func renderSystemRows(w io.Writer, systems []model.SystemRecord) error {
	if err := writeln(w); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "#\tNAME\tSTATUS\tAPP LINK\n"); err != nil {
		return err
	}
	for i, s := range systems {
		status := s.RawStatus
		if status == "" {
			status = "-"
		}
		if err := writef(tw, "%d\t%s\t%s\t%s\n", i+1, s.Name, status, s.AppLink); err != nil {
			return err
		}
	}
	return tw.Flush()
}

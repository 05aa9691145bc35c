package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shishobooks/libris/pkg/client"
	"github.com/shishobooks/libris/pkg/session"
	"github.com/urfave/cli/v2"
)

const (
	exitDenied = 2
	exitAPI    = 3
)

// desk bundles what every command needs.
type desk struct {
	client *client.Client
	guard  *session.Guard
	store  *session.Store
}

func newDesk(c *cli.Context) (*desk, error) {
	path := c.String("session-file")
	if path == "" {
		var err error
		path, err = session.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	store := session.NewStore(path)
	cl, err := client.New(c.String("server"), store)
	if err != nil {
		return nil, err
	}
	return &desk{client: cl, guard: session.NewGuard(), store: store}, nil
}

// open runs the guard for a page and turns a redirect into a message and a
// non-zero exit.
func (d *desk) open(page string) error {
	decision, target := d.guard.Resolve(d.client.Session(), page)
	switch decision {
	case session.RedirectLogin:
		return cli.Exit("You need to log in first: libctl login --email <email>", exitDenied)
	case session.RedirectHome:
		if page == session.RootPath {
			return nil
		}
		sess := d.client.Session()
		if session.Pages[page].GuestOnly {
			return cli.Exit(fmt.Sprintf("Already logged in as %s. Run libctl logout first.", sess.User.Email), exitDenied)
		}
		return cli.Exit(fmt.Sprintf("%s isn't available to %s accounts. Your home page is %s.", page, sess.User.Role, target), exitDenied)
	}
	return nil
}

// page wraps an action with a guard check for the page it belongs to.
func page(path string, action func(c *cli.Context, d *desk) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		d, err := newDesk(c)
		if err != nil {
			return err
		}
		if err := d.open(path); err != nil {
			return err
		}
		return apiExit(action(c, d))
	}
}

// apiExit turns client errors into user-facing messages.
func apiExit(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *client.Error
	switch {
	case errors.Is(err, client.ErrReauthenticate):
		return cli.Exit(err.Error()+" Run: libctl login", exitDenied)
	case errors.Is(err, client.ErrNetwork):
		return cli.Exit(err.Error(), exitAPI)
	case errors.As(err, &apiErr):
		return cli.Exit(apiErr.Message, exitAPI)
	}
	return err
}

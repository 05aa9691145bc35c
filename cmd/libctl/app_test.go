package main

import (
	"flag"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/shishobooks/libris/pkg/client"
	"github.com/shishobooks/libris/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestDesk(t *testing.T, sess *session.Session) *desk {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if sess != nil {
		require.NoError(t, store.Save(sess))
	}
	c, err := client.New("http://127.0.0.1:1/api", store)
	require.NoError(t, err)
	return &desk{client: c, guard: session.NewGuard(), store: store}
}

func requireExit(t *testing.T, err error, code int) string {
	t.Helper()
	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr), "expected an exit error, got %v", err)
	assert.Equal(t, code, exitErr.ExitCode())
	return exitErr.Error()
}

func TestDeskOpen(t *testing.T) {
	t.Parallel()

	anonymous := newTestDesk(t, nil)
	msg := requireExit(t, anonymous.open("/books"), exitDenied)
	assert.Contains(t, msg, "log in")
	assert.NoError(t, anonymous.open("/login"))

	student := newTestDesk(t, &session.Session{Token: "opaque", User: session.User{Email: "ada@example.com", Role: session.RoleStudent}})
	assert.NoError(t, student.open("/my-books"))
	assert.NoError(t, student.open(session.RootPath))
	msg = requireExit(t, student.open("/issue-book"), exitDenied)
	assert.Contains(t, msg, "/student-dashboard")
	msg = requireExit(t, student.open("/login"), exitDenied)
	assert.Contains(t, msg, "Already logged in as ada@example.com")

	librarian := newTestDesk(t, &session.Session{Token: "opaque", User: session.User{Role: session.RoleLibrarian}})
	assert.NoError(t, librarian.open("/issue-book"))
	requireExit(t, librarian.open("/students/add"), exitDenied)
}

func TestNewDesk_UsesSessionFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	set := flag.NewFlagSet("libctl", flag.ContinueOnError)
	set.String("server", "http://127.0.0.1:1/api", "")
	set.String("session-file", path, "")

	d, err := newDesk(cli.NewContext(cli.NewApp(), set, nil))
	require.NoError(t, err)
	assert.Equal(t, path, d.store.Path())
	assert.Nil(t, d.client.Session())
}

func TestAPIExit(t *testing.T) {
	t.Parallel()

	assert.NoError(t, apiExit(nil))

	msg := requireExit(t, apiExit(&client.Error{StatusCode: http.StatusConflict, Message: "Book is not available."}), exitAPI)
	assert.Equal(t, "Book is not available.", msg)

	msg = requireExit(t, apiExit(client.ErrReauthenticate), exitDenied)
	assert.Contains(t, msg, "libctl login")

	plain := errors.New("boom")
	assert.Equal(t, plain, apiExit(plain))
}

package main

import (
	"os"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/libris/pkg/version"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	app := &cli.App{
		Name:        "libctl",
		Usage:       "work the library desk from the command line",
		Description: "libctl talks to a libris server. Log in once; the session is kept in a file until it expires or you log out.",
		Version:     version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "API base URL",
				Value:   "http://localhost:8000/api",
				EnvVars: []string{"LIBRIS_SERVER"},
			},
			&cli.StringFlag{
				Name:    "session-file",
				Usage:   "where the login session is stored (default: user config dir)",
				EnvVars: []string{"LIBRIS_SESSION_FILE"},
			},
		},
		Commands: commands(),
	}

	// cli.Exit errors are printed and exit inside Run.
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("libctl error")
	}
}

package main

import (
	"errors"
	"io"

	"reviewshare/config"
	"reviewshare/internal/controller"
	"reviewshare/internal/render"
	"reviewshare/internal/reviewapi"
	"reviewshare/pkg/logger"

	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once flags and env are resolved.
type app struct {
	cfg      config.Client
	client   *reviewapi.Client
	ctrl     *controller.Controller
	renderer render.Renderer
	in       io.Reader
}

func (a *app) requireUser() error {
	if a.cfg.UserID == "" {
		return errors.New("no user: pass --user or set REVIEWS_USER_ID")
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		serverURL, userID, token, origin, style string
		plain                                   bool
	)

	root := &cobra.Command{
		Use:           "reviewctl",
		Short:         "Write, edit and share markdown reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.in = cmd.InOrStdin()
			config.LoadDotEnv()
			if err := config.ParseEnv(&a.cfg); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				a.cfg.ServerURL = serverURL
			}
			if flags.Changed("user") {
				a.cfg.UserID = userID
			}
			if flags.Changed("token") {
				a.cfg.Token = token
			}
			if flags.Changed("origin") {
				a.cfg.Origin = origin
			}
			logger.Init(a.cfg.LogLevel)

			a.client = reviewapi.New(a.cfg.ServerURL,
				reviewapi.WithToken(a.cfg.Token),
				reviewapi.WithTimeout(a.cfg.Timeout),
			)
			a.ctrl = controller.New(a.client)

			if plain {
				style = "notty"
			}
			r, err := render.NewTerminal(style, 80)
			if err != nil {
				return err
			}
			a.renderer = r
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&serverURL, "server", "", "review server base URL (REVIEWS_SERVER_URL)")
	pf.StringVarP(&userID, "user", "u", "", "your user id (REVIEWS_USER_ID)")
	pf.StringVar(&token, "token", "", "bearer token; needed for changes and private reviews (REVIEWS_TOKEN)")
	pf.StringVar(&origin, "origin", "", "front-end origin used for share links (REVIEWS_ORIGIN)")
	pf.StringVar(&style, "style", "", "markdown style: dark, light, notty (default: detect)")
	pf.BoolVar(&plain, "plain", false, "render markdown without colors")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newProfileCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newArchiveCmd(a, true),
		newArchiveCmd(a, false),
		newVisibilityCmd(a, true),
		newVisibilityCmd(a, false),
		newShareCmd(a),
		newWatchCmd(a),
	)
	return root
}

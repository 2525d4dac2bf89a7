package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/comments/internal/auth"
	"github.com/idilsaglam/comments/internal/ui"
)

func (a *app) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bearer token sent with every request",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usagef("usage: comments auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "login [token]",
			Short: "Store a token (read from stdin when not given)",
			Args:  usageArgs(cobra.MaximumNArgs(1)),
			RunE:  a.doAuthLogin,
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored token",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  a.doAuthLogout,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the token comes from",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  a.doAuthStatus,
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Decode the token's JWT claims locally",
			Args:  usageArgs(cobra.NoArgs),
			RunE:  a.doAuthWhoAmI,
		},
	)
	return cmd
}

func (a *app) doAuthLogin(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		fmt.Fprint(a.opt.Stdout, "Paste your token: ")
		sc := bufio.NewScanner(a.opt.Stdin)
		if sc.Scan() {
			token = sc.Text()
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read token: %w", err)
		}
	}
	if err := auth.SetToken(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	ui.OK("logged in")
	return nil
}

func (a *app) doAuthLogout(cmd *cobra.Command, _ []string) error {
	ti, _ := auth.GetToken()
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
		return nil
	}
	if err := auth.DeleteToken(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	ui.OK("logged out")
	return nil
}

func (a *app) doAuthStatus(cmd *cobra.Command, _ []string) error {
	ti, err := auth.GetToken()
	if err != nil {
		return err
	}
	t := ui.Current()
	if ti == nil {
		ui.Println(ui.C(t.Muted, "not logged in"))
		ui.Println("Run: comments auth login")
		return nil
	}
	ui.Println("source: " + ti.Source)
	if ti.ExpiresAt != nil {
		state := ""
		if ti.ExpiresAt.Before(time.Now()) {
			state = " " + ui.C(t.Error, "(expired)")
		}
		ui.Println("expires: " + ti.ExpiresAt.UTC().Format(time.RFC3339) + state)
	} else {
		ui.Println("expires: (unknown)")
	}
	ui.Println("env override: " + auth.EnvToken)
	return nil
}

// whoami decodes a JWT locally (unverified); opaque tokens print basic info.
func (a *app) doAuthWhoAmI(cmd *cobra.Command, _ []string) error {
	ti, err := auth.GetToken()
	if err != nil {
		return err
	}
	if ti == nil || strings.TrimSpace(ti.Token) == "" {
		return usagef("not logged in. Run: comments auth login")
	}
	claims, err := auth.Claims(ti.Token)
	if err != nil {
		ui.Println("Opaque token (cannot introspect locally).")
		ui.Println("source: " + ti.Source)
		return nil
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return fmt.Errorf("claims: %w", err)
	}
	ui.Println("JWT payload:")
	ui.Println(string(b))
	return nil
}

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"tableflip.dev/desk/pkg/commands/options"
	"tableflip.dev/desk/pkg/printers"
	"tableflip.dev/desk/pkg/session"
)

var promptTemplates = &promptui.PromptTemplates{
	Prompt:  "{{ . }}: ",
	Valid:   "{{ . | green }}: ",
	Invalid: "{{ . | red }}: ",
	Success: "{{ . | bold }}: ",
}

func required(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("required")
	}
	return nil
}

func addLogin(topLevel *cobra.Command) {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start an operator session",
		Long: `Login asks for the username and password and starts a session shared with
the console. The session ends after the idle timeout without activity.`,
		Example: `
desk login
desk login -u iva
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			_, e, err := openDesk(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			if username == "" {
				p := promptui.Prompt{Label: "Username", Templates: promptTemplates, Validate: required}
				if username, err = p.Run(); err != nil {
					return err
				}
			}
			p := promptui.Prompt{Label: "Password", Templates: promptTemplates, Validate: required, Mask: '*'}
			password, err := p.Run()
			if err != nil {
				return err
			}
			principal, err := e.desk.Login(username, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(color.Output, "Logged in as %s (%s).\n", principal.Name, principal.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username; prompted for when empty.")
	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the operator session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			_, e, err := openDesk(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.requireSession(); err != nil {
				return err
			}
			e.desk.Logout()
			_, _ = fmt.Fprintln(color.Output, "Logged out.")
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addWhoami(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the operator session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			_, e, err := openDesk(cmd.Context(), false)
			if err != nil {
				return oo.HandleError(err)
			}
			defer e.Close()

			st := e.desk.Restore()
			if oo.JSON {
				return oo.Print(map[string]interface{}{
					"active":       st.State == session.Active,
					"principal":    st.Principal,
					"lastActivity": st.LastActivity,
					"reason":       st.Reason,
				})
			}
			printers.New().Session(st, e.desk.Policy().IdleTimeout, e.desk.Now())
			return nil
		},
	}

	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradehubhq/tradehub-go/internal/session"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
)

var registerRole string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register your marketplace role",
	Long: `Create or replace your role binding on the hub. Each user carries exactly
one role; registering again overwrites it.

Example:
  tradehub register --role importer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := enums.ParseRole(registerRole)
		if err != nil {
			return err
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		binding, err := app.session.Register(cmd.Context(), session.RegisterInput{Role: role})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(binding)
		}
		fmt.Printf("registered %s as %s\n", binding.UserID, binding.Role)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the acting user and role",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		identity := app.session.Identity()
		if identity == nil {
			fmt.Println("not signed in")
			return nil
		}

		actor := app.session.Actor()
		if jsonOutput {
			return printJSON(map[string]any{"identity": identity, "role": actor.Role})
		}
		fmt.Printf("user:  %s\n", identity.ID)
		if identity.DisplayName != "" {
			fmt.Printf("name:  %s\n", identity.DisplayName)
		}
		if identity.Email != "" {
			fmt.Printf("email: %s\n", identity.Email)
		}
		if actor.Role != "" {
			fmt.Printf("role:  %s\n", actor.Role)
		} else {
			fmt.Println("role:  not registered")
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerRole, "role", "", "Marketplace role: importer or exporter")
	rootCmd.AddCommand(registerCmd, whoamiCmd)
}

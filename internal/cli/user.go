package cli

import (
	"github.com/spf13/cobra"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
)

func newUserCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd(e))
	return cmd
}

func newUserCreateCmd(e *env) *cobra.Command {
	var nu auth.NewUser
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a user account",
		Example: "  stockmaster user create --username dana --role readonly --password 'Str0ng-Passw0rd!'",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, _, err := openStore(cmd.Context(), e.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer conn.Close()

			u, err := auth.CreateUser(cmd.Context(), conn, nu)
			if err != nil {
				return err
			}
			audit.New(conn, nil, e.log).Log(cmd.Context(), cliSubject.Username, audit.ActionCreate, auth.ModuleUsers, "", "Created user "+u.Username+" ("+u.Role+")")
			cmd.Printf("Created %s (%s) with id %d\n", u.Username, u.Role, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&nu.Username, "username", "", "login name")
	cmd.Flags().StringVar(&nu.DisplayName, "display-name", "", "name shown in the UI")
	cmd.Flags().StringVar(&nu.Role, "role", "user", "admin, user or readonly")
	cmd.Flags().StringVar(&nu.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

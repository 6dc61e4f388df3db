package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shopfront-dev/storefront/internal/api/dto"
)

// ---------- ensure-super ----------

func newEnsureSuperCmd() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "ensure-super",
		Short: "Make sure a super admin exists",
		Long: `Promotes or creates the given account when no super admin exists.
Does nothing when at least one super admin is already present.`,
		Example: `  adminctl ensure-super --username root
  adminctl ensure-super --username root --password s3cr3t`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if password == "" {
				if password, err = promptPassword(); err != nil {
					return err
				}
			}
			changed, err := e.accounts.EnsureSuperAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("Super admin %q is in place\n", username)
			} else {
				fmt.Println("A super admin already exists; nothing changed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account to promote or create (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password when the account must be created (prompted if omitted)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// ---------- promote ----------

func newPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant the super admin role to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			account, err := e.accounts.PromoteToSuperAdmin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%q is now a super admin\n", account.Username)
			return nil
		},
	}
}

// ---------- create ----------

func newCreateCmd() *cobra.Command {
	var (
		username string
		password string
		super    bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Example: `  adminctl create --username alice
  adminctl create --username bob --super`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if password == "" {
				if password, err = promptPassword(); err != nil {
					return err
				}
			}
			account, err := e.accounts.CreateAccount(cmd.Context(), username, password, super)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %q (%s)\n", account.Username, account.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().BoolVar(&super, "super", false, "Grant the super admin role")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// ---------- list ----------

func newListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			accounts, err := e.accounts.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			rows := dto.NewAccountResponses(accounts)

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(rows) == 0 {
				fmt.Println("No admin accounts. Use 'adminctl ensure-super' to create one.")
				return nil
			}
			fmt.Printf("%-36s %-24s %-6s %s\n", "ID", "USERNAME", "SUPER", "CREATED")
			for _, r := range rows {
				fmt.Printf("%-36s %-24s %-6t %s\n", r.ID, r.Username, r.IsSuperAdmin, r.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if string(pw) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}

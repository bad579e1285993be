package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/gateway/supabase"
	"github.com/rezmoss/simpletracker/internal/model"
)

const passwordEnv = "SIMPLETRACKER_PASSWORD"

func newLoginCmd() *cobra.Command {
	var url, anonKey, email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a Supabase project and use it as the backend",
		Long:  "Sign in to a Supabase project and use it as the backend. The password is read from --password or $" + passwordEnv + ".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			next := *cfg
			if url != "" {
				next.Supabase.URL = url
			}
			if anonKey != "" {
				next.Supabase.AnonKey = anonKey
			}
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if email == "" || password == "" {
				return model.Invalid("email and password are required")
			}

			client, err := supabase.New(supabase.Config{URL: next.Supabase.URL, AnonKey: next.Supabase.AnonKey},
				supabase.WithLogger(logger))
			if err != nil {
				return err
			}
			defer client.Close()
			s, err := client.SignIn(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}

			next.Backend = config.BackendSupabase
			next.Supabase.Email = email
			next.Supabase.Password = password
			if err := next.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfgPath, &next); err != nil {
				return err
			}
			*cfg = next
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ signed in as "+s.User.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "project URL, e.g. https://xyz.supabase.co")
	cmd.Flags().StringVar(&anonKey, "anon-key", "", "project anon key")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved account and switch back to the local backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Supabase.Email, cfg.Supabase.Password = "", ""
			cfg.Backend = config.BackendLocal
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ signed out"))
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safar/go-storefront/internal/session"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.app.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var in session.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Session.Register(cmd.Context(), in)

			var dup *session.DuplicateAccountError
			if errors.As(err, &dup) {
				return fmt.Errorf("%w\nlog in instead: storefront login --email %s", err, dup.Email)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.RequiresLogin {
				fmt.Fprintf(out, "Account created. Log in with: storefront login --email %s\n", in.Email)
				return nil
			}
			fmt.Fprintf(out, "Welcome, %s. You are logged in.\n", res.User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.Flags().StringVar(&in.Mobile, "mobile", "", "mobile number")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := c.app.Session.User()
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage the profile",
	}

	var name, email, mobile string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change name, email or mobile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u session.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				u.Name = &name
			}
			if flags.Changed("email") {
				u.Email = &email
			}
			if flags.Changed("mobile") {
				u.Mobile = &mobile
			}

			user, err := c.app.Session.UpdateProfile(cmd.Context(), u)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	update.Flags().StringVar(&name, "name", "", "new name")
	update.Flags().StringVar(&email, "email", "", "new email")
	update.Flags().StringVar(&mobile, "mobile", "", "new mobile number")

	profile.AddCommand(update)
	return profile
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/taskboard/internal/session"
)

func signupCmd(rt *runtime) *cobra.Command {
	return credentialsCmd(rt, "signup [email]", "Create an account and log in", func(ctx context.Context, gate *session.Gate, email, password string) error {
		return gate.Signup(ctx, email, password)
	})
}

func loginCmd(rt *runtime) *cobra.Command {
	return credentialsCmd(rt, "login [email]", "Log in to the board", func(ctx context.Context, gate *session.Gate, email, password string) error {
		return gate.Login(ctx, email, password)
	})
}

func credentialsCmd(
	rt *runtime,
	use, short string,
	run func(ctx context.Context, gate *session.Gate, email, password string) error,
) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.offline {
				return errors.New("offline mode has no accounts")
			}
			if password == "" {
				fmt.Fprint(rt.out, "Password: ")
				var err error
				if password, err = rt.readLine(); err != nil {
					return err
				}
			}

			_, gate, err := rt.online()
			if err != nil {
				return err
			}

			ctx, cancel := rt.context()
			defer cancel()
			if err = run(ctx, gate, args[0], password); err != nil {
				return err
			}

			fmt.Fprintf(rt.out, "Logged in as %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when empty)")
	return cmd
}

func logoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gate, err := rt.online()
			if err != nil {
				return err
			}

			ctx, cancel := rt.context()
			defer cancel()
			if err = gate.Logout(ctx); err != nil && !errors.Is(err, session.ErrLoginRequired) {
				return err
			}

			fmt.Fprintln(rt.out, "Logged out")
			return nil
		},
	}
}

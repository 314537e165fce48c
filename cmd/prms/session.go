package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(a.in)
			var err error
			if username == "" {
				if username, err = prompt(a, reader, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(a, reader, "Password: "); err != nil {
					return err
				}
			}
			if err := a.prms.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in to %s\n", a.cfg.APIURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.prms.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the api url and whether a session is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := "not logged in"
			if a.prms.IsAuthenticated() {
				state = "logged in"
			}
			fmt.Fprintf(a.out, "%s: %s\n", a.cfg.APIURL, state)
			return nil
		},
	}
}

func prompt(a *app, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := reader.ReadString('\n')
	if err != nil && len(line) == 0 {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question, anything but y or yes is a no.
func confirm(a *app, question string) bool {
	answer, err := prompt(a, bufio.NewReader(a.in), question+" [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/templui/lanchat/internal/service"
)

var errNotSignedIn = errors.New("not signed in, run lanchat login first")

func usersCmd(e *env) *cobra.Command {
	var q service.DirectoryQuery
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Browse language partners",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := e.client.Session.Session()
			if !s.IsAuthenticated || s.User == nil {
				return errNotSignedIn
			}
			q.ExcludeID = s.User.ID

			users, err := e.app.DirectoryService.Search(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found.")
				return nil
			}
			for _, u := range users {
				printProfile(out, u)
			}

			natives := service.NativeSpeakers(s.User, users)
			if len(natives) > 0 {
				fmt.Fprintf(out, "\nNative speakers of languages you are learning:\n")
				for _, u := range natives {
					printProfile(out, u)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Text, "q", "", "search name, country or city")
	cmd.Flags().StringVar(&q.Language, "lang", "", "language spoken or learned")
	cmd.Flags().BoolVar(&q.OnlineOnly, "online", false, "only users online now")
	return cmd
}

func translateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <lang> <text...>",
		Short: "Translate text into a language",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.app.TranslateService.Translate(cmd.Context(), strings.Join(args[1:], " "), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.TranslatedText)
			return nil
		},
	}
}

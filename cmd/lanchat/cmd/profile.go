package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/templui/lanchat/internal/model"
	"github.com/templui/lanchat/internal/validation"
)

func profileCmd(e *env) *cobra.Command {
	var (
		name, bio, country, city string
		native, learn            string
		age                      int
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Long: `Show your profile, or update the fields given as flags.

Learning languages are a comma separated list of code:level pairs,
for example --learn es:beginner,ja:intermediate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			upd := model.ProfileUpdate{}
			if flags.Changed("name") {
				err := validation.ValidateName(name)
				if err != nil {
					return err
				}
				upd.Name = &name
			}
			if flags.Changed("bio") {
				upd.Bio = &bio
			}
			if flags.Changed("country") {
				upd.Country = &country
			}
			if flags.Changed("city") {
				upd.City = &city
			}
			if flags.Changed("age") {
				upd.Age = &age
			}
			if flags.Changed("native") {
				lang, err := model.NewLanguage(native, model.LevelNative)
				if err != nil {
					return err
				}
				upd.NativeLanguage = &lang
			}
			if flags.Changed("learn") {
				langs, err := parseLearning(learn)
				if err != nil {
					return err
				}
				upd.LearningLanguages = &langs
			}

			out := cmd.OutOrStdout()
			s := e.client.Session.Session()
			if flags.NFlag() > 0 {
				var err error
				s, err = e.client.Session.UpdateProfile(cmd.Context(), upd)
				if err != nil {
					return err
				}
			}
			if s.User == nil {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}

			p := s.User
			fmt.Fprintf(out, "name:     %s\n", p.Name)
			fmt.Fprintf(out, "email:    %s\n", p.Email)
			fmt.Fprintf(out, "bio:      %s\n", p.Bio)
			fmt.Fprintf(out, "location: %s, %s\n", p.City, p.Country)
			if p.Age > 0 {
				fmt.Fprintf(out, "age:      %d\n", p.Age)
			}
			fmt.Fprintf(out, "native:   %s %s\n", p.NativeLanguage.Flag, p.NativeLanguage.Name)
			for _, l := range p.LearningLanguages {
				fmt.Fprintf(out, "learning: %s %s (%s)\n", l.Flag, l.Name, l.Level)
			}
			fmt.Fprintf(out, "verified: %t\n", p.IsVerified)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&country, "country", "", "country")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().IntVar(&age, "age", 0, "age")
	cmd.Flags().StringVar(&native, "native", "", "native language code")
	cmd.Flags().StringVar(&learn, "learn", "", "languages being learned, code:level,...")
	return cmd
}

func parseLearning(s string) ([]model.Language, error) {
	langs := []model.Language{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		code, lvl, _ := strings.Cut(item, ":")
		level, err := model.ParseLevel(lvl)
		if err != nil {
			return nil, err
		}
		lang, err := model.NewLanguage(code, level)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

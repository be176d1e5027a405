package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/pkg/client"
	"github.com/spf13/cobra"
)

type personFlags struct {
	name, mbti, bio, avatar string
	extras                  []string
}

func (f *personFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.mbti, "mbti", "", "MBTI type")
	cmd.Flags().StringVar(&f.bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&f.avatar, "avatar", "", "avatar image file")
	cmd.Flags().StringArrayVar(&f.extras, "extra", nil, "extra field as key=value; repeatable, kept in order")
}

// person builds the request. The returned func closes the avatar file.
func (f *personFlags) person() (client.Person, func(), error) {
	p := client.Person{Name: f.name, MBTI: f.mbti, Bio: f.bio}
	for _, kv := range f.extras {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return p, func() {}, fmt.Errorf("--extra %q: want key=value", kv)
		}
		p.Extras = append(p.Extras, models.Extra{Key: strings.TrimSpace(k), Value: v})
	}
	if f.avatar == "" {
		return p, func() {}, nil
	}
	fh, err := os.Open(f.avatar)
	if err != nil {
		return p, func() {}, err
	}
	p.Avatar = &client.Upload{Name: filepath.Base(f.avatar), Body: fh}
	return p, func() { _ = fh.Close() }, nil
}

func printPerson(cmd *cobra.Command, p models.Person) {
	out := cmd.OutOrStdout()
	line := p.ID + "  " + p.Name
	if p.MBTI != nil {
		line += "  " + *p.MBTI
	}
	fmt.Fprintln(out, line)
	if p.Bio != nil {
		fmt.Fprintln(out, "    "+*p.Bio)
	}
	for _, e := range p.Extras {
		fmt.Fprintf(out, "    %s: %s\n", e.Key, e.Value)
	}
}

func newPeopleCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "people", Short: "Browse and manage the people directory"}

	var add, edit personFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, done, err := add.person()
			if err != nil {
				return err
			}
			defer done()
			return withApp(cmd, func(ctx context.Context, a *app) error {
				created, err := a.client.AddPerson(ctx, p)
				if err != nil {
					return err
				}
				printPerson(cmd, *created)
				return nil
			})
		},
	}
	add.bind(addCmd)

	editCmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Replace a person's fields (admin); the avatar is kept unless given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, done, err := edit.person()
			if err != nil {
				return err
			}
			defer done()
			return withApp(cmd, func(ctx context.Context, a *app) error {
				updated, err := a.client.EditPerson(ctx, args[0], p)
				if err != nil {
					return err
				}
				printPerson(cmd, *updated)
				return nil
			})
		},
	}
	edit.bind(editCmd)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List people in the order they were added",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					people, err := a.client.People(ctx)
					if err != nil {
						return err
					}
					for _, p := range people {
						printPerson(cmd, p)
					}
					return nil
				})
			},
		},
		addCmd,
		editCmd,
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a person (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					if err := a.client.DeletePerson(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

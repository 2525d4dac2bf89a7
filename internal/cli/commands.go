package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/comments/internal/controller"
	"github.com/idilsaglam/comments/internal/model"
	"github.com/idilsaglam/comments/internal/ui"
)

// openURL is swapped in tests.
var openURL = browser.OpenURL

func (a *app) lsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "Print the comment list",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return usagef("ls: --limit must not be negative")
			}
			ctrl := controller.New(a.newClient())
			defer ctrl.Close()

			await(ctrl, ctrl.Load(cmd.Context()))
			if msg := ctrl.Err(); msg != "" {
				return errors.New("load: " + msg)
			}
			ui.Panel(listLines(ctrl.Comments(), limit))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n comments (0 = all)")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add the placeholder comment",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl := controller.New(a.newClient())
			defer ctrl.Close()

			await(ctrl, ctrl.Add())
			if msg := ctrl.Err(); msg != "" {
				return errors.New("add: " + msg + " (rolled back)")
			}
			ui.OK("added " + strconv.Quote(controller.Placeholder.Name))
			return nil
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id>",
		Short: "Mark a comment as updated",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mutateOne(cmd, "update", args[0], func(ctrl *controller.List, c model.Comment) {
				await(ctrl, ctrl.Update(c))
			})
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a comment",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mutateOne(cmd, "rm", args[0], func(ctrl *controller.List, c model.Comment) {
				await(ctrl, ctrl.Delete(c))
			})
		},
	}
}

// mutateOne loads the list, finds the comment with the given id and runs op
// on it through the controller.
func (a *app) mutateOne(cmd *cobra.Command, name, rawID string, op func(*controller.List, model.Comment)) error {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return usagef("%s: not a number: %s", name, rawID)
	}

	ctrl := controller.New(a.newClient())
	defer ctrl.Close()

	await(ctrl, ctrl.Load(cmd.Context()))
	if msg := ctrl.Err(); msg != "" {
		return errors.New("load: " + msg)
	}

	c, ok := find(ctrl.Comments(), id)
	if !ok {
		return usagef("%s: no comment with id %d (run `comments ls` to see ids)", name, id)
	}

	op(ctrl, c)
	if msg := ctrl.Err(); msg != "" {
		return fmt.Errorf("%s: %s (rolled back)", name, msg)
	}
	switch name {
	case "rm":
		ui.OK(fmt.Sprintf("removed #%d", id))
	default:
		ui.OK(fmt.Sprintf("updated #%d", id))
	}
	return nil
}

func find(comments []model.Comment, id int) (model.Comment, bool) {
	for _, c := range comments {
		if c.ID == id {
			return c, true
		}
	}
	return model.Comment{}, false
}

func (a *app) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [id]",
		Short: "Open the endpoint in a browser",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := a.cfg.BaseURL + "/comments"
			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return usagef("open: not a number: %s", args[0])
				}
				url += "/" + strconv.Itoa(id)
			}
			if err := openURL(url); err != nil {
				return fmt.Errorf("open: %w", err)
			}
			ui.OK("opened " + url)
			return nil
		},
	}
}

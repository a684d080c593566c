package main

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"net/url"
	"os"
	"strings"

	"reviewshare/internal/controller"
	"reviewshare/internal/render"
	"reviewshare/internal/review/model"
	"reviewshare/internal/share"
	"reviewshare/pkg/logger"

	"github.com/spf13/cobra"
)

const excerptLen = 50

func newListCmd(a *app) *cobra.Command {
	var expand, archived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			if err := a.ctrl.LoadReviews(cmd.Context(), a.cfg.UserID); err != nil {
				return err
			}
			return a.printReviews(cmd.OutOrStdout(), a.ctrl.Reviews(), expand, archived)
		},
	}
	cmd.Flags().BoolVarP(&expand, "expand", "e", false, "render full bodies instead of excerpts")
	cmd.Flags().BoolVar(&archived, "archived", false, "list archived reviews instead")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "show <review-id>",
		Short: "Show a public review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			review, err := a.client.GetPublicReview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asHTML {
				return writeHTML(out, *review)
			}
			fmt.Fprintln(out, render.StripControl(review.Title))
			fmt.Fprintf(out, "Posted on %s\n", review.CreatedAt.Format("2006-01-02"))
			fmt.Fprintf(out, "More reviews by user: %s (reviewctl profile %s)\n",
				render.StripControl(review.UserID), render.StripControl(review.UserID))
			body, err := a.renderer.Render(review.Body)
			if err != nil {
				return err
			}
			fmt.Fprint(out, body)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the review as a sanitized HTML fragment")
	return cmd
}

// writeHTML prints the review the way the public page shows it. The body
// goes through the sanitizing HTML renderer; title and author are escaped.
func writeHTML(w io.Writer, review model.Review) error {
	body, err := render.NewHTML().Render(review.Body)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "<article>\n<h1>%s</h1>\n<p>Posted on %s</p>\n%s<p><a href=\"/profile/%s\">More reviews by user</a></p>\n</article>\n",
		html.EscapeString(review.Title),
		review.CreatedAt.Format("2006-01-02"),
		body,
		html.EscapeString(url.PathEscape(review.UserID)),
	)
	return nil
}

func newProfileCmd(a *app) *cobra.Command {
	var expand bool
	cmd := &cobra.Command{
		Use:   "profile <user-id>",
		Short: "List the public reviews of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviews, err := a.client.ListUserReviews(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reviews by %s\n", render.StripControl(args[0]))
			var visible []model.Review
			for _, r := range reviews {
				if !r.IsDraft() {
					visible = append(visible, r)
				}
			}
			return a.printReviews(out, visible, expand, false)
		},
	}
	cmd.Flags().BoolVarP(&expand, "expand", "e", false, "render full bodies instead of excerpts")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var title, body, file string
	var private bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			if file != "" {
				b, err := a.readBody(file)
				if err != nil {
					return err
				}
				body = b
			}
			create := a.ctrl.CreateReview
			if private {
				create = a.ctrl.CreatePrivateReview
			}
			if err := create(cmd.Context(), a.cfg.UserID, title, body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review added. You have %d reviews.\n", len(a.ctrl.Reviews()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "review title")
	cmd.Flags().StringVarP(&body, "body", "b", "", "markdown body")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the body from a file (- for stdin)")
	cmd.Flags().BoolVar(&private, "private", false, "only you can see the review")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var body, file string
	cmd := &cobra.Command{
		Use:   "edit <review-id>",
		Short: "Replace the body of one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("body") && file == "" {
				return fmt.Errorf("pass --body or --file")
			}
			if file != "" {
				b, err := a.readBody(file)
				if err != nil {
					return err
				}
				body = b
			}

			id := args[0]
			ctx := cmd.Context()
			if err := a.ctrl.LoadReviews(ctx, a.cfg.UserID); err != nil {
				return err
			}
			if _, err := a.ctrl.EnterEditMode(id); err != nil {
				return err
			}
			if err := a.ctrl.UpdateDraft(id, body); err != nil {
				return err
			}
			if err := a.ctrl.SaveReview(ctx, a.cfg.UserID, id); err != nil {
				if path, saveErr := keepDraft(id, body); saveErr == nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Draft kept in %s\n", path)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Review saved.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&body, "body", "b", "", "new markdown body")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the body from a file (- for stdin)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <review-id>",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			if !yes && !a.confirm(cmd.OutOrStdout(), "Are you sure you want to delete this review?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			if err := a.ctrl.DeleteReview(cmd.Context(), a.cfg.UserID, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Review deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newArchiveCmd(a *app, archive bool) *cobra.Command {
	use, short, done := "archive", "Move a review to the archive", "Review archived."
	if !archive {
		use, short, done = "unarchive", "Restore an archived review", "Review unarchived."
	}
	return &cobra.Command{
		Use:   use + " <review-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.ctrl.LoadReviews(ctx, a.cfg.UserID); err != nil {
				return err
			}
			if err := a.ctrl.SetArchived(ctx, a.cfg.UserID, args[0], archive); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), done)
			return nil
		},
	}
}

func newVisibilityCmd(a *app, private bool) *cobra.Command {
	use, short, done := "private", "Hide a review from everyone but you", "Review is now private."
	if !private {
		use, short, done = "public", "Make a review visible to everyone", "Review is now public."
	}
	return &cobra.Command{
		Use:   use + " <review-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.ctrl.LoadReviews(ctx, a.cfg.UserID); err != nil {
				return err
			}
			if err := a.ctrl.SetPrivate(ctx, a.cfg.UserID, args[0], private); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), done)
			return nil
		},
	}
}

func newShareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "share <review-id>",
		Short: "Copy the public link of a review to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			review, err := a.client.GetPublicReview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := &share.Sharer{
				Origin:    a.cfg.Origin,
				Clipboard: share.SystemClipboard{},
				Notifier:  &cliNotifier{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()},
			}
			link, err := s.Share(*review)
			if err != nil {
				logger.Sugar.Debugf("clipboard unavailable: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep your review list on screen and refresh it on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			unsubscribe := a.ctrl.Subscribe(func(s controller.Snapshot) {
				fmt.Fprintln(out, strings.Repeat("─", 40))
				if err := a.printReviews(out, s.Reviews, false, false); err != nil {
					logger.Sugar.Warnf("render: %v", err)
				}
			})
			defer unsubscribe()

			if err := a.ctrl.LoadReviews(ctx, a.cfg.UserID); err != nil {
				return err
			}
			return a.client.Watch(ctx, func(e model.ChangeEvent) {
				logger.Sugar.Debugf("review %s %s", e.ReviewID, e.Action)
				if err := a.ctrl.LoadReviews(ctx, a.cfg.UserID); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "refresh failed: %v\n", err)
				}
			})
		},
	}
}

func (a *app) printReviews(w io.Writer, reviews []model.Review, expand, archived bool) error {
	shown := 0
	for _, r := range reviews {
		if r.Archive != archived {
			continue
		}
		shown++
		// Titles, ids and excerpts are printed as-is, so they lose any
		// terminal control sequences first.
		title := render.StripControl(r.Title)
		if r.Private {
			title += " (private)"
		}
		fmt.Fprintf(w, "%s  %s  [%s]\n", title, r.ReviewDate.Format("2006-01-02"), render.StripControl(r.ID))
		if !expand {
			fmt.Fprintf(w, "    %s\n", render.StripControl(r.Excerpt(excerptLen)))
			continue
		}
		body, err := a.renderer.Render(r.Body)
		if err != nil {
			return err
		}
		fmt.Fprint(w, body)
	}
	if shown == 0 {
		fmt.Fprintln(w, "No reviews.")
	}
	return nil
}

func (a *app) readBody(file string) (string, error) {
	if file == "-" {
		b, err := io.ReadAll(a.in)
		return string(b), err
	}
	b, err := os.ReadFile(file)
	return string(b), err
}

func (a *app) confirm(w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(a.in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func keepDraft(reviewID, body string) (string, error) {
	f, err := os.CreateTemp("", "review-"+reviewID+"-*.md")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return "", err
	}
	return f.Name(), nil
}

type cliNotifier struct {
	out, err io.Writer
}

func (n *cliNotifier) Success(msg string) { fmt.Fprintln(n.out, msg) }
func (n *cliNotifier) Error(msg string)   { fmt.Fprintln(n.err, msg) }

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qbank-admin/pkg/client"
	"qbank-admin/pkg/review"
	"qbank-admin/pkg/staging"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Import question documents",
}

var questionsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Preview, review and commit a question document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, _ := cmd.Flags().GetInt64("subject")
		labelsStr, _ := cmd.Flags().GetString("labels")
		saveCopy, _ := cmd.Flags().GetBool("save-copy")
		scopeStr, _ := cmd.Flags().GetString("select")
		edit, _ := cmd.Flags().GetBool("edit")
		yes, _ := cmd.Flags().GetBool("yes")

		if subjectID <= 0 {
			return fmt.Errorf("--subject is required")
		}
		scope, err := review.ParseScope(strings.ToUpper(scopeStr))
		if err != nil {
			return err
		}
		up, err := readUpload(args[0])
		if err != nil {
			return err
		}

		ws := newWorkspace(cmd)
		ws.nav.Navigate(fmt.Sprintf("/subjects/%d/questions", subjectID))
		out := cmd.OutOrStdout()

		printStep(out, "Uploading %s", up.Name)
		session, err := ws.client.PreviewQuestions(cmd.Context(), up, client.QuestionPreviewOptions{
			SubjectID: subjectID,
			SaveCopy:  saveCopy,
			Labels:    splitList(labelsStr),
		})
		if err != nil {
			return err
		}

		r := review.NewQuestionReview(session)
		if err := r.SelectAll(scope); err != nil {
			return err
		}
		if edit {
			if err := editQuestionReview(cmd, r); err != nil {
				return err
			}
		}
		printQuestionReview(out, r)

		if !yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Commit %d of %d blocks?", r.IncludedCount(), len(r.Blocks()))) {
			printWarning(out, "Nothing committed; session %s expires on its own", session.SessionID)
			return nil
		}

		summary, err := ws.coordinator.CommitQuestions(cmd.Context(), r, saveCopy)
		printSummary(out, summary)
		return err
	},
}

func init() {
	questionsImportCmd.Flags().Int64("subject", 0, "subject id the questions belong to")
	questionsImportCmd.Flags().String("labels", "", "comma-separated labels: practice, exam")
	questionsImportCmd.Flags().Bool("save-copy", false, "archive the original document")
	questionsImportCmd.Flags().String("select", string(review.ScopeAll), "initial selection: ALL, NONE, VALID, INVALID")
	questionsImportCmd.Flags().Bool("edit", false, "edit the staged blocks in $EDITOR before committing")
	questionsImportCmd.Flags().BoolP("yes", "y", false, "commit without asking")
	questionsCmd.AddCommand(questionsImportCmd)
}

func readUpload(path string) (client.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return client.Upload{}, fmt.Errorf("reading file: %w", err)
	}
	return client.Upload{Name: filepath.Base(path), Data: data}, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// editQuestionReview round-trips the review through a YAML file opened in
// the user's editor.
func editQuestionReview(cmd *cobra.Command, r *review.QuestionReview) error {
	f, err := os.CreateTemp("", "qbank-review-*.yaml")
	if err != nil {
		return err
	}
	path := f.Name()
	defer os.Remove(path)

	if err := review.WriteQuestionFile(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	ed := exec.Command(editor, path)
	ed.Stdin, ed.Stdout, ed.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := ed.Run(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	return review.ApplyQuestionFile(in, r)
}

func printQuestionReview(w io.Writer, r *review.QuestionReview) {
	for _, b := range r.Blocks() {
		mark := "[ ]"
		if b.Include {
			mark = "[x]"
		}
		status := green.Sprint("ok")
		if err := staging.Validate(b); err != nil {
			status = red.Sprint(err.Error())
		}
		fmt.Fprintf(w, "%s %3d  %-15s %s  %s\n", mark, b.Index, b.QuestionType, excerpt(b.Content, 48), status)
		for _, warn := range b.Warnings {
			yellow.Fprintf(w, "          ⚠ %s\n", warn)
		}
	}
	s := r.Summary()
	printStatus(w, "Included", "%d of %d", s.Included, s.Total)
	printStatus(w, "Invalid", "%d (%d selected)", s.Invalid, s.SelectedInvalid)
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s + strings.Repeat(" ", n-len(runes))
	}
	return string(runes[:n-1]) + "…"
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

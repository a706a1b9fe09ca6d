package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"qbank-admin/pkg/review"
	"qbank-admin/pkg/staging"
)

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Import answer keys",
}

var answersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Preview an answer key and apply the selected answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, _ := cmd.Flags().GetInt64("subject")
		scopeStr, _ := cmd.Flags().GetString("select")
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
		ws.nav.Navigate(fmt.Sprintf("/subjects/%d/answers", subjectID))
		out := cmd.OutOrStdout()

		printStep(out, "Uploading %s", up.Name)
		session, err := ws.client.PreviewAnswers(cmd.Context(), up, subjectID)
		if err != nil {
			return err
		}

		r := review.NewAnswerReview(session)
		if err := r.SelectAll(scope); err != nil {
			return err
		}
		printAnswerReview(out, r)

		if !yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Apply %d of %d blocks?", r.IncludedCount(), len(r.Blocks()))) {
			printWarning(out, "Nothing committed; session %s expires on its own", session.SessionID)
			return nil
		}

		summary, err := ws.coordinator.CommitAnswers(cmd.Context(), r)
		printSummary(out, summary)
		return err
	},
}

func init() {
	answersImportCmd.Flags().Int64("subject", 0, "subject id whose questions are updated")
	answersImportCmd.Flags().String("select", string(review.ScopeValid), "initial selection: ALL, NONE, VALID, INVALID")
	answersImportCmd.Flags().BoolP("yes", "y", false, "commit without asking")
	answersCmd.AddCommand(answersImportCmd)
}

func printAnswerReview(w io.Writer, r *review.AnswerReview) {
	for _, b := range r.Blocks() {
		mark := "[ ]"
		if b.Include {
			mark = "[x]"
		}
		fmt.Fprintf(w, "%s %3d  %s%s\n", mark, b.Index, b.TypeCode, b.BaseCode)

		keys := make([]string, 0, len(b.NewAnswers))
		for k := range b.NewAnswers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			label := k
			if label == "" {
				label = "-"
			}
			if b.TargetQuestionIDs[k] == nil {
				red.Fprintf(w, "        %s: %s (no matching question)\n", label, b.NewAnswers[k])
				continue
			}
			fmt.Fprintf(w, "        %s: %s → %s\n", label, orDash(b.CurrentAnswers[k]), b.NewAnswers[k])
		}
		if err := staging.Validate(b); err != nil {
			yellow.Fprintf(w, "        ⚠ %s\n", err)
		}
	}
	s := r.Summary()
	printStatus(w, "Included", "%d of %d", s.Included, s.Total)
	printStatus(w, "Unmatched", "%d (%d selected)", s.Invalid, s.SelectedInvalid)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"qbank-admin/pkg/client"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Browse the file archive",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived documents of a subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := fileQueryFromFlags(cmd)
		if err != nil {
			return err
		}
		ws := newWorkspace(cmd)
		return listFiles(cmd.Context(), ws, cmd.OutOrStdout(), q)
	},
}

var questionsImageCmd = &cobra.Command{
	Use:   "image <session-id> <index>",
	Short: "Download a staged image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("index must be a number: %w", err)
		}
		output, _ := cmd.Flags().GetString("output")

		ws := newWorkspace(cmd)
		data, contentType, err := ws.client.FetchImage(cmd.Context(), args[0], index)
		if err != nil {
			return err
		}
		if output == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return err
		}
		printSuccess(cmd.ErrOrStderr(), "Saved %s (%s, %d bytes)", output, contentType, len(data))
		return nil
	},
}

func init() {
	filesListCmd.Flags().Int64("subject", 0, "subject id")
	filesListCmd.Flags().Int("page", 1, "page number")
	filesListCmd.Flags().Int("size", 20, "page size")
	filesListCmd.Flags().String("name", "", "filter by name")
	filesListCmd.Flags().String("mime", "", "filter by mime type")
	filesCmd.AddCommand(filesListCmd)

	questionsImageCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	questionsCmd.AddCommand(questionsImageCmd)
}

func fileQueryFromFlags(cmd *cobra.Command) (client.FileQuery, error) {
	subjectID, _ := cmd.Flags().GetInt64("subject")
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("size")
	name, _ := cmd.Flags().GetString("name")
	mime, _ := cmd.Flags().GetString("mime")
	if subjectID <= 0 {
		return client.FileQuery{}, fmt.Errorf("--subject is required")
	}

	q := client.FileQuery{SubjectID: subjectID, Page: page, Size: size}
	if name != "" {
		q.Filters.Name = &name
	}
	if mime != "" {
		q.Filters.MimeType = &mime
	}
	return q, nil
}

func listFiles(ctx context.Context, ws *workspace, w io.Writer, q client.FileQuery) error {
	cached := ws.client.FilesCached(q)
	page, err := ws.client.ListFiles(ctx, q)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tTYPE\tCREATED")
	for _, f := range page.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", f.Name, f.Size, f.MimeType, f.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	source := "server"
	if cached {
		source = "cache"
	}
	printStatus(w, "Page", "%d (%d of %d files, from %s)", page.Page, len(page.Items), page.Total, source)
	return nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"qbank-admin/pkg/client"
	"qbank-admin/pkg/readcache"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Browse the archive interactively with a shared listing cache",
	Long: `Browse the archive interactively with a shared listing cache.

Commands:
  cd <path>                    move to another area; leaving an area clears the cache
  files <subject> [page] [size] list archived files
  invalidate <subject>         drop cached pages of a subject
  cache                        show the number of cached pages
  exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := newWorkspace(cmd)
		return runShell(cmd.Context(), ws, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runShell(ctx context.Context, ws *workspace, in io.Reader, out io.Writer) error {
	ws.nav.OnAdvance(func(epoch uint64) {
		printStep(out, "entered %s (epoch %d)", ws.nav.Group(), epoch)
	})
	ws.nav.Navigate("/archive/files")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s> ", ws.nav.Group())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			return nil
		}
		if err := shellCommand(ctx, ws, out, fields[0], fields[1:]); err != nil {
			printError(out, "%v", err)
		}
	}
}

func shellCommand(ctx context.Context, ws *workspace, out io.Writer, name string, args []string) error {
	switch name {
	case "cd":
		if len(args) != 1 {
			return fmt.Errorf("usage: cd <path>")
		}
		ws.nav.Navigate(args[0])
		return nil
	case "files":
		if len(args) < 1 || len(args) > 3 {
			return fmt.Errorf("usage: files <subject> [page] [size]")
		}
		nums, err := parseInts(args)
		if err != nil {
			return err
		}
		q := client.FileQuery{SubjectID: int64(nums[0]), Page: 1, Size: 20}
		if len(nums) > 1 {
			q.Page = nums[1]
		}
		if len(nums) > 2 {
			q.Size = nums[2]
		}
		return listFiles(ctx, ws, out, q)
	case "invalidate":
		if len(args) != 1 {
			return fmt.Errorf("usage: invalidate <subject>")
		}
		subjectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("subject must be a number: %w", err)
		}
		n := ws.client.FileCache().Invalidate(readcache.SubjectFragment(subjectID))
		printSuccess(out, "dropped %d cached pages", n)
		return nil
	case "cache":
		printStatus(out, "Cached pages", "%d", ws.client.FileCache().Len())
		return nil
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		out[i] = n
	}
	return out, nil
}

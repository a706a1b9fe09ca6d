package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"qbank-admin/pkg/events"
	pktNats "qbank-admin/pkg/nats"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print import events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		durable, _ := cmd.Flags().GetString("durable")

		sub, err := pktNats.NewSubscriber(natsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		out := cmd.OutOrStdout()
		printStep(out, "Watching %s on %s", pktNats.SubjectPrefix+">", natsURL)
		return sub.Subscribe(cmd.Context(), pktNats.SubjectPrefix+">", durable, func(ctx context.Context, evt events.Event) error {
			fmt.Fprintf(out, "%s  %s  %s\n",
				evt.Timestamp().Format("15:04:05"),
				bold.Sprint(evt.EventType()),
				formatPayload(evt.Payload()),
			)
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().String("nats", envOr("NATS_URL", "nats://localhost:4222"), "NATS server URL (NATS_URL)")
	watchCmd.Flags().String("durable", "qbankctl-watch", "durable consumer name")
}

func formatPayload(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, data[k])
	}
	return strings.Join(parts, " ")
}

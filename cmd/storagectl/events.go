package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/events"
)

func newEventsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect published domain events",
	}
	cmd.AddCommand(newEventsTailCmd(e))
	return cmd
}

func newEventsTailCmd(e *env) *cobra.Command {
	var (
		queue string
		keys  []string
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print import events as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.Events.URL == "" {
				return errors.New("AMQP_URL is not set")
			}
			c, err := events.NewConsumer(e.cfg.Events.URL, e.cfg.Events.Exchange, queue, keys)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			err = c.Consume(cmd.Context(), func(d events.Delivery) error {
				var ev core.ImportEvent
				if err := json.Unmarshal(d.Body, &ev); err != nil {
					fmt.Fprintf(out, "%s %s\n", d.Key, d.Body)
				} else {
					fmt.Fprintf(out, "%s %s user=%s source=%s %s\n",
						ev.FinishedAt.Format("2006-01-02T15:04:05Z"), d.Key, ev.UserID, ev.Source, ev.Message())
				}
				return d.Ack()
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "Durable queue to read from (default: a temporary queue)")
	cmd.Flags().StringSliceVar(&keys, "key", []string{"import.*"}, "Routing keys to bind")
	return cmd
}

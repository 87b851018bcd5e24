/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"

	"github.com/motorpool/apiserver/config"
	"github.com/motorpool/apiserver/internal/logging"
	"github.com/motorpool/apiserver/internal/mq"
	"github.com/motorpool/apiserver/types"
	"github.com/spf13/cobra"
)

// eventsCmd groups account event tooling.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect account events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log account events from the configured queue until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg.Log)

		queue, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		defer queue.Close()

		log.Info(cmd.Context(), "watching account events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.Channel)
		events := mq.NewAccountEvents(queue, cfg.MQ.Channel)
		err = events.Consume(cmd.Context(), func(ctx context.Context, e types.AccountEvent) error {
			log.Info(ctx, "account event",
				"type", e.Type,
				"user_id", e.UserID,
				"email", e.Email,
				"role", e.Role,
				"occurred_at", e.OccurredAt,
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}

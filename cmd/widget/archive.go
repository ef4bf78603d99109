package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/ai-widget/internal/db"
	"github.com/suPer8Hu/ai-widget/internal/events"
	"github.com/suPer8Hu/ai-widget/internal/store/gormstore"
	"github.com/suPer8Hu/ai-widget/internal/store/rabbitmq"
)

func newArchiveCmd(a *app) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Consume turn events from RabbitMQ into the SQL turn archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			gdb, err := db.Connect(a.cfg.DBDSN)
			if err != nil {
				return err
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}
			archive := gormstore.NewArchive(gdb)
			if err := archive.Migrate(ctx); err != nil {
				return err
			}

			consumer, err := rabbitmq.NewConsumer(a.cfg.RabbitURL, a.cfg.RabbitQueue, concurrency, a.logger)
			if err != nil {
				return errors.Wrap(err, "rabbit consumer")
			}
			defer consumer.Close()

			return consumer.Run(ctx, func(ctx context.Context, ev events.TurnEvent) error {
				return archive.Record(ctx, ev)
			})
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of archive workers (max 50)")
	return cmd
}

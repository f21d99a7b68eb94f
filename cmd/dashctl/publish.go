package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"platinum/internal/amqp"
	"platinum/internal/config"
	"platinum/internal/core"
)

var (
	flagDepositDate string
	flagDepositID   string
)

var publishDepositCmd = &cobra.Command{
	Use:   "publish-deposit AMOUNT",
	Short: "Publish one deposit event to the broker",
	Long: `Publishes a deposit message on AMQP_EXCHANGE with the deposit queue as
routing key, the same message the upstream system sends. The deposit worker
stores it in the SQLite warehouse.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublishDeposit,
}

func init() {
	publishDepositCmd.Flags().StringVar(&flagDepositDate, "date", "", "deposit date YYYY-MM-DD (default today in TIMEZONE)")
	publishDepositCmd.Flags().StringVar(&flagDepositID, "id", "", "deposit id (default a random UUID)")
	rootCmd.AddCommand(publishDepositCmd)
}

func runPublishDeposit(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is not set")
	}

	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil || amount < 0 {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	date, err := depositDate(cfg)
	if err != nil {
		return err
	}
	id := flagDepositID
	if id == "" {
		id = uuid.NewString()
	}

	msg := amqp.NewDepositMessage(id, date, amount)
	if _, err := msg.ToEvent(); err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPDepositQueue, commandLogger(cfg))
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Close()

	if err := client.PublishDeposit(cmd.Context(), msg); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), valueStyle.Render(fmt.Sprintf("published %s: %s on %s",
		id, core.FormatCurrency(amount), core.FormatDate(date))))
	return nil
}

func depositDate(cfg *config.Config) (core.Date, error) {
	if flagDepositDate != "" {
		d, err := core.ParseDate(flagDepositDate)
		if err != nil {
			return core.Date{}, fmt.Errorf("invalid --date %q: %w", flagDepositDate, err)
		}
		return d, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return core.Date{}, fmt.Errorf("timezone: %w", err)
	}
	return core.Today(time.Now(), loc), nil
}

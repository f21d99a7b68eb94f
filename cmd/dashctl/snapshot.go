package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"platinum/internal/backend"
	"platinum/internal/config"
	"platinum/internal/core"
	"platinum/internal/refresh"
)

var (
	flagBackend string
	flagPerRow  int
	flagTimeout time.Duration
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run one refresh cycle and print the KPI cards",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&flagBackend, "backend", "", "override DATA_BACKEND (bigquery, sheets, sqlite, memory)")
	snapshotCmd.Flags().IntVar(&flagPerRow, "per-row", 3, "cards per row")
	snapshotCmd.Flags().DurationVar(&flagTimeout, "timeout", time.Minute, "refresh deadline")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	logger := commandLogger(cfg)

	params, err := cfg.Params()
	if err != nil {
		return err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.DataBackend, err)
	}
	defer res.Close()

	svc := refresh.NewService(res.Backend, params, refresh.Options{
		CacheTTL: cfg.QueryCacheTTL,
		Logger:   logger,
	})
	d, err := svc.Refresh(ctx, refresh.Request{Token: svc.Token(), User: "dashctl", Now: time.Now()})
	if errors.Is(err, refresh.ErrNoTargets) {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("Targets table is empty, nothing to show."))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSnapshot(d, svc.Tables().Backend))
	return nil
}

func renderSnapshot(d core.Dashboard, backendName string) string {
	k := d.KPIs
	cards := []card{
		{label: "Depósitos", value: core.FormatInt(float64(k.TotalDepositCount))},
		{label: "Valor depositado", value: core.FormatCurrency(k.TotalDepositValue)},
		{label: "% da meta", value: core.FormatPercent(k.PercentOfGoal),
			note: core.FormatShort(k.CurrentRealized) + " de " + core.FormatShort(d.Params.MetaMax)},
		{label: "Depósito de hoje", value: core.FormatCurrency(k.TodayDeposit)},
		{label: "Meta de hoje", value: core.FormatCurrency(k.TodayDailyTarget)},
		{label: "% da meta diária", value: core.FormatPercent(k.PercentOfDailyTarget)},
	}

	out := titleStyle.Render("Platinum · "+core.FormatDate(k.Today)) + "\n" + renderGrid(cards, flagPerRow)
	footer := fmt.Sprintf("fonte: %s · %d dias", backendName, d.Series.Len())
	out += "\n" + mutedStyle.Render(footer)
	if dropped := d.DroppedTargetRows + d.DroppedDepositRows; dropped > 0 {
		out += "\n" + warnStyle.Render(fmt.Sprintf("%d linhas ignoradas por data inválida", dropped))
	}
	return out
}

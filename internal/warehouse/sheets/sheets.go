// Package sheets reads targets and raw deposit events from a Google
// Spreadsheet, for teams that keep the goal curve in a sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"platinum/internal/core"
	applog "platinum/internal/log"
	"platinum/internal/warehouse"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Options struct {
	SpreadsheetID   string
	TargetsSheet    string
	DepositsSheet   string
	CredentialsJSON []byte

	// Endpoint and HTTPClient override the API transport for tests.
	Endpoint   string
	HTTPClient *http.Client
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	targetsSheet  string
	depositsSheet string
	logger        *applog.Logger
}

var _ warehouse.Warehouse = (*Client)(nil)

func New(ctx context.Context, opts Options, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentWarehouse)

	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsReadonlyScope)}
	switch {
	case opts.HTTPClient != nil && opts.Endpoint != "":
		clientOpts = append(clientOpts,
			goption.WithHTTPClient(opts.HTTPClient),
			goption.WithEndpoint(opts.Endpoint),
			goption.WithoutAuthentication())
	case len(opts.CredentialsJSON) > 0:
		logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
			"credentials_size", len(opts.CredentialsJSON))
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(opts.CredentialsJSON))
	default:
		return nil, warehouse.ErrNoCredentials
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		targetsSheet:  opts.TargetsSheet,
		depositsSheet: opts.DepositsSheet,
		logger:        logger,
	}, nil
}

func (c *Client) Tables() warehouse.Tables {
	return warehouse.Tables{Backend: "sheets", Targets: c.targetsSheet, Deposits: c.depositsSheet}
}

func (c *Client) ReadTargets(ctx context.Context) ([]core.RawTargetRow, error) {
	values, err := c.readRange(ctx, c.targetsSheet, "A:C")
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return parseTargets(values), nil
}

func (c *Client) ReadDeposits(ctx context.Context) ([]core.RawDepositRow, error) {
	values, err := c.readRange(ctx, c.depositsSheet, "A:B")
	if err != nil {
		return nil, fmt.Errorf("read deposits: %w", err)
	}
	rows := aggregateDeposits(values)
	c.logger.DebugContext(ctx, "Deposit events aggregated",
		applog.FieldTable, c.depositsSheet, "events", len(values), applog.FieldRows, len(rows))
	return rows, nil
}

func (c *Client) readRange(ctx context.Context, sheet, cols string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

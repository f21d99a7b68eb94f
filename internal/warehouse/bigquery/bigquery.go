// Package bigquery reads the goal curve and the daily deposit aggregates
// from BigQuery through the REST API.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"platinum/internal/core"
	applog "platinum/internal/log"
	"platinum/internal/warehouse"

	bq "google.golang.org/api/bigquery/v2"
	goption "google.golang.org/api/option"
)

const (
	targetsQuery  = "SELECT data_meta, Meta_Diaria, Meta_Acumulada FROM `%s` ORDER BY data_meta"
	depositsQuery = "SELECT data_deposito AS dt_local, COUNT(*) AS qtd_dep, SUM(deposito) AS total_deposito FROM `%s` WHERE data_deposito IS NOT NULL GROUP BY dt_local ORDER BY dt_local"

	// maxPages bounds a single result fetch.
	maxPages = 1000
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// Options configures a Client.
type Options struct {
	ProjectID     string
	Dataset       string
	TargetsTable  string
	DepositsTable string
	Location      string
	Timeout       time.Duration

	// CredentialsJSON is a service account key. Empty uses application
	// default credentials.
	CredentialsJSON []byte

	// Endpoint and HTTPClient override the API transport. Both set means no
	// authentication is attempted.
	Endpoint   string
	HTTPClient *http.Client
}

type Client struct {
	svc      *bq.Service
	project  string
	location string
	timeout  time.Duration
	targets  string
	deposits string
	logger   *applog.Logger
}

var _ warehouse.Warehouse = (*Client)(nil)

func New(ctx context.Context, opts Options, logger *applog.Logger) (*Client, error) {
	for _, id := range []string{opts.ProjectID, opts.Dataset, opts.TargetsTable, opts.DepositsTable} {
		if !identPattern.MatchString(id) {
			return nil, fmt.Errorf("invalid BigQuery identifier %q", id)
		}
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentWarehouse)

	clientOpts := []goption.ClientOption{goption.WithScopes(bq.BigqueryScope)}
	switch {
	case opts.HTTPClient != nil && opts.Endpoint != "":
		clientOpts = append(clientOpts,
			goption.WithHTTPClient(opts.HTTPClient),
			goption.WithEndpoint(opts.Endpoint),
			goption.WithoutAuthentication())
	case len(opts.CredentialsJSON) > 0:
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(opts.CredentialsJSON))
	default:
		logger.InfoContext(ctx, "No service account configured, using application default credentials")
	}

	svc, err := bq.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery service: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		svc:      svc,
		project:  opts.ProjectID,
		location: opts.Location,
		timeout:  timeout,
		targets:  fmt.Sprintf("%s.%s.%s", opts.ProjectID, opts.Dataset, opts.TargetsTable),
		deposits: fmt.Sprintf("%s.%s.%s", opts.ProjectID, opts.Dataset, opts.DepositsTable),
		logger:   logger,
	}, nil
}

func (c *Client) Tables() warehouse.Tables {
	return warehouse.Tables{Backend: "bigquery", Targets: c.targets, Deposits: c.deposits}
}

func (c *Client) ReadTargets(ctx context.Context) ([]core.RawTargetRow, error) {
	rows, err := c.query(ctx, fmt.Sprintf(targetsQuery, c.targets))
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	out := parseTargetRows(rows)
	c.logger.DebugContext(ctx, "Targets read", applog.FieldTable, c.targets, applog.FieldRows, len(out))
	return out, nil
}

func (c *Client) ReadDeposits(ctx context.Context) ([]core.RawDepositRow, error) {
	rows, err := c.query(ctx, fmt.Sprintf(depositsQuery, c.deposits))
	if err != nil {
		return nil, fmt.Errorf("read deposits: %w", err)
	}
	out := parseDepositRows(rows)
	c.logger.DebugContext(ctx, "Deposits read", applog.FieldTable, c.deposits, applog.FieldRows, len(out))
	return out, nil
}

// query runs a standard SQL statement and collects every result page.
func (c *Client) query(ctx context.Context, sql string) ([]*bq.TableRow, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	legacy := false
	req := &bq.QueryRequest{
		Query:        sql,
		UseLegacySql: &legacy,
		TimeoutMs:    c.timeout.Milliseconds(),
		Location:     c.location,
	}
	resp, err := c.svc.Jobs.Query(c.project, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	rows := resp.Rows
	complete, token := resp.JobComplete, resp.PageToken
	if complete && token == "" {
		return rows, nil
	}
	if resp.JobReference == nil || resp.JobReference.JobId == "" {
		return nil, errors.New("query response missing job reference")
	}
	jobID := resp.JobReference.JobId
	location := resp.JobReference.Location
	if location == "" {
		location = c.location
	}

	for page := 0; !complete || token != ""; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("job %s: more than %d result pages", jobID, maxPages)
		}
		call := c.svc.Jobs.GetQueryResults(c.project, jobID).TimeoutMs(c.timeout.Milliseconds())
		if location != "" {
			call = call.Location(location)
		}
		if token != "" {
			call = call.PageToken(token)
		}
		res, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("fetch results of job %s: %w", jobID, err)
		}
		if res.JobComplete {
			rows = append(rows, res.Rows...)
		}
		complete, token = res.JobComplete, res.PageToken
	}
	return rows, nil
}

// Package memory is an in-process warehouse seeded from CSV fixtures. It
// backs local development and tests.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"platinum/internal/core"
	"platinum/internal/warehouse"
)

const (
	TargetsFile  = "targets.csv"
	DepositsFile = "deposits.csv"
)

type Store struct {
	mu       sync.Mutex
	targets  []core.RawTargetRow
	deposits map[string]*core.RawDepositRow
	seen     map[string]struct{}
}

var (
	_ warehouse.Warehouse     = (*Store)(nil)
	_ warehouse.DepositWriter = (*Store)(nil)
)

func New(targets []core.RawTargetRow, deposits []core.RawDepositRow) *Store {
	s := &Store{
		targets:  append([]core.RawTargetRow(nil), targets...),
		deposits: make(map[string]*core.RawDepositRow, len(deposits)),
		seen:     make(map[string]struct{}),
	}
	for _, d := range deposits {
		s.addAggregate(d)
	}
	return s
}

// NewFromFiles loads targets.csv and deposits.csv from dir. A missing file
// yields an empty table.
//
// targets.csv columns: data_meta, Meta_Diaria, Meta_Acumulada
// deposits.csv columns: data_deposito, qtd_dep, total_deposito
func NewFromFiles(dir string) (*Store, error) {
	targetRecs, err := readCSV(filepath.Join(dir, TargetsFile))
	if err != nil {
		return nil, err
	}
	depositRecs, err := readCSV(filepath.Join(dir, DepositsFile))
	if err != nil {
		return nil, err
	}

	var targets []core.RawTargetRow
	cols := columns(targetRecs, []string{"data_meta", "date"}, []string{"meta_diaria", "daily"}, []string{"meta_acumulada", "cumulative"})
	for _, rec := range body(targetRecs, cols) {
		targets = append(targets, core.RawTargetRow{
			Date:       field(rec, cols.idx[0]),
			Daily:      core.ParseNumber(field(rec, cols.idx[1])),
			Cumulative: core.ParseNumber(field(rec, cols.idx[2])),
		})
	}

	var deposits []core.RawDepositRow
	cols = columns(depositRecs, []string{"data_deposito", "dt_local", "date"}, []string{"qtd_dep", "count"}, []string{"total_deposito", "sum"})
	for _, rec := range body(depositRecs, cols) {
		deposits = append(deposits, core.RawDepositRow{
			Date:  field(rec, cols.idx[0]),
			Count: core.ParseCount(field(rec, cols.idx[1])),
			Sum:   core.ParseNumber(field(rec, cols.idx[2])),
		})
	}
	return New(targets, deposits), nil
}

func (s *Store) Tables() warehouse.Tables {
	return warehouse.Tables{Backend: "memory", Targets: TargetsFile, Deposits: DepositsFile}
}

func (s *Store) ReadTargets(_ context.Context) ([]core.RawTargetRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RawTargetRow(nil), s.targets...), nil
}

func (s *Store) ReadDeposits(_ context.Context) ([]core.RawDepositRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RawDepositRow, 0, len(s.deposits))
	for _, d := range s.deposits {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// SetTargets replaces the goal curve.
func (s *Store) SetTargets(rows []core.RawTargetRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append([]core.RawTargetRow(nil), rows...)
}

// InsertDeposit adds one event to its day's aggregate. Replayed IDs are
// ignored.
func (s *Store) InsertDeposit(_ context.Context, e warehouse.DepositEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[e.ID]; dup {
		return nil
	}
	s.seen[e.ID] = struct{}{}
	s.addAggregate(core.RawDepositRow{Date: e.Date.String(), Count: 1, Sum: core.Some(e.Amount)})
	return nil
}

func (s *Store) addAggregate(d core.RawDepositRow) {
	key := d.Date
	if parsed, err := core.ParseDate(d.Date); err == nil {
		key = parsed.String()
	}
	agg, ok := s.deposits[key]
	if !ok {
		agg = &core.RawDepositRow{Date: key}
		s.deposits[key] = agg
	}
	agg.Count += d.Count
	if d.Sum.Valid {
		agg.Sum = core.Some(agg.Sum.Or(0) + d.Sum.Value)
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out = append(out, rec)
	}
}

type layout struct {
	idx    []int
	header bool
}

func columns(recs [][]string, aliases ...[]string) layout {
	l := layout{idx: make([]int, len(aliases))}
	for i := range l.idx {
		l.idx[i] = i
	}
	if len(recs) == 0 {
		return l
	}
	for i, names := range aliases {
		if j := warehouse.ColumnIndex(recs[0], names...); j >= 0 {
			l.idx[i] = j
			l.header = true
		}
	}
	return l
}

func body(recs [][]string, l layout) [][]string {
	if l.header && len(recs) > 0 {
		return recs[1:]
	}
	return recs
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return warehouse.CellString(rec[i])
}

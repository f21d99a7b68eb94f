// Package warehouse defines the read side of the analytics warehouse the
// dashboard queries and the helpers shared by its adapters.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"platinum/internal/core"
)

// Ports for outbound adapters.
type (
	// TargetReader returns the goal curve rows ordered by date.
	TargetReader interface {
		ReadTargets(ctx context.Context) ([]core.RawTargetRow, error)
	}

	// DepositReader returns one aggregate row per deposit date, ordered by date.
	DepositReader interface {
		ReadDeposits(ctx context.Context) ([]core.RawDepositRow, error)
	}

	// DepositWriter records a single deposit event.
	DepositWriter interface {
		InsertDeposit(ctx context.Context, e DepositEvent) error
	}

	// Warehouse is what the refresh service reads from.
	Warehouse interface {
		TargetReader
		DepositReader
		Tables() Tables
	}
)

// Tables names the backend and the two sources it reads. The names are used
// in cache keys and log fields.
type Tables struct {
	Backend  string
	Targets  string
	Deposits string
}

// DepositEvent is one deposit as produced upstream.
type DepositEvent struct {
	ID         string
	Date       core.Date
	Amount     float64
	ReceivedAt time.Time
}

var (
	ErrInvalidEvent  = errors.New("invalid deposit event")
	ErrNoCredentials = errors.New("missing service account credentials")
)

// Validate checks the fields every writer relies on.
func (e DepositEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidEvent)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEvent)
	}
	if e.Amount < 0 {
		return fmt.Errorf("%w: negative amount %.2f", ErrInvalidEvent, e.Amount)
	}
	return nil
}

// LoadCredentials returns service account JSON from the inline value or the
// file path, inline first. Both empty yields ErrNoCredentials so callers can
// decide whether application default credentials are acceptable.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, ErrNoCredentials
	}
}

// ColumnIndex returns the position of the first header matching any of names,
// ignoring case and surrounding space, or -1.
func ColumnIndex(headers []string, names ...string) int {
	for i, h := range headers {
		h = strings.TrimSpace(h)
		for _, n := range names {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

// CellString renders a raw cell as trimmed text. nil becomes "".
func CellString(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"platinum/internal/core"
	"platinum/internal/warehouse"
)

// DepositMessage is one deposit as published by the upstream system.
type DepositMessage struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDepositMessage(id string, date core.Date, amount float64) *DepositMessage {
	return &DepositMessage{
		ID:        id,
		Date:      date.String(),
		Amount:    amount,
		Timestamp: time.Now(),
	}
}

func (m *DepositMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DepositMessageFromJSON(data []byte) (*DepositMessage, error) {
	var msg DepositMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToEvent converts the message to a validated warehouse event.
func (m *DepositMessage) ToEvent() (warehouse.DepositEvent, error) {
	d, err := core.ParseDate(m.Date)
	if err != nil {
		return warehouse.DepositEvent{}, fmt.Errorf("%w: date %q", warehouse.ErrInvalidEvent, m.Date)
	}
	e := warehouse.DepositEvent{ID: m.ID, Date: d, Amount: m.Amount, ReceivedAt: m.Timestamp}
	if err := e.Validate(); err != nil {
		return warehouse.DepositEvent{}, err
	}
	return e, nil
}

// RefreshCompletedMessage announces a successful dashboard refresh with its
// headline values.
type RefreshCompletedMessage struct {
	Token                uint64    `json:"refresh_token"`
	User                 string    `json:"user"`
	Backend              string    `json:"backend"`
	Today                string    `json:"today"`
	CalendarDays         int       `json:"calendar_days"`
	TotalDepositCount    int64     `json:"total_deposit_count"`
	TotalDepositValue    float64   `json:"total_deposit_value"`
	CurrentRealized      float64   `json:"current_realized"`
	CurrentTarget        float64   `json:"current_target"`
	PercentOfGoal        float64   `json:"percent_of_goal"`
	TodayDeposit         float64   `json:"today_deposit"`
	PercentOfDailyTarget float64   `json:"percent_of_daily_target"`
	Timestamp            time.Time `json:"timestamp"`
}

func NewRefreshCompletedMessage(token uint64, user, backend string, d core.Dashboard, at time.Time) *RefreshCompletedMessage {
	k := d.KPIs
	return &RefreshCompletedMessage{
		Token:                token,
		User:                 user,
		Backend:              backend,
		Today:                k.Today.String(),
		CalendarDays:         d.Series.Len(),
		TotalDepositCount:    k.TotalDepositCount,
		TotalDepositValue:    k.TotalDepositValue,
		CurrentRealized:      k.CurrentRealized,
		CurrentTarget:        k.CurrentTarget,
		PercentOfGoal:        k.PercentOfGoal,
		TodayDeposit:         k.TodayDeposit,
		PercentOfDailyTarget: k.PercentOfDailyTarget,
		Timestamp:            at,
	}
}

func (m *RefreshCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Date is a calendar day without a time component.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID       int64
		UserID   int64
		Date     Date
		Type     TransactionType
		Category string
		Amount   decimal.Decimal
		Notes    string
	}

	Goal struct {
		ID       int64
		UserID   int64
		Name     string
		Target   decimal.Decimal
		Saved    decimal.Decimal
		Deadline Date
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
	}
)

// Categories is the fixed set a transaction may belong to.
var Categories = []string{
	"Salary",
	"Food",
	"Transport",
	"Rent",
	"Utilities",
	"Entertainment",
	"Investment",
	"Miscellaneous",
}

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrEmptyGoalName    = errors.New("goal name cannot be empty")
	ErrNegativeSaved    = errors.New("saved amount cannot be negative")
	ErrTargetNotAbove   = errors.New("target amount must be greater than saved amount")
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
)

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the YYYY-MM label used to bucket monthly series.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseTransactionType accepts the wire spelling case-insensitively, so the
// form values "Income"/"Expense" map onto the stored constants.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Income):
		return Income, nil
	case string(Expense):
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks a transaction before it is persisted. The store performs
// no range checks of its own.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.Type != Income && t.Type != Expense {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if !ValidCategory(t.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a goal before it is persisted. Target must strictly
// exceed the amount already saved.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGoalName
	}
	if g.Saved.IsNegative() {
		return ErrNegativeSaved
	}
	if !g.Target.IsPositive() || g.Target.LessThanOrEqual(g.Saved) {
		return ErrTargetNotAbove
	}
	if g.Deadline.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

package finclient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Thin typed wrappers over the domain CRUD endpoints. Every call rides the
// gateway, so bearer attachment and the 401 policy apply uniformly.

// Account is a money account (checking, savings, credit, ...).
type Account struct {
	ID        uuid.UUID  `json:"id,omitempty"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Balance   float64    `json:"balance"`
	Currency  string     `json:"currency,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Transaction is a single ledger entry against an account.
type Transaction struct {
	ID          uuid.UUID  `json:"id,omitempty"`
	AccountID   uuid.UUID  `json:"account_id"`
	CategoryID  uuid.UUID  `json:"category_id,omitempty"`
	Type        string     `json:"type"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

// Budget caps spending for a category over a period. Derived percentages
// are computed server-side and mirrored here read-only.
type Budget struct {
	ID         uuid.UUID  `json:"id,omitempty"`
	CategoryID uuid.UUID  `json:"category_id"`
	Amount     float64    `json:"amount"`
	Spent      float64    `json:"spent,omitempty"`
	SpentPct   float64    `json:"spent_percentage,omitempty"`
	Period     string     `json:"period,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Category labels transactions and budgets.
type Category struct {
	ID   uuid.UUID `json:"id,omitempty"`
	Name string    `json:"name"`
	Type string    `json:"type,omitempty"`
}

// Investment is a held position.
type Investment struct {
	ID            uuid.UUID  `json:"id,omitempty"`
	Name          string     `json:"name"`
	Symbol        string     `json:"symbol,omitempty"`
	Quantity      float64    `json:"quantity"`
	PurchasePrice float64    `json:"purchase_price"`
	CurrentPrice  float64    `json:"current_price,omitempty"`
	PurchaseDate  *time.Time `json:"purchase_date,omitempty"`
}

// DashboardSummary is the aggregated view computed server-side.
type DashboardSummary struct {
	TotalBalance       float64       `json:"total_balance"`
	MonthlyIncome      float64       `json:"monthly_income"`
	MonthlyExpenses    float64       `json:"monthly_expenses"`
	Budgets            []Budget      `json:"budgets,omitempty"`
	RecentTransactions []Transaction `json:"recent_transactions,omitempty"`
}

// resource is the shared CRUD shape behind each typed service.
type resource[T any] struct {
	client *Client
	path   string
}

func (r resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.client.Get(ctx, r.path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r resource[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	out := new(T)
	if err := r.client.Get(ctx, fmt.Sprintf("%s/%s", r.path, id), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r resource[T]) Create(ctx context.Context, in T) (*T, error) {
	out := new(T)
	if err := r.client.Post(ctx, r.path, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r resource[T]) Update(ctx context.Context, id uuid.UUID, in T) (*T, error) {
	out := new(T)
	if err := r.client.Put(ctx, fmt.Sprintf("%s/%s", r.path, id), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r resource[T]) Delete(ctx context.Context, id uuid.UUID) error {
	return r.client.Delete(ctx, fmt.Sprintf("%s/%s", r.path, id))
}

// AccountsService exposes /accounts.
type AccountsService struct{ resource[Account] }

// TransactionsService exposes /transactions.
type TransactionsService struct{ resource[Transaction] }

// BudgetsService exposes /budgets.
type BudgetsService struct{ resource[Budget] }

// CategoriesService exposes /categories.
type CategoriesService struct{ resource[Category] }

// InvestmentsService exposes /investments.
type InvestmentsService struct{ resource[Investment] }

// Accounts returns the accounts resource.
func (c *Client) Accounts() *AccountsService {
	return &AccountsService{resource[Account]{client: c, path: "/accounts"}}
}

// Transactions returns the transactions resource.
func (c *Client) Transactions() *TransactionsService {
	return &TransactionsService{resource[Transaction]{client: c, path: "/transactions"}}
}

// Budgets returns the budgets resource.
func (c *Client) Budgets() *BudgetsService {
	return &BudgetsService{resource[Budget]{client: c, path: "/budgets"}}
}

// Categories returns the categories resource.
func (c *Client) Categories() *CategoriesService {
	return &CategoriesService{resource[Category]{client: c, path: "/categories"}}
}

// Investments returns the investments resource.
func (c *Client) Investments() *InvestmentsService {
	return &InvestmentsService{resource[Investment]{client: c, path: "/investments"}}
}

// Dashboard fetches the aggregated summary.
func (c *Client) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	out := &DashboardSummary{}
	if err := c.Get(ctx, "/dashboard", out); err != nil {
		return nil, err
	}
	return out, nil
}

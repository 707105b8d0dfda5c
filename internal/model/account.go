package model

// AccountType classifies the payment accounts a settlement can draw from.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCash     AccountType = "cash"
	AccountTypeCard     AccountType = "card"
)

// Account is a payment account configured in debtbook.yaml.
type Account struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Type        AccountType `yaml:"type"`
	Description string      `yaml:"description,omitempty"`
}

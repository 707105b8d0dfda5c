package accounts

import "github.com/cleared-dev/debtbook/internal/model"

// DefaultAccounts returns the accounts written by init.
func DefaultAccounts() []model.Account {
	return []model.Account{
		{ID: "cash", Name: "Cash", Type: model.AccountTypeCash},
		{ID: "checking", Name: "Checking", Type: model.AccountTypeChecking, Description: "Primary checking account"},
	}
}

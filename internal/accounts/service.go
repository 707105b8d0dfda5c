package accounts

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/debtbook/internal/model"
)

// Service provides in-memory lookup over the configured payment accounts.
type Service struct {
	accounts []model.Account
	byID     map[string]model.Account
}

// NewService creates a Service from a slice of accounts. Later duplicates
// of an id shadow earlier ones; use Validate to reject them.
func NewService(accounts []model.Account) *Service {
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// Validate checks that every account has a unique id and a known type.
func Validate(accounts []model.Account) error {
	seen := make(map[string]bool, len(accounts))
	for i, a := range accounts {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("account %d: id is required", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("account %q: duplicate id", a.ID)
		}
		seen[a.ID] = true

		switch a.Type {
		case model.AccountTypeChecking, model.AccountTypeSavings, model.AccountTypeCash, model.AccountTypeCard:
		default:
			return fmt.Errorf("account %q: unknown type %q", a.ID, a.Type)
		}
	}
	return nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

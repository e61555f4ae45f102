package accounts

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hisabpati/hisab/internal/model"
)

// ErrCycle is returned when walking parents revisits an account.
var ErrCycle = errors.New("account hierarchy contains a cycle")

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byID     map[string]int
}

// NewService creates a Service from a slice of accounts. The slice is copied.
func NewService(accounts []model.Account) *Service {
	s := &Service{
		accounts: make([]model.Account, len(accounts)),
		byID:     make(map[string]int, len(accounts)),
	}
	copy(s.accounts, accounts)
	for i, a := range s.accounts {
		s.byID[a.ID] = i
	}
	return s
}

// All returns all accounts in chart order.
func (s *Service) All() []model.Account {
	out := make([]model.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// ByCode returns the account with the given code.
func (s *Service) ByCode(code string) (model.Account, bool) {
	for _, a := range s.accounts {
		if a.Code == code {
			return a, true
		}
	}
	return model.Account{}, false
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// ByLevel returns all accounts at the given level.
func (s *Service) ByLevel(level model.AccountLevel) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Level == level {
			result = append(result, a)
		}
	}
	return result
}

// ByClassification returns the accounts carrying the given tag.
func (s *Service) ByClassification(c model.Classification) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Classification == c {
			result = append(result, a)
		}
	}
	return result
}

// GroupFor returns the GROUP account carrying the given tag.
func (s *Service) GroupFor(c model.Classification) (model.Account, bool) {
	for _, a := range s.accounts {
		if a.Level == model.LevelGroup && a.Classification == c {
			return a, true
		}
	}
	return model.Account{}, false
}

// MainFor returns the MAIN account of the given type.
func (s *Service) MainFor(t model.AccountType) (model.Account, bool) {
	for _, a := range s.accounts {
		if a.Level == model.LevelMain && a.Type == t {
			return a, true
		}
	}
	return model.Account{}, false
}

// Children returns the direct children of an account.
func (s *Service) Children(id string) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.ParentID == id {
			result = append(result, a)
		}
	}
	return result
}

// Parent returns the parent of an account.
func (s *Service) Parent(id string) (model.Account, bool) {
	a, ok := s.Get(id)
	if !ok || a.ParentID == "" {
		return model.Account{}, false
	}
	return s.Get(a.ParentID)
}

// Ancestors returns the GROUP and MAIN above a GL account. The walk stops
// with ErrCycle instead of looping when the parent links form a cycle.
func (s *Service) Ancestors(id string) (group, main model.Account, err error) {
	seen := map[string]bool{}
	cur, ok := s.Get(id)
	if !ok {
		return group, main, fmt.Errorf("%w: %s", model.ErrAccountNotFound, id)
	}
	for cur.ParentID != "" {
		if seen[cur.ID] {
			return group, main, fmt.Errorf("%w at %s", ErrCycle, cur.ID)
		}
		seen[cur.ID] = true

		parent, ok := s.Get(cur.ParentID)
		if !ok {
			return group, main, fmt.Errorf("parent of %s: %w: %s", cur.ID, model.ErrAccountNotFound, cur.ParentID)
		}
		switch parent.Level {
		case model.LevelGroup:
			group = parent
		case model.LevelMain:
			main = parent
		}
		cur = parent
	}
	return group, main, nil
}

// GLsUnder returns the GL accounts whose group carries the given tag,
// sorted by name.
func (s *Service) GLsUnder(c model.Classification) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Level != model.LevelGL {
			continue
		}
		if parent, ok := s.Get(a.ParentID); ok && parent.Classification == c {
			result = append(result, a)
		}
	}
	sortByName(result)
	return result
}

// InventoryGLs returns the inventory GL accounts sorted by name.
func (s *Service) InventoryGLs() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.IsInventoryGL {
			result = append(result, a)
		}
	}
	sortByName(result)
	return result
}

// ReceivableGLs returns the GLs under the receivables group sorted by name.
func (s *Service) ReceivableGLs() []model.Account {
	return s.GLsUnder(model.ClassReceivable)
}

// PayableGLs returns the GLs under the payables group sorted by name.
func (s *Service) PayableGLs() []model.Account {
	return s.GLsUnder(model.ClassPayable)
}

// SalesRevenueGL returns the GL that sales are credited to by default.
func (s *Service) SalesRevenueGL() (model.Account, error) {
	for _, a := range s.accounts {
		if a.Level == model.LevelGL && a.Classification == model.ClassSalesRevenue {
			return a, nil
		}
	}
	return model.Account{}, &model.ConfigurationError{Err: model.ErrNoRevenueAccount}
}

// COGSFor returns the COGS GL paired with an inventory GL. A pairing that
// exists but is not a COGS GL under an EXPENSE group is reported as
// ErrCOGSMisconfigured.
func (s *Service) COGSFor(inventoryGLID string) (model.Account, error) {
	for _, a := range s.accounts {
		if a.COGSFor != inventoryGLID {
			continue
		}
		if !a.IsCOGSGL || a.Level != model.LevelGL || a.Type != model.AccountTypeExpense {
			return model.Account{}, &model.ConfigurationError{Err: model.ErrCOGSMisconfigured, AccountID: a.ID}
		}
		return a, nil
	}
	return model.Account{}, &model.ConfigurationError{Err: model.ErrNoCOGSMapping, AccountID: inventoryGLID}
}

// NewGL adds a GL account under a GROUP and returns it. The code is the next
// free one in the group's range.
func (s *Service) NewGL(groupID, name string) (model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, errors.New("account name is required")
	}
	grp, ok := s.Get(groupID)
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotFound, groupID)
	}
	if grp.Level != model.LevelGroup {
		return model.Account{}, fmt.Errorf("parent %s is %s, not GROUP", grp.Code, grp.Level)
	}

	code, err := NextGLCode(grp.Code, s.codesUnder(grp.ID))
	if err != nil {
		return model.Account{}, err
	}
	acct := model.Account{
		ID:       AccountID(code),
		Code:     code,
		Name:     name,
		Type:     grp.Type,
		Level:    model.LevelGL,
		ParentID: grp.ID,
	}
	s.add(acct)
	return acct, nil
}

// NewInventoryGL adds an inventory GL under the inventory group together with
// its paired COGS GL under the COGS group.
func (s *Service) NewInventoryGL(name string) (inv, cogs model.Account, err error) {
	invGroup, ok := s.GroupFor(model.ClassInventory)
	if !ok {
		return inv, cogs, &model.ConfigurationError{Err: model.ErrAccountNotFound, AccountID: string(model.ClassInventory)}
	}
	cogsGroup, ok := s.GroupFor(model.ClassCOGS)
	if !ok {
		return inv, cogs, &model.ConfigurationError{Err: model.ErrNoCOGSMapping, AccountID: string(model.ClassCOGS)}
	}

	inv, err = s.NewGL(invGroup.ID, name)
	if err != nil {
		return inv, cogs, fmt.Errorf("creating inventory account: %w", err)
	}
	cogs, err = s.NewGL(cogsGroup.ID, "COGS - "+strings.TrimSpace(name))
	if err != nil {
		s.remove(inv.ID)
		return model.Account{}, model.Account{}, fmt.Errorf("creating COGS account: %w", err)
	}

	s.update(inv.ID, func(a *model.Account) {
		a.IsSystem, a.IsLocked, a.IsInventoryGL = true, true, true
	})
	s.update(cogs.ID, func(a *model.Account) {
		a.IsSystem, a.IsLocked, a.IsCOGSGL = true, true, true
		a.Classification = model.ClassCOGS
		a.COGSFor = inv.ID
	})
	inv, _ = s.Get(inv.ID)
	cogs, _ = s.Get(cogs.ID)
	return inv, cogs, nil
}

// Rename changes an account's name. System-controlled GLs are rejected.
func (s *Service) Rename(id, name string) error {
	a, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrAccountNotFound, id)
	}
	if a.IsSystemControlled() || a.Level != model.LevelGL {
		return fmt.Errorf("renaming %s: %w", a.Code, model.ErrSystemAccount)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("account name is required")
	}
	s.update(id, func(a *model.Account) { a.Name = name })
	return nil
}

func (s *Service) codesUnder(parentID string) []string {
	var codes []string
	for _, a := range s.accounts {
		if a.ParentID == parentID {
			codes = append(codes, a.Code)
		}
	}
	return codes
}

func (s *Service) add(a model.Account) {
	s.byID[a.ID] = len(s.accounts)
	s.accounts = append(s.accounts, a)
}

func (s *Service) update(id string, fn func(*model.Account)) {
	if i, ok := s.byID[id]; ok {
		fn(&s.accounts[i])
	}
}

func (s *Service) remove(id string) {
	i, ok := s.byID[id]
	if !ok {
		return
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	delete(s.byID, id)
	for j := i; j < len(s.accounts); j++ {
		s.byID[s.accounts[j].ID] = j
	}
}

func sortByName(accts []model.Account) {
	sort.SliceStable(accts, func(i, j int) bool {
		return accts[i].Name < accts[j].Name
	})
}

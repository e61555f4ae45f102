package accounts

import (
	"fmt"

	"github.com/hisabpati/hisab/internal/model"
)

// HierarchyError describes one violation of the MAIN -> GROUP -> GL shape.
type HierarchyError struct {
	AccountID   string
	Description string
}

func (e HierarchyError) Error() string {
	return fmt.Sprintf("account %s: %s", e.AccountID, e.Description)
}

// parentLevel is the level an account's parent must have.
var parentLevel = map[model.AccountLevel]model.AccountLevel{
	model.LevelGroup: model.LevelMain,
	model.LevelGL:    model.LevelGroup,
}

// ValidateHierarchy checks every account against the chart's structural rules
// and returns all violations.
func (s *Service) ValidateHierarchy() []error {
	var errs []error
	add := func(id, format string, args ...any) {
		errs = append(errs, HierarchyError{AccountID: id, Description: fmt.Sprintf(format, args...)})
	}

	type key struct{ parent, code string }
	codes := make(map[key]string)

	for _, a := range s.accounts {
		if !a.Type.Valid() {
			add(a.ID, "unknown account type %q", a.Type)
		}

		k := key{a.ParentID, a.Code}
		if other, dup := codes[k]; dup {
			add(a.ID, "code %s already used by %s under the same parent", a.Code, other)
		} else {
			codes[k] = a.ID
		}

		switch a.Level {
		case model.LevelMain:
			if a.ParentID != "" {
				add(a.ID, "MAIN account must not have a parent")
			}
			continue
		case model.LevelGroup, model.LevelGL:
		default:
			add(a.ID, "unknown level %q", a.Level)
			continue
		}

		parent, ok := s.Get(a.ParentID)
		if !ok {
			add(a.ID, "parent %q not found", a.ParentID)
			continue
		}
		if want := parentLevel[a.Level]; parent.Level != want {
			add(a.ID, "%s account has %s parent %s, want %s", a.Level, parent.Level, parent.Code, want)
		}
		if parent.Type != a.Type {
			add(a.ID, "type %s differs from parent %s type %s", a.Type, parent.Code, parent.Type)
		}
		if _, _, err := s.Ancestors(a.ID); err != nil {
			add(a.ID, "%v", err)
		}
	}
	return errs
}

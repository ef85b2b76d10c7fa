package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

// UserNameVar is the template variable holding the logged-in user's full name.
const UserNameVar = "user_name"

var (
	//go:embed template/admin.txt
	adminRaw string

	//go:embed template/general.txt
	generalRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Admin   string
	General string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Admin:   strings.TrimSpace(adminRaw),
		General: strings.TrimSpace(generalRaw),
	}
}

func (p PromptSet) For(role contractx.Role) (string, error) {
	var out string
	switch role {
	case contractx.RoleAdmin:
		out = p.Admin
	case contractx.RoleGeneral:
		out = p.General
	}
	if out == "" {
		return "", fmt.Errorf("%w: role=%q", contractx.ErrPromptMissing, role)
	}
	return out, nil
}

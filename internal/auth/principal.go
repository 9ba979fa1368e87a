package auth

import (
	"github.com/google/uuid"

	"mailforge/internal/model"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	AccountID uuid.UUID
	Role      model.Role
	Account   *model.Account
}

// NewPrincipal builds a principal from a loaded account.
func NewPrincipal(account *model.Account) *Principal {
	return &Principal{
		AccountID: account.ID,
		Role:      account.Role,
		Account:   account,
	}
}

// IsAdmin reports whether the principal holds the admin capability.
func (p *Principal) IsAdmin() bool {
	return p != nil && CanAdminister(p.Role)
}

// CanAdminister is the single place that decides whether a role grants admin access.
func CanAdminister(role model.Role) bool {
	return role == model.RoleAdmin
}

// CanModify reports whether the principal may change a resource owned by ownerID.
func (p *Principal) CanModify(ownerID uuid.UUID) bool {
	if p == nil {
		return false
	}
	return p.AccountID == ownerID || p.IsAdmin()
}

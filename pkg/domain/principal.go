package domain

// Principal is the authenticated actor performing an operation. Services take
// it as an explicit argument; no operation reads an implicit "current user"
// from ambient state.
type Principal struct {
	ID           PrincipalID
	Email        string
	Capabilities []string
}

// HasCapability reports whether the principal was granted the named capability.
func (p Principal) HasCapability(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// IsNil reports whether the principal is unauthenticated.
func (p Principal) IsNil() bool {
	return p.ID.IsNil()
}

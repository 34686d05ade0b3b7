package model

// Identity is the verified caller attached to every core operation.
// The core trusts it as given and never re-checks credentials.
type Identity struct {
	UserID    string
	Role      Role
	ManagerID *string
}

func (i Identity) Valid() bool {
	return i.UserID != "" && i.Role.Valid()
}

package models

// Identity is the application principal behind a session. It is always a
// projection of the Employee row linked through AuthID and is never stored.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

func IdentityFromEmployee(e *Employee) *Identity {
	if e == nil {
		return nil
	}
	return &Identity{
		ID:       e.ID,
		Email:    e.Email,
		FullName: e.FullName,
		Role:     e.Role,
	}
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

func (i *Identity) Is(employeeID string) bool {
	return i != nil && i.ID == employeeID
}

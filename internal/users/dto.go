package users

// CreateUserRequest provisions an account directly, bypassing the invitation
// flow. Tenant id is required only for globally scoped callers; scoped callers
// always create inside their own tenant.
type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=12"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role      string  `json:"role" validate:"required"`
	TenantID  *string `json:"tenant_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateUserRequest carries a partial update; nil fields keep their value.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role      *string `json:"role,omitempty"`
}

// InviteRequest opens an invitation for an email address.
type InviteRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Role     string  `json:"role" validate:"required"`
	TenantID *string `json:"tenant_id,omitempty" validate:"omitempty,uuid"`
}

// AcceptInvitationRequest redeems an invitation token into an account.
type AcceptInvitationRequest struct {
	Token     string  `json:"token" validate:"required"`
	Password  string  `json:"password" validate:"required,min=12"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
}

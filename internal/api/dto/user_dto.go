package dto

// RegisterUserRequest payload for staff provisioning.
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	Division string `json:"division" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=employee manager"`
}

// UsernameResponse is one row of the assignee picker.
type UsernameResponse struct {
	Username string `json:"username"`
}

// NewUsernameResponses maps usernames, never returning nil.
func NewUsernameResponses(usernames []string) []UsernameResponse {
	items := make([]UsernameResponse, 0, len(usernames))
	for _, u := range usernames {
		items = append(items, UsernameResponse{Username: u})
	}
	return items
}

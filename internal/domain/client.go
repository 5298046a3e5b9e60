package domain

// Client is a customer company.
type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Infrastructure groups projects of a client.
type Infrastructure struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"client_id"`
	Name     string `json:"name"`
}

// Project is the unit a ticket is filed against.
type Project struct {
	ID               int64  `json:"id"`
	InfrastructureID int64  `json:"infrastructure_id"`
	Name             string `json:"name"`

	// ClientID and ClientName are resolved through the infrastructure.
	ClientID   int64  `json:"client_id"`
	ClientName string `json:"client_name,omitempty"`
}

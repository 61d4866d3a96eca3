// Package model defines the core domain types for the Radiant client.
package model

import "time"

// Brand strings shown on the landing screen.
const (
	AppName    = "Radiant"
	AppTagline = "A SAJS Social Network"
	AppMotto   = "Meet. Discover. Share"
)

// User is the profile payload returned by the backend on register and login.
// The backend owns its shape; the client only reads the fields below.
type User struct {
	ID       string `json:"_id,omitempty"`
	Username string `json:"username"`
	School   string `json:"school,omitempty"`
	Interest string `json:"interest,omitempty"`
	Token    string `json:"token,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Credentials is the login form payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register form. ConfirmPassword is checked locally and
// never sent to the backend.
type Registration struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	School          string `json:"school"`
	Interest        string `json:"interest"`
}

// Choice is one entry of a picker: the label shown and the value submitted.
type Choice struct {
	Label string
	Value string
}

// Schools lists the schools a user can register under.
var Schools = []Choice{
	{Label: "DPS", Value: "DPS"},
	{Label: "Jaipuria", Value: "Jaipuria"},
	{Label: "Amity", Value: "Amity"},
}

// Interests lists the interests offered on the register form.
var Interests = []Choice{
	{Label: "Gaming", Value: "Gaming"},
	{Label: "Music", Value: "Music"},
	{Label: "Singing", Value: "Singing"},
	{Label: "Sports", Value: "Sports"},
	{Label: "Poetry/Writing", Value: "Writing"},
	{Label: "Tech", Value: "Tech"},
}

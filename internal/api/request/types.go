package request

// CredentialsRequest is the request body for signing up or in
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	Name string `json:"name"`
}

// SetPasswordRequest is the request body for setting a game's join
// password. An empty password lets anyone join.
type SetPasswordRequest struct {
	Password string `json:"password"`
}

// UpdateGameRequest is the request body for changing a game's status
type UpdateGameRequest struct {
	Status string `json:"status"`
}

// AddPlayerRequest is the request body for a host adding a player.
// Photo is base64 in JSON.
type AddPlayerRequest struct {
	Name  string `json:"name"`
	Photo []byte `json:"photo,omitempty"`
}

// JoinRequest is the request body for joining a game
type JoinRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Photo    []byte `json:"photo,omitempty"`
}

// EditPlayerRequest is the request body for editing a player. Every field
// is written.
type EditPlayerRequest struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
	Status string `json:"status"`
	Losses int    `json:"losses"`
}

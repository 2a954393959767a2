package model

import "errors"

// Notification copy shown to hosts and players on every surface
const (
	MsgPlayerAdded     = "Player added successfully"
	MsgPlayerUpdated   = "Player updated successfully"
	MsgPlayerDeleted   = "Player deleted successfully"
	MsgPhotoUploaded   = "Photo uploaded successfully"
	MsgPasswordUpdated = "Game password updated successfully"
	MsgStatusUpdated   = "Game status updated successfully"
	MsgGameCreated     = "Game created successfully"
	MsgJoined          = "Successfully joined the game!"
	MsgJoinedNoPhoto   = "Joined game but failed to upload photo"
	MsgAddedNoPhoto    = "Player added but failed to upload photo"

	MsgIncorrectPassword = "Incorrect password"
	MsgGameNotFound      = "Game not found"
	MsgLoadFailed        = "Failed to load game"
	MsgInvalidNumber     = "Number must be between 1 and 456"
	MsgNameRequired      = "Name is required"
	MsgPlayerNotFound    = "Player not found"
	MsgNotOwner          = "You do not own this game"
	MsgSignInRequired    = "Please sign in to continue"
	MsgSomethingWrong    = "Something went wrong, please try again"
)

// Message maps an error to the notification a user should see. Unknown
// errors get a generic message.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIncorrectPassword):
		return MsgIncorrectPassword
	case errors.Is(err, ErrGameNotFound), errors.Is(err, ErrMissingGameID):
		return MsgGameNotFound
	case errors.Is(err, ErrInvalidPlayerNumber):
		return MsgInvalidNumber
	case errors.Is(err, ErrInvalidPlayerName):
		return MsgNameRequired
	case errors.Is(err, ErrPlayerNotFound):
		return MsgPlayerNotFound
	case errors.Is(err, ErrNotOwner):
		return MsgNotOwner
	case errors.Is(err, ErrUnauthenticated):
		return MsgSignInRequired
	case errors.Is(err, ErrInvalidGameName),
		errors.Is(err, ErrInvalidGameStatus),
		errors.Is(err, ErrInvalidPlayerStatus),
		errors.Is(err, ErrInvalidLosses),
		errors.Is(err, ErrPhotoEmpty),
		errors.Is(err, ErrPhotoNotImage),
		errors.Is(err, ErrPhotoTooLarge):
		return capitalize(err.Error())
	}
	return MsgSomethingWrong
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

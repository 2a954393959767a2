package redis

import (
	"fmt"

	"github.com/mcoot/squidgame/internal/model"
)

// Key prefix for all squidgame data
const keyPrefix = "sqgame"

// hostKey returns the Redis key for a Host
func hostKey(id model.HostID) string {
	return fmt.Sprintf("%s:host:%s", keyPrefix, id)
}

// hostCredentialsKey returns the Redis key for a host's credentials
func hostCredentialsKey(id model.HostID) string {
	return fmt.Sprintf("%s:host_credentials:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> host_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// ownerGamesIndexKey returns the Redis key for the ZSET of a host's games,
// scored by creation time
func ownerGamesIndexKey(owner model.HostID) string {
	return fmt.Sprintf("%s:idx:owner_games:%s", keyPrefix, owner)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// gamePlayersIndexKey returns the Redis key for the ZSET of a game's
// players, scored by badge number
func gamePlayersIndexKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:game_players:%s", keyPrefix, gameID)
}

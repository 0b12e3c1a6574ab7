package domain

import "time"

// MaxAccessLogs bounds how many entries a log listing returns.
const MaxAccessLogs = 100

// AccessLog records an access attempt reported by the game server.
// Entries are append-only and keyed by community name.
type AccessLog struct {
	ID        string    `json:"id" bson:"_id"`
	Community string    `json:"community" bson:"community"`
	Player    string    `json:"player" bson:"player"`
	Action    string    `json:"action" bson:"action"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

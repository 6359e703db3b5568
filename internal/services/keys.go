package services

import "fmt"

// Redis key layout, all scoped per venue. Entry hashes live under a shared
// prefix so the playback scripts can address them by ID.

func priorityLaneKey(venueID string) string {
	return fmt.Sprintf("queue:priority:%s", venueID)
}

func standardLaneKey(venueID string) string {
	return fmt.Sprintf("queue:standard:%s", venueID)
}

func dedupKey(venueID string) string {
	return fmt.Sprintf("dedup:%s", venueID)
}

func entryKeyPrefix(venueID string) string {
	return fmt.Sprintf("entry:%s:", venueID)
}

func entryKey(venueID, entryID string) string {
	return entryKeyPrefix(venueID) + entryID
}

func pointsKey(venueID, tableID string) string {
	return fmt.Sprintf("points:%s:%s", venueID, tableID)
}

func nowPlayingKey(venueID string) string {
	return fmt.Sprintf("nowplaying:%s", venueID)
}

package models

import "encoding/json"

// EventType buckets an event into one of the two UI tabs.
type EventType string

const (
	TypeContest   EventType = "contest"
	TypeHackathon EventType = "hackathon"
)

// Event is the unified record every source parser produces. Id is prefixed
// per source (cf-, lc-, cc-, hr-, dp-, mlh-) and stays stable across fetches
// of the same upstream event, so it doubles as the reminder identity key.
// StartTime/EndTime are absolute UTC instants in epoch milliseconds.
type Event struct {
	Id               string    `json:"id"`
	Name             string    `json:"name"`
	URL              string    `json:"url"`
	StartTime        int64     `json:"startTime"`
	EndTime          int64     `json:"endTime"`
	Duration         int64     `json:"duration"` // EndTime - StartTime, always recomputed
	Platform         string    `json:"platform"`
	Type             EventType `json:"type"`
	TimeUntil        string    `json:"timeUntil"` // advisory, goes stale; recompute at render time
	RegistrationOpen bool      `json:"registrationOpen"`
	Description      string    `json:"description,omitempty"`
}

// CacheEntry is a timestamped value stored under a string key. An entry is
// fresh iff now - Timestamp < the freshness window.
type CacheEntry struct {
	Timestamp int64           `json:"timestamp"` // epoch ms
	Data      json.RawMessage `json:"data"`
}

// ReminderTrigger holds the instant the notification fires.
type ReminderTrigger struct {
	Date string `json:"date"` // ISO-8601
}

// ReminderContent is the notification payload shown to the user.
type ReminderContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Reminder associates an Event with a scheduled local notification.
// At most one live Reminder exists per ContestId.
type Reminder struct {
	Id          string          `json:"id"` // notification handle
	ContestId   string          `json:"contestId"`
	ContestName string          `json:"contestName"`
	Trigger     ReminderTrigger `json:"trigger"`
	Content     ReminderContent `json:"content"`
	CreatedAt   string          `json:"createdAt"` // ISO-8601
}

// Platform describes one upstream contest/hackathon source.
type Platform struct {
	Id    string    `json:"id"`
	Name  string    `json:"name"`
	Url   string    `json:"url"`
	Kind  EventType `json:"kind"`
	Color string    `json:"color"`
}

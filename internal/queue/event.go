// Package queue defines message payloads exchanged over the message broker.
package queue

// AllocationCompletedEvent is published when an allocation run finishes.
// It carries enough information for downstream consumers to log, notify
// attendees, or feed dashboards without querying the primary database.
// Scope is "FULL" for a venue-wide run or the enclosure letter for a
// scoped run.
type AllocationCompletedEvent struct {
    Scope       string `json:"scope"`
    Allocated   int    `json:"allocated"`
    Failed      int    `json:"failed"`
    TriggeredBy string `json:"triggered_by"`
    CompletedAt string `json:"completed_at"`
}

// AllocationsClearedEvent is published when an operator clears
// allocations, wholesale or for one enclosure.
type AllocationsClearedEvent struct {
    Scope       string `json:"scope"`
    Deleted     int64  `json:"deleted"`
    TriggeredBy string `json:"triggered_by"`
    ClearedAt   string `json:"cleared_at"`
}

package models

import "time"

// Snapshot is the numeric state of the dashboard at a point in time,
// persisted by the scheduler.
type Snapshot struct {
	ID             string    `bson:"_id" json:"id"`
	TakenAt        time.Time `bson:"taken_at" json:"taken_at"`
	Branch         string    `bson:"branch" json:"branch"`
	PendingTotal   float64   `bson:"pending_total" json:"pending_total"`
	PendingNotes   int       `bson:"pending_notes" json:"pending_notes"`
	ActiveBranches int       `bson:"active_branches" json:"active_branches"`
	EntryTotal     float64   `bson:"entry_total" json:"entry_total"`
	ExitTotal      float64   `bson:"exit_total" json:"exit_total"`
	Warnings       int       `bson:"warnings" json:"warnings"`
}

// Row flattens the snapshot for spreadsheet publishing.
func (s Snapshot) Row() []interface{} {
	return []interface{}{
		s.TakenAt.Format(time.RFC3339),
		s.Branch,
		s.PendingTotal,
		s.PendingNotes,
		s.ActiveBranches,
		s.EntryTotal,
		s.ExitTotal,
		s.Warnings,
	}
}

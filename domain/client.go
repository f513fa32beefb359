package domain

// Status identifies the swimlane a client currently sits in.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in-progress"
	StatusComplete   Status = "complete"
)

// Statuses lists every lane in board order.
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusComplete}

// Valid reports whether s is a member of the fixed lane set.
func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusInProgress, StatusComplete:
		return true
	}
	return false
}

// Client represents a single board card. Priority is a dense 1-based rank
// within the client's lane; 1 is the top of the lane. Name and Description
// are payload the board logic never touches.
type Client struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	Priority    int    `json:"priority"`
}

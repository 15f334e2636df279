package entity

type Status string

const (
	StatusIdle        Status = "IDLE"
	StatusReconciling Status = "RECONCILING"
	StatusCreating    Status = "CREATING"
	StatusCreated     Status = "CREATED"
	StatusRedirected  Status = "REDIRECTED"
	StatusCompleted   Status = "COMPLETED"
	StatusCancelled   Status = "CANCELLED"
	StatusFailed      Status = "FAILED"
)

var transitions = map[Status][]Status{
	StatusIdle:        {StatusReconciling, StatusFailed},
	StatusReconciling: {StatusCreating, StatusFailed},
	StatusCreating:    {StatusCreated, StatusFailed},
	StatusCreated:     {StatusRedirected, StatusCompleted, StatusCancelled},
	StatusRedirected:  {StatusCompleted, StatusCancelled},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// IsProcessing reports whether a buyer-facing "processing" indicator should
// be shown while the session is in this state.
func (s Status) IsProcessing() bool {
	return s == StatusReconciling || s == StatusCreating
}

func (s Status) String() string {
	return string(s)
}

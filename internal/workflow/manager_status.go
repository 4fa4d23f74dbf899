package workflow

import "time"

// StatusSummary represents lightweight loop diagnostics.
type StatusSummary struct {
	Cycles      int
	Posted      int
	LastOutcome Outcome
	LastPostID  string
	LastError   string
	NextAttempt time.Time
}

// Status returns the latest loop information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) record(res Cycle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Cycles++
	m.status.LastOutcome = res.Outcome
	if res.Outcome == OutcomePosted {
		m.status.Posted++
		m.status.LastPostID = res.PostID
	}
	if res.Err != nil {
		m.status.LastError = res.Err.Error()
	} else {
		m.status.LastError = ""
	}
	if res.Wait > 0 {
		m.status.NextAttempt = time.Now().Add(res.Wait)
	} else {
		m.status.NextAttempt = time.Time{}
	}
}

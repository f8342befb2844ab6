// ABOUTME: TUI update helpers for server
// ABOUTME: Functions to send server state updates to TUI
package server

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	s.clientsMu.RLock()
	subscribers := make([]SubscriberInfo, 0, len(s.clients))
	for _, client := range s.clients {
		subscribers = append(subscribers, SubscriberInfo{
			Name:   client.Name,
			ID:     client.ID,
			Joined: client.Joined,
		})
	}
	s.clientsMu.RUnlock()

	completed, failed := s.engine.Counts()

	s.tui.Update(ServerStatus{
		Name:        s.config.Name,
		Port:        s.config.Port,
		Subscribers: subscribers,
		Jobs:        s.engine.RecentJobs(),
		Completed:   completed,
		Failed:      failed,
	})
}

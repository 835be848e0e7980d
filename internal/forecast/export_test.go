package forecast

import "time"

// SetClock replaces the time source for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

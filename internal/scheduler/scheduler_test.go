package scheduler

import "testing"

func TestAddJobValidatesExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	if err := s.AddJob("0 9 * * *", func() {}); err != nil {
		t.Errorf("AddJob() with valid expression returned error: %v", err)
	}
	if err := s.AddJob("not a cron expr", func() {}); err == nil {
		t.Error("AddJob() with invalid expression should return error")
	}
}

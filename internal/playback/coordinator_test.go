package playback

import "testing"

func TestPlayBindsSingleElement(t *testing.T) {
	c := NewCoordinator()

	c.Play("a", 0)
	if !c.Playing("a") {
		t.Fatal("expected a to be playing")
	}

	// Playing another snippet displaces the first.
	c.Play("b", 0)
	if c.Playing("a") {
		t.Error("a should have been paused by b")
	}
	if !c.Playing("b") {
		t.Error("expected b to be playing")
	}
	if got := c.State().CurrentID; got != "b" {
		t.Errorf("CurrentID = %q", got)
	}
}

func TestAtMostOnePlaying(t *testing.T) {
	c := NewCoordinator()

	// Any sequence of play calls leaves at most one element playing.
	sequence := []string{"a", "b", "a", "c", "c", "b"}
	for _, id := range sequence {
		c.Play(id, 0)

		playing := 0
		for _, candidate := range []string{"a", "b", "c"} {
			if c.Playing(candidate) {
				playing++
			}
		}
		if playing != 1 {
			t.Fatalf("after Play(%q): %d elements playing", id, playing)
		}
	}
}

func TestPlaySeeksToOffset(t *testing.T) {
	c := NewCoordinator()

	c.Play("a", 95)
	if pos, ok := c.Position("a"); !ok || pos != 95 {
		t.Errorf("Position = (%v, %v), want (95, true)", pos, ok)
	}
}

func TestPauseOnlyAffectsBoundElement(t *testing.T) {
	c := NewCoordinator()

	c.Play("a", 0)
	c.Pause("b") // stale event for a different snippet
	if !c.Playing("a") {
		t.Error("pause for another id should not stop a")
	}

	c.Pause("a")
	if c.Playing("a") {
		t.Error("expected a to be paused")
	}
	// Paused but still bound: position capture keeps working.
	if _, ok := c.Position("a"); !ok {
		t.Error("paused element should stay bound")
	}
}

func TestProgressUpdatesPosition(t *testing.T) {
	c := NewCoordinator()

	c.Play("a", 0)
	c.Progress("a", 42.5)
	if pos, _ := c.Position("a"); pos != 42.5 {
		t.Errorf("Position = %v, want 42.5", pos)
	}

	// Progress reports for unbound elements are ignored.
	c.Progress("b", 99)
	if pos, _ := c.Position("a"); pos != 42.5 {
		t.Errorf("stale progress overwrote position: %v", pos)
	}
}

func TestEndedClearsCurrent(t *testing.T) {
	c := NewCoordinator()

	c.Play("a", 10)
	c.Ended("a")

	if c.State().CurrentID != "" {
		t.Error("natural end should clear the bound element")
	}
	if _, ok := c.Position("a"); ok {
		t.Error("position should be gone after ended")
	}

	// Ended for a non-bound element does nothing.
	c.Play("b", 0)
	c.Ended("a")
	if !c.Playing("b") {
		t.Error("stale ended event stopped the wrong element")
	}
}

func TestStopClearsRegardlessOfPlayState(t *testing.T) {
	c := NewCoordinator()

	c.Play("a", 0)
	c.Pause("a")
	c.Stop("a")

	if c.State().CurrentID != "" {
		t.Error("stop should clear a paused element too")
	}
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	c := NewCoordinator()

	events := c.Subscribe()
	defer c.Unsubscribe(events)

	c.Play("a", 5)

	select {
	case state := <-events:
		if state.CurrentID != "a" || !state.IsPlaying || state.Position != 5 {
			t.Errorf("unexpected state event: %+v", state)
		}
	default:
		t.Fatal("expected a state event")
	}
}

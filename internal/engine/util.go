package engine

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// FirstNotice returns the event best suited as the broadcast eventType for a
// batch: the first event that is not a bare turn advance.
func FirstNotice(events []Event) (Event, bool) {
	for _, e := range events {
		if e.Type != EvtTurnAdvanced {
			return e, true
		}
	}
	if len(events) > 0 {
		return events[0], true
	}
	return Event{}, false
}

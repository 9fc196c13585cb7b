package playback

// Session is the feed-wide UI state observed by the controller: the active
// index and the one-shot interaction flag. It belongs to a single feed event
// loop and is not safe for concurrent use.
type Session struct {
	active     int
	hasActive  bool
	interacted bool
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Active() (int, bool) {
	return s.active, s.hasActive
}

func (s *Session) IsActive(index int) bool {
	return s.hasActive && s.active == index
}

func (s *Session) SetActive(index int) bool {
	if s.hasActive && s.active == index {
		return false
	}
	s.active, s.hasActive = index, true
	return true
}

func (s *Session) ClearActive() {
	s.active, s.hasActive = 0, false
}

// MarkInteracted sets the interaction flag. It reports true only the first
// time it is called in a session.
func (s *Session) MarkInteracted() bool {
	if s.interacted {
		return false
	}
	s.interacted = true
	return true
}

func (s *Session) Interacted() bool {
	return s.interacted
}

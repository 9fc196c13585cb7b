package playback

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/menureel/menureel/internal/metrics"
)

// Player is the video surface of one mounted row.
type Player interface {
	Load(url string) error
	SetMuted(muted bool) error
	Play() error
	Pause() error
	Seek(position time.Duration) error
}

type CommandFailedError struct {
	Index   int
	Command CommandKind
	Err     error
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("playback command %s failed for row %d: %v", e.Command, e.Index, e.Err)
}

func (e *CommandFailedError) Unwrap() error {
	return e.Err
}

type row struct {
	player        Player
	state         State
	ready         bool
	wasActive     bool
	wasInteracted bool
	// unsettled is set when a command batch failed. The player may not be
	// in the recorded state until the next evaluation re-issues it.
	unsettled bool
}

// Controller keeps every mounted row's state machine in step with the
// Session. All methods must be called from the feed's event loop.
type Controller struct {
	session *Session
	rows    map[int]*row
	logger  *slog.Logger
}

func NewController(session *Session, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		session: session,
		rows:    make(map[int]*row),
		logger:  logger,
	}
}

func (c *Controller) Session() *Session {
	return c.session
}

func (c *Controller) Mount(index int, p Player) {
	if _, ok := c.rows[index]; ok {
		return
	}
	c.rows[index] = &row{player: p, state: Hidden}
	c.evaluate(index)
}

// Unmount pauses and rewinds the row regardless of its state, then forgets
// it. Anything queued for the row afterwards is dropped.
func (c *Controller) Unmount(index int) {
	r, ok := c.rows[index]
	if !ok {
		return
	}
	c.exec(index, r, Teardown())
	delete(c.rows, index)
}

func (c *Controller) Mounted(index int) bool {
	_, ok := c.rows[index]
	return ok
}

// SetActive moves the active index and re-evaluates all rows.
func (c *Controller) SetActive(index int) {
	if c.session.SetActive(index) {
		c.Sync()
	}
}

func (c *Controller) MarkInteracted() {
	if c.session.MarkInteracted() {
		c.Sync()
	}
}

// Sync re-evaluates every mounted row against the session. Rows that are
// not active go first so the previous row is paused before the new one plays.
func (c *Controller) Sync() {
	active, hasActive := c.session.Active()
	for _, index := range c.sortedIndices() {
		if hasActive && index == active {
			continue
		}
		c.evaluate(index)
	}
	if hasActive {
		c.evaluate(active)
	}
}

// Load points the row's player at a new source. The row is not ready again
// until the player reports it has loaded.
func (c *Controller) Load(index int, url string) {
	r, ok := c.rows[index]
	if !ok {
		return
	}
	r.ready = false
	if r.state == Playing || r.state == Paused {
		r.state = Loading
	}
	c.exec(index, r, []Command{{Kind: CommandLoad, URL: url}})
}

// Ready records that the row's player has loaded its source. Playback only
// starts if the row is still the active index at this point.
func (c *Controller) Ready(index int) {
	r, ok := c.rows[index]
	if !ok {
		return
	}
	r.ready = true
	if r.state == Loading || r.unsettled {
		c.evaluate(index)
	}
}

// Failed records a player error. The row keeps its state and is marked
// unsettled so the next transition re-issues the commands it needs.
func (c *Controller) Failed(index int, err error) {
	r, ok := c.rows[index]
	if !ok {
		return
	}
	r.ready = false
	r.unsettled = true
	c.logger.Warn("playback: player reported error", "index", index, "state", r.state.String(), "error", err)
}

// Tap handles a press on a row. Only the active row responds; the first
// press also counts as the user's interaction gesture.
func (c *Controller) Tap(index int) bool {
	if !c.session.IsActive(index) {
		return false
	}
	r, ok := c.rows[index]
	if !ok {
		return false
	}
	if c.session.MarkInteracted() {
		c.Sync()
		return true
	}
	next, cmds := Toggle(r.state)
	if next == r.state {
		return false
	}
	r.state = next
	r.unsettled = !c.exec(index, r, cmds)
	return true
}

func (c *Controller) State(index int) (State, bool) {
	r, ok := c.rows[index]
	if !ok {
		return Hidden, false
	}
	return r.state, true
}

// Playing returns the row currently in the Playing state, if any.
func (c *Controller) Playing() (int, bool) {
	for index, r := range c.rows {
		if r.state == Playing {
			return index, true
		}
	}
	return 0, false
}

func (c *Controller) evaluate(index int) {
	r := c.rows[index]
	in := Input{
		WasActive:     r.wasActive,
		Active:        c.session.IsActive(index),
		WasInteracted: r.wasInteracted,
		Interacted:    c.session.Interacted(),
		Ready:         r.ready,
	}
	next, cmds := Reduce(r.state, in)
	if next != r.state {
		c.logger.Debug("playback: transition", "index", index, "from", r.state.String(), "to", next.String())
	}
	if len(cmds) == 0 && r.unsettled {
		cmds = Settle(next)
		c.logger.Debug("playback: retrying commands", "index", index, "state", next.String())
	}
	r.state = next
	r.wasActive = in.Active
	r.wasInteracted = in.Interacted
	r.unsettled = !c.exec(index, r, cmds)
}

// exec issues cmds in order and stops at the first failure, since later
// commands in a batch assume the earlier ones took effect.
func (c *Controller) exec(index int, r *row, cmds []Command) bool {
	for _, cmd := range cmds {
		if err := issue(r.player, cmd); err != nil {
			metrics.PlaybackCommandFailures.WithLabelValues(cmd.Kind.String()).Inc()
			c.logger.Warn("playback: command failed", "error", &CommandFailedError{Index: index, Command: cmd.Kind, Err: err})
			return false
		}
	}
	return true
}

func issue(p Player, cmd Command) error {
	switch cmd.Kind {
	case CommandLoad:
		return p.Load(cmd.URL)
	case CommandMute:
		return p.SetMuted(cmd.Muted)
	case CommandPlay:
		return p.Play()
	case CommandPause:
		return p.Pause()
	case CommandSeek:
		return p.Seek(cmd.Position)
	default:
		return fmt.Errorf("unknown command %d", cmd.Kind)
	}
}

func (c *Controller) sortedIndices() []int {
	indices := make([]int, 0, len(c.rows))
	for index := range c.rows {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

package menu

import "context"

type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type LoadState struct {
	Status Status
	Menu   Menu
	Err    error
}

// LoadAsync starts a load in the background. The returned channel yields
// exactly one terminal state and is then closed; until it does, callers
// should treat the load as pending. No retries are attempted.
func (l *Loader) LoadAsync(ctx context.Context) <-chan LoadState {
	ch := make(chan LoadState, 1)
	go func() {
		defer close(ch)
		m, err := l.Load(ctx)
		if err != nil {
			ch <- LoadState{Status: StatusError, Err: err}
			return
		}
		ch <- LoadState{Status: StatusSuccess, Menu: m}
	}()
	return ch
}

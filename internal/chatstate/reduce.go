package chatstate

import "nexus/internal/types"

// Event is a state transition input: the user action together with the
// backend result that completed it.
type Event interface {
	isEvent()
}

type Initialized struct {
	Sessions []*types.ChatSession
	Models   []string
}

type SessionCreated struct {
	Session *types.ChatSession
}

type SessionSelected struct {
	Session *types.ChatSession
}

type SessionDeleted struct {
	ID string
}

type SessionRenamed struct {
	ID    string
	Title string
}

type SendStarted struct {
	SessionID string
}

// SendCompleted carries the authoritative session fetched after a send.
type SendCompleted struct {
	SessionID string
	Session   *types.ChatSession
}

type SendFailed struct {
	SessionID string
}

type ModelSelected struct {
	Model string
}

func (Initialized) isEvent()     {}
func (SessionCreated) isEvent()  {}
func (SessionSelected) isEvent() {}
func (SessionDeleted) isEvent()  {}
func (SessionRenamed) isEvent()  {}
func (SendStarted) isEvent()     {}
func (SendCompleted) isEvent()   {}
func (SendFailed) isEvent()      {}
func (ModelSelected) isEvent()   {}

// Reduce applies ev to state and returns the next version. It never mutates
// the sessions reachable from state.
func Reduce(state State, ev Event) State {
	next := state
	switch ev := ev.(type) {
	case Initialized:
		next.Phase = PhaseLoaded
		next.Sessions = cloneSessions(ev.Sessions)
		next.Models = append([]string{}, ev.Models...)
		next.CurrentSessionID = ""
		if len(next.Sessions) > 0 {
			next.CurrentSessionID = next.Sessions[0].ID.String()
		}
		next.SelectedModel = ""
		if len(next.Models) > 0 {
			next.SelectedModel = next.Models[0]
		}
	case SessionCreated:
		if ev.Session == nil {
			return state
		}
		next.Sessions = prepend(withoutSession(state.Sessions, ev.Session.ID.String()), ev.Session.Clone())
		next.CurrentSessionID = ev.Session.ID.String()
	case SessionSelected:
		if ev.Session == nil {
			return state
		}
		id := ev.Session.ID.String()
		if _, idx := state.Session(id); idx >= 0 {
			next.Sessions = replaceAt(state.Sessions, idx, ev.Session.Clone())
		} else {
			next.Sessions = prepend(state.Sessions, ev.Session.Clone())
		}
		next.CurrentSessionID = id
	case SessionDeleted:
		next.Sessions = withoutSession(state.Sessions, ev.ID)
		if state.CurrentSessionID == ev.ID {
			next.CurrentSessionID = ""
		}
	case SessionRenamed:
		session, idx := state.Session(ev.ID)
		if idx < 0 {
			return state
		}
		renamed := session.Clone()
		renamed.Title = ev.Title
		next.Sessions = replaceAt(state.Sessions, idx, renamed)
	case SendStarted:
		next.Busy = true
	case SendCompleted:
		next.Busy = false
		if ev.Session == nil {
			break
		}
		// The target may have been deleted while the send was in flight.
		if _, idx := state.Session(ev.SessionID); idx >= 0 {
			next.Sessions = replaceAt(state.Sessions, idx, ev.Session.Clone())
		}
	case SendFailed:
		next.Busy = false
	case ModelSelected:
		next.SelectedModel = ev.Model
	default:
		return state
	}
	return next
}

func cloneSessions(in []*types.ChatSession) []*types.ChatSession {
	out := make([]*types.ChatSession, 0, len(in))
	for _, session := range in {
		if session == nil {
			continue
		}
		out = append(out, session.Clone())
	}
	return out
}

func prepend(in []*types.ChatSession, session *types.ChatSession) []*types.ChatSession {
	out := make([]*types.ChatSession, 0, len(in)+1)
	out = append(out, session)
	return append(out, in...)
}

func replaceAt(in []*types.ChatSession, idx int, session *types.ChatSession) []*types.ChatSession {
	out := append([]*types.ChatSession{}, in...)
	out[idx] = session
	return out
}

func withoutSession(in []*types.ChatSession, id string) []*types.ChatSession {
	out := make([]*types.ChatSession, 0, len(in))
	for _, session := range in {
		if session != nil && session.ID.String() == id {
			continue
		}
		out = append(out, session)
	}
	return out
}

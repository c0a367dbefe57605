package chatstate

import "nexus/internal/types"

type Phase string

const (
	PhaseEmpty  Phase = "empty"
	PhaseLoaded Phase = "loaded"
)

// State is one version of the client state. Values handed out by the Store
// are copies; mutating them has no effect on the store.
type State struct {
	Phase            Phase
	Sessions         []*types.ChatSession
	CurrentSessionID string
	Busy             bool
	SelectedModel    string
	Models           []string
}

func NewState() State {
	return State{
		Phase:    PhaseEmpty,
		Sessions: []*types.ChatSession{},
		Models:   []string{},
	}
}

func (s State) Clone() State {
	out := s
	out.Sessions = make([]*types.ChatSession, 0, len(s.Sessions))
	for _, session := range s.Sessions {
		out.Sessions = append(out.Sessions, session.Clone())
	}
	out.Models = append([]string{}, s.Models...)
	return out
}

// Session returns the session with the given id and its index, or nil and -1.
func (s State) Session(id string) (*types.ChatSession, int) {
	if id == "" {
		return nil, -1
	}
	for i, session := range s.Sessions {
		if session != nil && session.ID.String() == id {
			return session, i
		}
	}
	return nil, -1
}

func (s State) Current() *types.ChatSession {
	session, _ := s.Session(s.CurrentSessionID)
	return session
}

func (s State) HasModel(model string) bool {
	for _, m := range s.Models {
		if m == model {
			return true
		}
	}
	return false
}

package types

import "encoding/json"

// ChatSession is a conversation as the backend reports it. The message
// sequence is replaced wholesale on every fetch; the client never patches it.
type ChatSession struct {
	ID        ID             `json:"id"`
	Title     string         `json:"title"`
	Messages  []*ChatMessage `json:"messages"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

func (s *ChatSession) UnmarshalJSON(data []byte) error {
	type wireSession ChatSession
	var wire wireSession
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Messages == nil {
		wire.Messages = []*ChatMessage{}
	}
	*s = ChatSession(wire)
	return nil
}

// Clone returns a deep copy of the session.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]*ChatMessage, 0, len(s.Messages))
	for _, msg := range s.Messages {
		out.Messages = append(out.Messages, msg.Clone())
	}
	return &out
}

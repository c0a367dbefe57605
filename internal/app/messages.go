package app

type storeOp string

const (
	opInitialize storeOp = "load"
	opCreate     storeOp = "create"
	opSelect     storeOp = "select"
	opDelete     storeOp = "delete"
	opRename     storeOp = "rename"
	opSend       storeOp = "send"
)

// storeResultMsg reports that a store operation finished. The new state is
// read from the store snapshot, not carried in the message.
type storeResultMsg struct {
	op    storeOp
	draft string
	err   error
}

package stage

import "fmt"

type State int32

const (
	Unstarted State = iota
	Running
	Draining
	DrainingDownstream
	Terminated
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case DrainingDownstream:
		return "draining-downstream"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

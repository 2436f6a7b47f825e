package projection

// State is a stage of a single invocation. States are entered strictly in
// declaration order.
type State int

const (
	StateInit State = iota
	StateICParallel
	StateJoined
	StateECSequential
	StateISOSequential
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateICParallel:
		return "ic-parallel"
	case StateJoined:
		return "joined"
	case StateECSequential:
		return "ec-sequential"
	case StateISOSequential:
		return "iso-sequential"
	case StateDone:
		return "done"
	}
	return "unknown"
}

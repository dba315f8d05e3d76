package axis

// State is one of the Axis's top-level states. Zero value is Undefined,
// which is both "no request pending" and the task-chain terminator.
type State int

const (
	Undefined State = iota
	Idle
	StartupSequence
	FullCalibrationSequence
	MotorCalibration
	EncoderIndexSearch
	EncoderOffsetCalibration
	Homing
	ClosedLoopControl
	SensorlessControl
)

func (s State) String() string {
	switch s {
	case Undefined:
		return "Undefined"
	case Idle:
		return "Idle"
	case StartupSequence:
		return "StartupSequence"
	case FullCalibrationSequence:
		return "FullCalibrationSequence"
	case MotorCalibration:
		return "MotorCalibration"
	case EncoderIndexSearch:
		return "EncoderIndexSearch"
	case EncoderOffsetCalibration:
		return "EncoderOffsetCalibration"
	case Homing:
		return "Homing"
	case ClosedLoopControl:
		return "ClosedLoopControl"
	case SensorlessControl:
		return "SensorlessControl"
	default:
		return "State(unknown)"
	}
}

// prereqRank orders the states used only for prerequisite validation:
// MotorCalibration < EncoderOffsetCalibration < control states. States
// not given an explicit rank here (Undefined, Idle, the sequence
// requests) default to 0, so they are never stricter than a prerequisite
// and always pass the dispatch prerequisite check.
var prereqRank = map[State]int{
	MotorCalibration:         1,
	EncoderIndexSearch:       2,
	EncoderOffsetCalibration: 2,
	Homing:                   3,
	ClosedLoopControl:        3,
	SensorlessControl:        3,
}

func stricterThan(s, than State) bool {
	return prereqRank[s] > prereqRank[than]
}

// maxTaskChain is the task chain's fixed capacity: at least 10 entries,
// terminated by an Undefined sentinel.
const maxTaskChain = 10

// taskChain is a fixed-capacity, head-indexed deque of pending states. A
// head index is used instead of shifting slice contents on every
// advance, to avoid overlapping-region moves.
type taskChain struct {
	buf  [maxTaskChain]State
	head int
}

// reset clears the chain back to a single Undefined sentinel at index 0.
func (c *taskChain) reset() {
	c.head = 0
	c.buf[0] = Undefined
	for i := 1; i < maxTaskChain; i++ {
		c.buf[i] = Undefined
	}
}

// load populates the chain from position 0 with states, terminated by
// Undefined. len(states) must be < maxTaskChain to leave room for the
// terminator.
func (c *taskChain) load(states []State) {
	c.head = 0
	n := len(states)
	if n > maxTaskChain-1 {
		n = maxTaskChain - 1
	}
	for i := 0; i < n; i++ {
		c.buf[i] = states[i]
	}
	c.buf[n] = Undefined
	for i := n + 1; i < maxTaskChain; i++ {
		c.buf[i] = Undefined
	}
}

// current returns task_chain[0], i.e. the state at the head index.
func (c *taskChain) current() State {
	return c.buf[c.head]
}

// advance shifts the chain left by one, i.e. moves the head index forward,
// stopping at the Undefined terminator so repeated advances past the end
// are idempotent.
func (c *taskChain) advance() {
	if c.buf[c.head] == Undefined {
		return
	}
	if c.head < maxTaskChain-1 {
		c.head++
	}
}

package protocol

// GameState is the room's sealed state enum (§3). It is a closed tagged
// variant — represented as a sum type with per-case data, never subclassed —
// with the tag byte written explicitly as part of the encoding.
type GameState struct {
	tag          byte
	selectChart  int32
	hasChart     bool
}

const (
	StateTagSelectChart byte = 0x00
	StateTagWaitForReady byte = 0x01
	StateTagPlaying      byte = 0x02
)

// NewSelectChart builds a SelectChart state. Pass hasChart=false for a null chart.
func NewSelectChart(chartID int32, hasChart bool) GameState {
	return GameState{tag: StateTagSelectChart, selectChart: chartID, hasChart: hasChart}
}

// NewWaitForReady builds a WaitForReady state.
func NewWaitForReady() GameState {
	return GameState{tag: StateTagWaitForReady}
}

// NewPlaying builds a Playing state.
func NewPlaying() GameState {
	return GameState{tag: StateTagPlaying}
}

func (s GameState) Tag() byte { return s.tag }

func (s GameState) IsSelectChart() bool  { return s.tag == StateTagSelectChart }
func (s GameState) IsWaitForReady() bool { return s.tag == StateTagWaitForReady }
func (s GameState) IsPlaying() bool      { return s.tag == StateTagPlaying }

// ChartID returns the selected chart id and whether one is set. Only
// meaningful when IsSelectChart() is true.
func (s GameState) ChartID() (int32, bool) {
	return s.selectChart, s.hasChart
}

func (s GameState) Equal(other GameState) bool {
	if s.tag != other.tag {
		return false
	}
	if s.tag == StateTagSelectChart {
		return s.hasChart == other.hasChart && (!s.hasChart || s.selectChart == other.selectChart)
	}
	return true
}

// Encode writes the GameState per §6: byte(tag) || [if tag==0x00: bool
// hasChart || if hasChart: i32LE chartId].
func (s GameState) Encode(b *ByteBuf) {
	_ = b.WriteByte(s.tag)
	if s.tag == StateTagSelectChart {
		b.WriteBool(s.hasChart)
		if s.hasChart {
			b.WriteInt32LE(s.selectChart)
		}
	}
}

// DecodeGameState reads a GameState encoded per Encode.
func DecodeGameState(b *ByteBuf) (GameState, error) {
	tag, err := b.ReadByte()
	if err != nil {
		return GameState{}, err
	}
	switch tag {
	case StateTagSelectChart:
		has, err := b.ReadBool()
		if err != nil {
			return GameState{}, err
		}
		if !has {
			return NewSelectChart(0, false), nil
		}
		id, err := b.ReadInt32LE()
		if err != nil {
			return GameState{}, err
		}
		return NewSelectChart(id, true), nil
	case StateTagWaitForReady:
		return NewWaitForReady(), nil
	case StateTagPlaying:
		return NewPlaying(), nil
	default:
		return GameState{}, newCodecError(ReasonMalformed, "unknown GameState tag")
	}
}

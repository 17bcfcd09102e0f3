package verify

// ChunkCommand drives each Worker's state machine (spec §4.8), mirroring
// ckb_script::ChunkCommand.
type ChunkCommand int

const (
	Resume ChunkCommand = iota
	Suspend
	Stop
)

func (c ChunkCommand) String() string {
	switch c {
	case Resume:
		return "Resume"
	case Suspend:
		return "Suspend"
	case Stop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// pauseAdapter lets a Verifier implementation cooperatively poll a worker's
// current command without depending on the verify package's ChunkCommand
// type (see snapshot.PauseSignal).
type pauseAdapter struct {
	watch *Watch[ChunkCommand]
}

func (p pauseAdapter) Suspended() bool { return p.watch.Value() == Suspend }
func (p pauseAdapter) Stopped() bool   { return p.watch.Value() == Stop }

package ingest

// State is a phase of one ingestion run.
type State int

const (
	Idle State = iota
	FetchingRoot
	PublishingRoot
	ResolvingChildren
	FanningOutChildren
	Disconnecting
	Succeeded
	Failed
)

var stateNames = [...]string{
	Idle:               "Idle",
	FetchingRoot:       "FetchingRoot",
	PublishingRoot:     "PublishingRoot",
	ResolvingChildren:  "ResolvingChildren",
	FanningOutChildren: "FanningOutChildren",
	Disconnecting:      "Disconnecting",
	Succeeded:          "Succeeded",
	Failed:             "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

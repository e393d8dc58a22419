package teamcity

// State is the lifecycle state TeamCity reports for a build.
type State string

const (
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateFinished State = "finished"
)

// Terminal reports whether no further status changes can follow.
func (s State) Terminal() bool {
	return s == StateFinished
}

// Well-known values of Build.Status.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// BuildRequest identifies the build to watch. It is derived once from the build page URL.
type BuildRequest struct {
	APIURL  string
	BuildID uint64
}

// Build is one observation of a TeamCity build.
type Build struct {
	Status             string       `json:"status"`
	State              State        `json:"state"`
	PercentageComplete *int         `json:"percentageComplete,omitempty"`
	WebURL             string       `json:"webUrl"`
	RunningInfo        *RunningInfo `json:"running-info,omitempty"`
}

// RunningInfo is only present while a build is running.
type RunningInfo struct {
	ElapsedSeconds        int64  `json:"elapsedSeconds"`
	EstimatedTotalSeconds int64  `json:"estimatedTotalSeconds"`
	CurrentStageText      string `json:"currentStageText"`
}

// Finished reports whether the build reached its terminal state.
func (b Build) Finished() bool {
	return b.State.Terminal()
}

package jobs

// Results use a two-state encoding: the field is absent until a worker has
// processed the job, then carries either an ok value or an error string.

// IDResult carries a single identifier (or status string) on success.
type IDResult struct {
	OK  *string `json:"ok,omitempty"`
	Err *string `json:"err,omitempty"`
}

// CountResult carries an integer count on success.
type CountResult struct {
	OK  *int64  `json:"ok,omitempty"`
	Err *string `json:"err,omitempty"`
}

// IDSetResult carries a list of identifiers on success. OK is a pointer so a
// success with an empty list still serializes as "ok":[] instead of losing
// the marker entirely.
type IDSetResult struct {
	OK  *[]string `json:"ok,omitempty"`
	Err *string   `json:"err,omitempty"`
}

// CompletionState is the outcome of a round completion check.
type CompletionState string

const (
	// CompletionIncomplete means votes are still outstanding.
	CompletionIncomplete CompletionState = "incomplete"
	// CompletionIntermediate means the round closed but the game has more
	// open rounds.
	CompletionIntermediate CompletionState = "intermediate"
	// CompletionFinal means the round closed and the game ended with it.
	CompletionFinal CompletionState = "final"
)

// Completion is the ok value of a CompletionResult. PlacementIDs holds round
// placement ids for the intermediate state and game placement ids for the
// final state.
type Completion struct {
	State        CompletionState `json:"state"`
	PlacementIDs []string        `json:"placement_ids,omitempty"`
}

// CompletionResult carries a Completion on success.
type CompletionResult struct {
	OK  *Completion `json:"ok,omitempty"`
	Err *string     `json:"err,omitempty"`
}

func OKID(id string) *IDResult        { return &IDResult{OK: &id} }
func ErrID(err error) *IDResult       { return &IDResult{Err: errString(err)} }
func OKCount(n int64) *CountResult    { return &CountResult{OK: &n} }
func ErrCount(err error) *CountResult { return &CountResult{Err: errString(err)} }

func OKIDSet(ids []string) *IDSetResult {
	if ids == nil {
		ids = []string{}
	}
	return &IDSetResult{OK: &ids}
}

func ErrIDSet(err error) *IDSetResult { return &IDSetResult{Err: errString(err)} }

func OKCompletion(c Completion) *CompletionResult { return &CompletionResult{OK: &c} }

func ErrCompletion(err error) *CompletionResult {
	return &CompletionResult{Err: errString(err)}
}

func errString(err error) *string {
	msg := err.Error()
	return &msg
}

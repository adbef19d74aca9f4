package domain

// ComputedAuthor is the renderer's single high-confidence author guess,
// resolved inside the page before the DOM is handed over.
type ComputedAuthor struct {
	// Value is the author display string.
	Value string `json:"value"`
	// Source is "link" when the guess came from the author hyperlink,
	// "description" when it was pattern-matched from the description node.
	Source string `json:"source"`
}

// ComputedAuthor source values.
const (
	AuthorSourceLink        = "link"
	AuthorSourceDescription = "description"
)

// RenderedPage is the renderer's output for one navigation: the serialized
// DOM plus the candidate fragments computed in-page. Probe failures leave
// the corresponding fragment empty rather than failing the render.
type RenderedPage struct {
	HTML           string
	StructuredData []map[string]any
	DataAttributes map[string]string
	ComputedAuthor *ComputedAuthor
}

// AttemptOutcome classifies one controller attempt.
type AttemptOutcome string

const (
	// AttemptSuccess: the attempt produced a record passing validation.
	AttemptSuccess AttemptOutcome = "success"
	// AttemptPartial: a record was obtained but failed validation; it is
	// retained for reuse if every later attempt fails.
	AttemptPartial AttemptOutcome = "partial"
	// AttemptFailed: no record was obtained at all.
	AttemptFailed AttemptOutcome = "failed"
)

// RetryAttempt is one iteration of the controller's loop, retained only
// long enough to select the best partial record after exhaustion.
type RetryAttempt struct {
	Index   int
	Outcome AttemptOutcome
	Record  *BookRecord
	Err     error
}

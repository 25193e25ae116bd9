package classifier

type Classification string

const (
	ClassificationMatch Classification = "match"
	ClassificationNone  Classification = "none"
)

const (
	ReasonNoText  = "no text content"
	ReasonNoToken = "listed/spot present, no $-token"
)

type Result struct {
	Classification Classification
	Token          string
	Reason         string
	// Missing lists the trigger words absent from the text, in rule order.
	Missing []string
}

func (r Result) Matched() bool {
	return r.Classification == ClassificationMatch
}

// Classifier decides whether a message text qualifies for relaying.
// Implementations must be pure: the result depends on text alone.
type Classifier interface {
	Classify(text string) Result
}

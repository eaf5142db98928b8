package service

import "fmt"

// QueryState tracks a query through the answering pipeline. Completed and
// Failed are terminal.
type QueryState int

const (
	StateReceived QueryState = iota
	StateEmbeddingQuery
	StateRetrieving
	StateContextFound
	StateContextEmpty
	StateGenerating
	StateStreaming
	StateCompleted
	StateFailed
)

var queryStateNames = map[QueryState]string{
	StateReceived:       "received",
	StateEmbeddingQuery: "embedding_query",
	StateRetrieving:     "retrieving",
	StateContextFound:   "context_found",
	StateContextEmpty:   "context_empty",
	StateGenerating:     "generating",
	StateStreaming:      "streaming",
	StateCompleted:      "completed",
	StateFailed:         "failed",
}

func (s QueryState) String() string {
	if name, ok := queryStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

var queryTransitions = map[QueryState][]QueryState{
	StateReceived:       {StateEmbeddingQuery, StateFailed},
	StateEmbeddingQuery: {StateRetrieving, StateFailed},
	StateRetrieving:     {StateContextFound, StateContextEmpty, StateFailed},
	StateContextFound:   {StateGenerating, StateFailed},
	StateContextEmpty:   {StateGenerating, StateFailed},
	StateGenerating:     {StateStreaming, StateFailed},
	StateStreaming:      {StateCompleted, StateFailed},
}

func canTransition(from, to QueryState) bool {
	for _, next := range queryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// queryProgress guards the pipeline against illegal state jumps.
type queryProgress struct {
	state QueryState
}

func newQueryProgress() *queryProgress {
	return &queryProgress{state: StateReceived}
}

func (p *queryProgress) advance(to QueryState) error {
	if !canTransition(p.state, to) {
		return fmt.Errorf("illegal query state transition %s -> %s", p.state, to)
	}
	p.state = to
	return nil
}

package scan

// Stage names used in rejection reasons and logs.
const (
	stageDedup       = "dedup"
	stageTitle       = "title-filter"
	stageReputation  = "reputation-check"
	stageDescription = "description-filter"
)

type outcome int

const (
	outcomeTracked outcome = iota
	outcomeDuplicate
	outcomeRejected
)

// rejection records where and why a listing left the pipeline. Expected
// outcomes are values, not errors: errors are reserved for infrastructure
// failures (store, unrecoverable fetch).
type rejection struct {
	stage  string
	reason string
}

type listingResult struct {
	outcome   outcome
	rejection rejection
}

func rejected(stage, reason string) listingResult {
	return listingResult{outcome: outcomeRejected, rejection: rejection{stage: stage, reason: reason}}
}

package domain

import "strings"

// Dispositions are an open vocabulary: anything an agent reports is stored
// verbatim. The labels below are the ones the funnel engine recognizes;
// everything else records a disposition without moving the call.
const (
	OutcomeInterested               = "Interested"
	OutcomeInterestedForDemo        = "Interested for Demo"
	OutcomeInterestedForProposal    = "Interested for Proposal"
	OutcomeInterestedForNegotiation = "Interested for Negotiation"
	OutcomeConverted                = "Converted"
	OutcomeNotInterested            = "Not Interested"
)

// RingingGroup is the single tracked outcome group: every "could not reach"
// label shares one attempt counter per call.
const RingingGroup = "ringing_group"

// DefaultNoContactLimit is the attempt budget before a call auto-escalates
// to closure. Uniform across every working stage.
const DefaultNoContactLimit = 6

var noContactOutcomes = map[string]struct{}{
	"Ringing Number":             {},
	"Ringing Number No Response": {},
	"Switchoff":                  {},
	"Number Not a Use":           {},
	"Line Busy":                  {},
}

// IsNoContactOutcome reports whether an outcome belongs to the ringing group.
func IsNoContactOutcome(outcome string) bool {
	_, ok := noContactOutcomes[strings.TrimSpace(outcome)]
	return ok
}

// IsRecognizedOutcome reports whether a label is one the funnel engine acts
// on, either by moving the call or by counting an attempt.
func IsRecognizedOutcome(outcome string) bool {
	trimmed := strings.TrimSpace(outcome)
	if IsNoContactOutcome(trimmed) {
		return true
	}
	switch trimmed {
	case OutcomeInterested, OutcomeInterestedForDemo, OutcomeInterestedForProposal,
		OutcomeInterestedForNegotiation, OutcomeConverted, OutcomeNotInterested:
		return true
	}
	return false
}

// advanceOutcomes maps each working stage to the single label that moves a
// call one step down the funnel.
var advanceOutcomes = map[Stage]map[string]Stage{
	StageFresh:    {OutcomeInterested: StageFollowUp},
	StageFollowUp: {OutcomeInterestedForDemo: StageDemo},
	StageDemo:     {OutcomeInterestedForProposal: StageProposal},
	StageProposal: {OutcomeInterestedForNegotiation: StageNegotiation},
}

// NextStage returns the stage a recognized outcome moves the call to and
// whether a transition applies at all. "Converted" and "Not Interested"
// close from every working stage; "Converted" routes to closure rather than
// the converted stage, preserved as observed pending product clarification.
// Unrecognized labels never move the call.
func NextStage(current Stage, outcome string) (Stage, bool) {
	if _, working := funnelOrder[current]; !working {
		return current, false
	}

	switch strings.TrimSpace(outcome) {
	case OutcomeConverted, OutcomeNotInterested:
		return StageClosure, true
	}

	if next, ok := advanceOutcomes[current][strings.TrimSpace(outcome)]; ok {
		return next, true
	}
	return current, false
}

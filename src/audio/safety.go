package audio

// ----- Feedback Safety ----- //

// loopGainSafe is the standing precondition on the echo loop: the product of
// the send drive and the feedback coefficient is the linear loop gain, and it
// must stay below 1. The loop's tanh shaper keeps a borderline product from
// blowing up outright, but the curves are authored (and tested across the
// whole macro domain) to hold the linear bound on their own.
func loopGainSafe(driveCoefficient float64, feedbackCoefficient float64) bool {
	return driveCoefficient*feedbackCoefficient < 1
}

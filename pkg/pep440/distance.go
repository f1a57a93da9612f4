package pep440

import "math"

// Distance computes a numeric closeness metric between two version
// strings. Release segments are compared pairwise with positional weight
// 10^(position from the right), left-padding the shorter release with
// zeros, so a patch-level difference costs far less than a major-level
// one. Pre-releases are penalized: 0.5 when exactly one side is a
// pre-release, 0.25 plus a small phase/ordinal difference term when both
// are.
//
// The metric is used only to rank candidate versions by closeness to a
// requested-but-unavailable version (lower is closer); it carries no
// compatibility meaning. Unparseable versions are infinitely distant so
// they always rank last.
func Distance(a, b string) float64 {
	va, err := Parse(a)
	if err != nil {
		return math.Inf(1)
	}
	vb, err := Parse(b)
	if err != nil {
		return math.Inf(1)
	}

	maxLen := len(va.Release)
	if len(vb.Release) > maxLen {
		maxLen = len(vb.Release)
	}

	var distance float64
	for i := 0; i < maxLen; i++ {
		var x, y int
		if i < len(va.Release) {
			x = va.Release[i]
		}
		if i < len(vb.Release) {
			y = vb.Release[i]
		}
		weight := math.Pow(10, float64(maxLen-i-1))
		distance += math.Abs(float64(x-y)) * weight
	}

	var penalty float64
	if va.IsPreRelease() || vb.IsPreRelease() {
		// Keep pre-releases close to their final version, but never
		// closer than the final version itself.
		penalty = 0.5

		if va.IsPreRelease() && vb.IsPreRelease() {
			penalty = 0.25
			if va.Pre != "" && vb.Pre != "" {
				phaseDiff := math.Abs(float64(prePhaseRank(va.Pre) - prePhaseRank(vb.Pre)))
				numDiff := math.Abs(float64(va.PreNum - vb.PreNum))
				penalty += (phaseDiff + numDiff*0.1) * 0.25
			}
		}
	}

	return distance + penalty
}

// Nearest returns the candidate with the smallest Distance to target,
// or "" when candidates is empty or none of them parse.
func Nearest(target string, candidates []string) string {
	best := ""
	bestDist := math.Inf(1)
	for _, c := range candidates {
		if d := Distance(c, target); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

package facematch

import "github.com/kozaktomas/face-attendance/internal/database"

// distanceEpsilon keeps exact matches from dividing by zero.
const distanceEpsilon = 1e-6

// Vote picks the employee with the largest inverse-distance weight among the
// neighbors. Ties go to the employee with the closer sample.
func Vote(neighbors []database.Neighbor) (Match, bool) {
	if len(neighbors) == 0 {
		return Match{}, false
	}

	type tally struct {
		weight  float64
		closest float64
		votes   int
	}
	tallies := make(map[string]*tally)
	var total float64
	for _, n := range neighbors {
		w := 1 / (n.Distance + distanceEpsilon)
		total += w
		t, ok := tallies[n.EmployeeID]
		if !ok {
			t = &tally{closest: n.Distance}
			tallies[n.EmployeeID] = t
		}
		t.weight += w
		t.votes++
		t.closest = min(t.closest, n.Distance)
	}

	var winner string
	var best *tally
	for id, t := range tallies {
		if best == nil || t.weight > best.weight ||
			(t.weight == best.weight && t.closest < best.closest) ||
			(t.weight == best.weight && t.closest == best.closest && id < winner) {
			winner, best = id, t
		}
	}

	return Match{
		EmployeeID: winner,
		Confidence: best.weight / total,
		Distance:   best.closest,
		Votes:      best.votes,
	}, true
}

package game

// Score evaluates guess against target position by position using the
// two-pass algorithm.
//
// Pass 1:
//   - Mark exact matches as Exact.
//   - Count the remaining (non-exact) target letters.
//
// Pass 2:
//   - For each non-exact guess letter: if a remaining count exists for that
//     letter, mark Present and decrement it; otherwise mark Absent.
//
// A letter is therefore never credited more times than it occurs in target.
// Both words are expected in uppercase A-Z.
func Score(guess, target string) ([]Outcome, error) {
	n := len(target)
	if len(guess) != n {
		return nil, ErrLengthMismatch
	}
	res := make([]Outcome, n)

	// Letter frequency of the target positions not matched exactly.
	var counts [26]int

	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			res[i] = Exact
		} else if j := idx(target[i]); j >= 0 {
			counts[j]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == Exact {
			continue
		}
		j := idx(guess[i])
		if j >= 0 && counts[j] > 0 {
			res[i] = Present
			counts[j]--
		} else {
			res[i] = Absent
		}
	}
	return res, nil
}

// idx maps an uppercase ASCII letter to 0..25, or -1.
func idx(c byte) int {
	if c < 'A' || c > 'Z' {
		return -1
	}
	return int(c - 'A')
}


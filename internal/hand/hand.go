// Package hand answers shape questions about a concealed hand held as a
// 34-kind histogram: is it complete, what does it wait on, how many
// terminal and honor kinds does it hold.
package hand

import "kyoku-table/internal/mahjong"

type Counts = [mahjong.KindCount]int

// IsComplete reports whether the concealed tiles form a winning shape: n
// sets plus a pair, seven distinct pairs, or thirteen orphans. The
// concealed part must hold 3n+2 tiles, so open melds are already removed.
func IsComplete(c Counts) bool {
	total := sum(c)
	if total%3 != 2 {
		return false
	}
	if total == 14 && (isSevenPairs(c) || isThirteenOrphans(c)) {
		return true
	}
	return isStandard(c)
}

// Waits lists the kinds that complete a 3n+1 hand. A kind whose four
// copies are all in the hand is not a wait.
func Waits(c Counts) []mahjong.Tile {
	if sum(c)%3 != 1 {
		return nil
	}
	var out []mahjong.Tile
	for k := 0; k < mahjong.KindCount; k++ {
		if c[k] >= mahjong.CopiesEach {
			continue
		}
		c[k]++
		if IsComplete(c) {
			out = append(out, mahjong.Tile(k))
		}
		c[k]--
	}
	return out
}

func IsTenpai(c Counts) bool { return len(Waits(c)) > 0 }

// DistinctYaochu counts terminal and honor kinds present at least once.
func DistinctYaochu(c Counts) int {
	n := 0
	for k := 0; k < mahjong.KindCount; k++ {
		if c[k] > 0 && mahjong.Tile(k).IsYaochu() {
			n++
		}
	}
	return n
}

func isStandard(c Counts) bool {
	for k := 0; k < mahjong.KindCount; k++ {
		if c[k] < 2 {
			continue
		}
		c[k] -= 2
		ok := removeSets(&c, 0)
		c[k] += 2
		if ok {
			return true
		}
	}
	return false
}

// removeSets strips triplets and runs from the lowest occupied kind,
// backtracking when the triplet choice fails.
func removeSets(c *Counts, from int) bool {
	k := from
	for k < mahjong.KindCount && c[k] == 0 {
		k++
	}
	if k == mahjong.KindCount {
		return true
	}
	if c[k] >= 3 {
		c[k] -= 3
		ok := removeSets(c, k)
		c[k] += 3
		if ok {
			return true
		}
	}
	t := mahjong.Tile(k)
	if !t.IsHonor() && t.Number() <= 7 && c[k+1] > 0 && c[k+2] > 0 {
		c[k]--
		c[k+1]--
		c[k+2]--
		ok := removeSets(c, k)
		c[k]++
		c[k+1]++
		c[k+2]++
		return ok
	}
	return false
}

func isSevenPairs(c Counts) bool {
	pairs := 0
	for _, n := range c {
		switch n {
		case 0:
		case 2:
			pairs++
		default:
			return false
		}
	}
	return pairs == 7
}

func isThirteenOrphans(c Counts) bool {
	pair := false
	for k := 0; k < mahjong.KindCount; k++ {
		t := mahjong.Tile(k)
		if !t.IsYaochu() {
			if c[k] != 0 {
				return false
			}
			continue
		}
		switch c[k] {
		case 1:
		case 2:
			if pair {
				return false
			}
			pair = true
		default:
			return false
		}
	}
	return pair
}

func sum(c Counts) int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

package lottery

import (
	"sort"
)

// FrequencyEntry is one number with its occurrence count
type FrequencyEntry struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

// FrequencyTable maps a number to how often it was drawn. Only observed numbers are present.
type FrequencyTable map[int]int

// Analyze counts ranked numbers into white and special numbers into special in one pass.
// An empty history yields two empty tables.
func Analyze(records []DrawRecord) (white, special FrequencyTable) {
	white = make(FrequencyTable)
	special = make(FrequencyTable)

	for _, r := range records {
		for _, n := range r.Ranked {
			white[n]++
		}
		special[r.Special]++
	}

	return white, special
}

// Count returns the occurrences of number (0 if never drawn)
func (t FrequencyTable) Count(number int) int { return t[number] }

// Distinct returns how many different numbers were observed
func (t FrequencyTable) Distinct() int { return len(t) }

// Total returns the sum of all counts
func (t FrequencyTable) Total() int {
	total := 0
	for _, c := range t {
		total += c
	}
	return total
}

// Share returns the fraction of all draws taken by number
func (t FrequencyTable) Share(number int) float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	return float64(t[number]) / float64(total)
}

// Entries returns all entries ordered by number ascending
func (t FrequencyTable) Entries() []FrequencyEntry {
	entries := t.entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Number < entries[j].Number })
	return entries
}

// TopN returns the n most frequent numbers, count descending then number ascending
func (t FrequencyTable) TopN(n int) []FrequencyEntry {
	return t.rank(n, func(a, b FrequencyEntry) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Number < b.Number
	})
}

// BottomN returns the n least frequent observed numbers, count ascending then number ascending
func (t FrequencyTable) BottomN(n int) []FrequencyEntry {
	return t.rank(n, func(a, b FrequencyEntry) bool {
		if a.Count != b.Count {
			return a.Count < b.Count
		}
		return a.Number < b.Number
	})
}

// Missing returns the numbers in [min, max] that were never drawn
func (t FrequencyTable) Missing(min, max int) []int {
	var out []int
	for n := min; n <= max; n++ {
		if t[n] == 0 {
			out = append(out, n)
		}
	}
	return out
}

func (t FrequencyTable) rank(n int, less func(a, b FrequencyEntry) bool) []FrequencyEntry {
	if n <= 0 || len(t) == 0 {
		return []FrequencyEntry{}
	}

	entries := t.entries()
	sort.Slice(entries, func(i, j int) bool { return less(entries[i], entries[j]) })

	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n]
}

func (t FrequencyTable) entries() []FrequencyEntry {
	entries := make([]FrequencyEntry, 0, len(t))
	for num, c := range t {
		entries = append(entries, FrequencyEntry{Number: num, Count: c})
	}
	return entries
}

// Numbers extracts the numbers of entries, preserving order
func Numbers(entries []FrequencyEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Number
	}
	return out
}

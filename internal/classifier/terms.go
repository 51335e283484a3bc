package classifier

import (
	"sort"
	"strings"
)

// TermCount is a term and how often it occurred
type TermCount struct {
	Term  string
	Count int
}

// CountTerms tallies non-stopword terms of three or more letters.
func CountTerms(text string) map[string]int {
	counts := make(map[string]int)
	for _, word := range Tokenize(text) {
		if len(word) < 3 || IsStopword(word) {
			continue
		}
		counts[word]++
	}
	return counts
}

// TopTerms returns up to n terms seen at least minCount times, most frequent
// first, ties alphabetical.
func TopTerms(counts map[string]int, n, minCount int) []TermCount {
	var sorted []TermCount
	for term, count := range counts {
		if count >= minCount {
			sorted = append(sorted, TermCount{term, count})
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Term < sorted[j].Term
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ExtractTerms returns the top n terms of text by frequency
func ExtractTerms(text string, n int) []string {
	var out []string
	for _, tc := range TopTerms(CountTerms(text), n, 1) {
		out = append(out, tc.Term)
	}
	return out
}

// IsStopword reports whether word carries no topical meaning
func IsStopword(word string) bool {
	return stopwords[word]
}

var stopwords = wordSet(strings.Fields(`
	a an the
	i i'm i've i'd i'll im ive me my myself mine
	you you're your yours yourself
	he him his himself she her hers herself it it's its itself
	we we're us our ours ourselves they they're them their theirs themselves
	this that these those what which who whom
	am is are was were be been being
	have has had having do does did doing done don't didn't doesn't
	will would shall should can can't could couldn't may might must won't
	get got getting go goes going went gone make made making
	take took taken taking come came coming see saw seen
	know knew known think thought want wanted need needed
	try tried trying use used find found give gave tell told
	say said let keep kept start started seem seemed
	feel felt feeling feelings look looked
	to of in for on with at by from up about into over after before
	between under again out off through during without around
	and but or nor so yet both either neither not only also just
	than then when where why how if because while although though until
	all each every any some no none few many much more most less
	other another such same
	very really quite too always never often sometimes usually
	already still even now here there today tomorrow yesterday tonight
	well back way yes okay like thing things stuff
	time day days week weeks year years month months morning night
	lot something nothing everything anything someone anyone everyone
	maybe probably actually basically kind sort bit pretty
	one two three four five first last next
`)...)

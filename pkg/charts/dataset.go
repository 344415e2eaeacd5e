package charts

import (
	"strconv"
	"strings"
)

// Entry is one category and its count.
type Entry struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Dataset is an ordered list of entries. Order is preserved all the way to
// the rendered chart; nothing re-sorts it.
type Dataset []Entry

// Add increments the count of label, appending it when unseen.
func (d *Dataset) Add(label string, n int) {
	for idx := range *d {
		if (*d)[idx].Label == label {
			(*d)[idx].Count += n
			return
		}
	}
	*d = append(*d, Entry{Label: label, Count: n})
}

// Labels returns the categories in order.
func (d Dataset) Labels() []string {
	out := make([]string, 0, len(d))
	for _, entry := range d {
		out = append(out, entry.Label)
	}
	return out
}

// Counts returns the counts aligned with Labels.
func (d Dataset) Counts() []int {
	out := make([]int, 0, len(d))
	for _, entry := range d {
		out = append(out, entry.Count)
	}
	return out
}

// Total sums every count.
func (d Dataset) Total() int {
	total := 0
	for _, entry := range d {
		total += entry.Count
	}
	return total
}

// String renders the dataset as "A=3, B=1" for logs.
func (d Dataset) String() string {
	parts := make([]string, 0, len(d))
	for _, entry := range d {
		parts = append(parts, entry.Label+"="+strconv.Itoa(entry.Count))
	}
	return strings.Join(parts, ", ")
}

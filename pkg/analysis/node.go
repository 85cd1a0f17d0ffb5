// Package analysis holds the lattice data entities shared by the dictionary,
// the OOV plugins and the lattice builder.
package analysis

import "fmt"

// WordInfo is the word metadata attached to a lattice node
type WordInfo struct {
	Surface              string `json:"surface"`
	HeadWordLength       uint16 `json:"head_word_length"` // bytes
	POSID                uint16 `json:"pos_id"`
	NormalizedForm       string `json:"normalized_form"`
	DictionaryFormWordID int32  `json:"dictionary_form_word_id"`
	DictionaryForm       string `json:"dictionary_form"`
	ReadingForm          string `json:"reading_form"`
}

// Node is a lattice vertex candidate covering the byte range [Begin, End)
type Node struct {
	LeftID   uint16    `json:"left_id"`
	RightID  uint16    `json:"right_id"`
	Cost     int16     `json:"cost"`
	WordID   uint32    `json:"word_id"`
	IsOOV    bool      `json:"is_oov"`
	WordInfo *WordInfo `json:"word_info,omitempty"`

	Begin int `json:"begin"`
	End   int `json:"end"`

	hasRange bool
}

// NewOOVNode creates an unknown-word node with its range left unset
func NewOOVNode(leftID, rightID uint16, cost int16, info *WordInfo) Node {
	return Node{
		LeftID:   leftID,
		RightID:  rightID,
		Cost:     cost,
		WordID:   OOVWordID,
		IsOOV:    true,
		WordInfo: info,
	}
}

// OOVWordID marks nodes that do not refer to a dictionary entry
const OOVWordID uint32 = 0xFFFFFFFF

// SetRange sets the half-open byte range of the node
func (n *Node) SetRange(begin, end int) {
	n.Begin = begin
	n.End = end
	n.hasRange = true
}

// HasRange reports whether SetRange has been called
func (n *Node) HasRange() bool {
	return n.hasRange
}

// Len returns the byte length of the node range
func (n *Node) Len() int {
	return n.End - n.Begin
}

func (n Node) String() string {
	surface := ""
	if n.WordInfo != nil {
		surface = n.WordInfo.Surface
	}
	return fmt.Sprintf("%q [%d,%d) %d %d %d", surface, n.Begin, n.End, n.LeftID, n.RightID, n.Cost)
}

package srs

import "fmt"

// Quality is the user's response on the four answer buttons.
// The wire protocol and the keyboard mapping (keys 1-4) use the 0-3 range.
type Quality int

const (
	Again Quality = 0
	Hard  Quality = 1
	Good  Quality = 2
	Easy  Quality = 3
)

var qualityNames = map[Quality]string{
	Again: "Again",
	Hard:  "Hard",
	Good:  "Good",
	Easy:  "Easy",
}

// Valid reports whether q is one of the four accepted answer values.
func (q Quality) Valid() bool {
	return q >= Again && q <= Easy
}

// Successful reports whether the answer counts as a recall (Good or Easy).
func (q Quality) Successful() bool {
	return q >= Good
}

func (q Quality) String() string {
	if name, ok := qualityNames[q]; ok {
		return name
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

package models

// RawTable holds an unprocessed CSV payload: the header row and every data
// record as read, before trimming or type conversion.
type RawTable struct {
	Origin  string
	Header  []string
	Records [][]string
}

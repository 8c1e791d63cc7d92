package paging

import (
	"fmt"
	"strconv"
	"strings"
)

// PageKey identifies a virtual page of a process
// Two accesses touch the same page iff both fields are equal
type PageKey struct {
	ProcessID  string
	PageNumber int
}

// NewPageKey creates a page key
func NewPageKey(processID string, pageNumber int) PageKey {
	return PageKey{ProcessID: processID, PageNumber: pageNumber}
}

// String renders the key as "pid-page"
func (k PageKey) String() string {
	return k.ProcessID + "-" + strconv.Itoa(k.PageNumber)
}

// MarshalText implements encoding.TextMarshaler
func (k PageKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
// The page number never contains '-', so splitting on the last one is unambiguous
func (k *PageKey) UnmarshalText(text []byte) error {
	s := string(text)
	sep := strings.LastIndexByte(s, '-')
	if sep <= 0 || sep == len(s)-1 {
		return fmt.Errorf("malformed page key %q", s)
	}

	page, err := strconv.Atoi(s[sep+1:])
	if err != nil || page < 0 {
		return fmt.Errorf("malformed page number in key %q", s)
	}

	k.ProcessID = s[:sep]
	k.PageNumber = page
	return nil
}

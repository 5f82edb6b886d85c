package kioto

import "fmt"

// CommitID is the 64-bit content-derived identifier of a registered
// plugin instance (see journal.go for how it is folded).
type CommitID uint64

// Address pairs a Name with the commit id of one specific registration.
// Unlike a bare Name, an Address is a stable handle: it always resolves
// to the same Item, even after later registrations shadow the Name's
// path in the Store's by-path index.
type Address struct {
	Name   Name
	Commit CommitID
}

// String renders "name-path/hex(commit)", e.g. "kioto/0.0.0/plugins/request/1a2b3c4d5e6f7089".
func (a Address) String() string {
	return fmt.Sprintf("%s/%016x", a.Name.Path(), uint64(a.Commit))
}

package syncx

// noCopy triggers `go vet -copylocks` on structs embedding it by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

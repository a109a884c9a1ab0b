package fsevents

// Keys of the per-path extended-data dictionary delivered by the service
// when a watch is created with UseExtendedData.
const (
	ExtendedDataPathKey = "path"
	ExtendedFileIDKey   = "fileID"
)

// DecodeInode recovers the inode number from an extended-data payload.
//
// The payload is inspected only when flags requested extended data; otherwise
// the result is absent regardless of payload content. Extended data is
// best-effort: a missing key or a value of the wrong type yields absence,
// never an error.
func DecodeInode(payload map[string]any, flags CreateFlags) (int64, bool) {
	if !flags.Contains(UseExtendedData) {
		return 0, false
	}
	v, ok := payload[ExtendedFileIDKey]
	if !ok {
		return 0, false
	}
	inode, ok := v.(int64)
	return inode, ok
}

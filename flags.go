package fsevents

import "strings"

// EventFlags is the decoded set of per-event flags attached to a change
// record. Values match the native kFSEventStreamEventFlag* constants:
// https://developer.apple.com/documentation/coreservices/1455361-fseventstreameventflags
type EventFlags uint32

const (
	// MustScanSubDirs means events were coalesced (or dropped) and the
	// application must rescan the subtree rooted at the event path.
	MustScanSubDirs EventFlags = 0x00000001
	UserDropped     EventFlags = 0x00000002
	KernelDropped   EventFlags = 0x00000004
	// EventIDsWrapped means the 64-bit event id counter wrapped around.
	EventIDsWrapped EventFlags = 0x00000008
	// HistoryDone is a sentinel marking the end of historical events when
	// watching from an earlier event id.
	HistoryDone EventFlags = 0x00000010
	RootChanged EventFlags = 0x00000020
	Mount       EventFlags = 0x00000040
	Unmount     EventFlags = 0x00000080

	ItemCreated       EventFlags = 0x00000100
	ItemRemoved       EventFlags = 0x00000200
	ItemInodeMetaMod  EventFlags = 0x00000400
	ItemRenamed       EventFlags = 0x00000800
	ItemModified      EventFlags = 0x00001000
	ItemFinderInfoMod EventFlags = 0x00002000
	ItemChangeOwner   EventFlags = 0x00004000
	ItemXattrMod      EventFlags = 0x00008000
	ItemIsFile        EventFlags = 0x00010000
	ItemIsDir         EventFlags = 0x00020000
	ItemIsSymlink     EventFlags = 0x00040000
	// OwnEvent marks events caused by this process (requires MarkSelf).
	OwnEvent           EventFlags = 0x00080000
	ItemIsHardlink     EventFlags = 0x00100000
	ItemIsLastHardlink EventFlags = 0x00200000
	ItemCloned         EventFlags = 0x00400000
)

// CreateFlags configures a watch at creation time. Values match the native
// kFSEventStreamCreateFlag* constants.
type CreateFlags uint32

const (
	CreateNone CreateFlags = 0x00000000
	// UseCFTypes asks the service for CFArray/CFString path payloads.
	// Implied by UseExtendedData.
	UseCFTypes CreateFlags = 0x00000001
	NoDefer    CreateFlags = 0x00000002
	WatchRoot  CreateFlags = 0x00000004
	IgnoreSelf CreateFlags = 0x00000008
	// FileEvents requests file-granular events instead of the default
	// directory-granular ones. Significantly more events.
	FileEvents CreateFlags = 0x00000010
	MarkSelf   CreateFlags = 0x00000020
	// UseExtendedData attaches a per-path metadata payload (inode) to every
	// record. Requires UseCFTypes.
	UseExtendedData CreateFlags = 0x00000040
)

// EventIDSinceNow requests a watch that only reports changes occurring after
// its creation (kFSEventStreamEventIdSinceNow).
const EventIDSinceNow uint64 = 0xFFFFFFFFFFFFFFFF

var eventFlagNames = []struct {
	flag EventFlags
	name string
}{
	{MustScanSubDirs, "MustScanSubDirs"},
	{UserDropped, "UserDropped"},
	{KernelDropped, "KernelDropped"},
	{EventIDsWrapped, "EventIDsWrapped"},
	{HistoryDone, "HistoryDone"},
	{RootChanged, "RootChanged"},
	{Mount, "Mount"},
	{Unmount, "Unmount"},
	{ItemCreated, "ItemCreated"},
	{ItemRemoved, "ItemRemoved"},
	{ItemInodeMetaMod, "ItemInodeMetaMod"},
	{ItemRenamed, "ItemRenamed"},
	{ItemModified, "ItemModified"},
	{ItemFinderInfoMod, "ItemFinderInfoMod"},
	{ItemChangeOwner, "ItemChangeOwner"},
	{ItemXattrMod, "ItemXattrMod"},
	{ItemIsFile, "ItemIsFile"},
	{ItemIsDir, "ItemIsDir"},
	{ItemIsSymlink, "ItemIsSymlink"},
	{OwnEvent, "OwnEvent"},
	{ItemIsHardlink, "ItemIsHardlink"},
	{ItemIsLastHardlink, "ItemIsLastHardlink"},
	{ItemCloned, "ItemCloned"},
}

var knownEventFlags = func() EventFlags {
	var all EventFlags
	for _, f := range eventFlagNames {
		all |= f.flag
	}
	return all
}()

// DecodeEventFlags projects a raw native bitmask onto the known EventFlags.
// Total for every possible input: unknown bits are simply absent from the
// result and remain visible through Event.RawFlags.
func DecodeEventFlags(raw uint32) EventFlags {
	return EventFlags(raw) & knownEventFlags
}

// Contains reports whether all bits of other are set in f.
func (f EventFlags) Contains(other EventFlags) bool {
	return f&other == other
}

func (f EventFlags) String() string {
	if f == 0 {
		return "None"
	}
	var names []string
	for _, known := range eventFlagNames {
		if f.Contains(known.flag) {
			names = append(names, known.name)
		}
	}
	return strings.Join(names, " ")
}

var createFlagNames = []struct {
	flag CreateFlags
	name string
}{
	{UseCFTypes, "UseCFTypes"},
	{NoDefer, "NoDefer"},
	{WatchRoot, "WatchRoot"},
	{IgnoreSelf, "IgnoreSelf"},
	{FileEvents, "FileEvents"},
	{MarkSelf, "MarkSelf"},
	{UseExtendedData, "UseExtendedData"},
}

// Contains reports whether all bits of other are set in f.
func (f CreateFlags) Contains(other CreateFlags) bool {
	return f&other == other
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}
	var names []string
	for _, known := range createFlagNames {
		if f.Contains(known.flag) {
			names = append(names, known.name)
		}
	}
	return strings.Join(names, " ")
}

package vm

// Wire-format constants for the versioned, big-endian, self-describing
// bytecode format. Magic and version numbers are independent of any
// legacy in-memory numbering; CurrentMajor/CurrentMinor are what Writer
// always emits, and Reader accepts only major == CurrentMajor && minor <=
// CurrentMinor. A legacy major 1..6 header carries no minor field and is
// parsed with an implicit minor of 0, but is still rejected as unsupported.
const (
	magicNumber  uint32 = 0x52564D88
	CurrentMajor uint16 = 7
	CurrentMinor uint16 = 0

	legacyMajorMin uint16 = 1
	legacyMajorMax uint16 = 6
)

const (
	constTagInt    byte = 0x01
	constTagDouble byte = 0x02
	constTagString byte = 0x03
	constTagBool   byte = 0x04
	constTagAddr   byte = 0x05
	constTagVec    byte = 0x06
)

const (
	spaceConstantPool byte = 0x01
	spaceAccumulator  byte = 0x02
	spaceGlobal       byte = 0x03
	spaceLocal        byte = 0x04
)

const (
	refAsIs       byte = 0x01
	refDereference byte = 0x02
)

func spaceToByte(s Space) byte { return byte(s) }

func byteToSpace(b byte) (Space, bool) {
	switch b {
	case spaceConstantPool, spaceAccumulator, spaceGlobal, spaceLocal:
		return Space(b), true
	default:
		return 0, false
	}
}

func refModeToByte(m RefMode) byte { return byte(m) }

func byteToRefMode(b byte) (RefMode, bool) {
	switch b {
	case refAsIs, refDereference:
		return RefMode(b), true
	default:
		return 0, false
	}
}

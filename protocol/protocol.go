// Package protocol implements the Tlc5940Mux serial command protocol
package protocol

// Command identifiers. Every response ends with the identifier of the
// command it answers.
const (
	CmdInfo        byte = 'i'
	CmdClear       byte = 'C'
	CmdClearRow    byte = 'c'
	CmdSet         byte = 's'
	CmdSetRow      byte = 'S'
	CmdSetAll      byte = 't'
	CmdSetRowAll   byte = 'T'
	CmdGet         byte = 'g'
	CmdGetRow      byte = 'G'
	CmdModifyRow   byte = 'm'
	CmdModifyArray byte = 'M'
)

// Protocol constants
const (
	ChannelsPerDriver    = 16
	PackedBytesPerDriver = 24 // 16 channels * 12 bits / 8

	MaxValue = 4095 // largest 12-bit grayscale value

	InfoResponseSize = 5 // version, drivers, rows, address width digit, echo
	EchoSize         = 1
	ValueSize        = 2
)

var commandNames = map[byte]string{
	CmdInfo:        "info",
	CmdClear:       "clear",
	CmdClearRow:    "clearRow",
	CmdSet:         "set",
	CmdSetRow:      "setRow",
	CmdSetAll:      "setAll",
	CmdSetRowAll:   "setRowAll",
	CmdGet:         "get",
	CmdGetRow:      "getRow",
	CmdModifyRow:   "modifyRow",
	CmdModifyArray: "modifyArray",
}

// CommandName returns a readable name for a command identifier
func CommandName(cmd byte) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return "unknown"
}

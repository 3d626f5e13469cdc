package packet

// Client → server opcodes.
const (
	C_OPCODE_JOIN  byte = 0x01 // name, species, class
	C_OPCODE_INPUT byte = 0x02 // sequence, timestamp, movement, action, target
	C_OPCODE_PING  byte = 0x03
)

// Server → client opcodes.
const (
	S_OPCODE_SNAPSHOT        byte = 0x81
	S_OPCODE_DELTA           byte = 0x82
	S_OPCODE_CHUNKS_LOADED   byte = 0x83
	S_OPCODE_CHUNKS_UNLOADED byte = 0x84
	S_OPCODE_PONG            byte = 0x85
	S_OPCODE_JOIN_DENIED     byte = 0x86
)

// Action codes carried in PlayerInput.
const (
	ActionNone     uint8 = 0
	ActionAttack   uint8 = 1
	ActionInteract uint8 = 2
)

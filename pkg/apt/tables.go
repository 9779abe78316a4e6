package apt

// WireLength returns the total wire length for the given identity. For
// variable-length messages variable is true and the length must instead be
// read from the message's own header. ok is false when the identity is not in
// the protocol table.
func WireLength(id Identity) (length int, variable, ok bool) {
	length, ok = wireLengths[id]
	if length == lengthVariable {
		return 0, true, ok
	}
	return length, false, ok
}

// ChannelSlot returns the response-channel slot assigned to the identity.
// Identities that share a slot share a broadcast channel. ok is false when
// the identity has no channel, which is the case for every message the host
// never awaits (outbound commands and unsolicited acknowledgements).
func ChannelSlot(id Identity) (slot uint16, ok bool) {
	slot, ok = channelSlots[id]
	return slot, ok
}

// channelSlotCount returns the number of distinct channel slots in the table.
func channelSlotCount() int {
	return len(channelNames)
}

// ChannelName returns the human-readable name of a channel slot, for logging.
func ChannelName(slot uint16) string {
	if int(slot) >= len(channelNames) {
		return "unknown"
	}
	return channelNames[slot]
}

package tevm

const DefaultPath = "libteVirtualMIDI.dylib"

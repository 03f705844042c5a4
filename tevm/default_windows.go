package tevm

// DefaultPath is resolved through the standard DLL search order.
const DefaultPath = "teVirtualMIDI.dll"

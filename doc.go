// Package virtualmidi creates software MIDI ports through the teVirtualMIDI
// driver and exposes them as gomidi inputs and outputs.
//
// A Registry maps port names to driver ports. Binding an input or output to
// a name creates the driver port on first use and shares it afterwards; the
// port is closed again when its last input or output is closed.
//
//	lib := tevm.New(tevm.Config{})
//	defer lib.Close()
//
//	reg := virtualmidi.NewRegistry(lib)
//	defer reg.Close()
//
//	in, err := reg.BindInput("Loop", virtualmidi.ReceiverFunc(func(in *virtualmidi.Input, msg midi.Message) {
//		fmt.Println(msg)
//	}))
//	if err != nil {
//		return err
//	}
//	in.Start()
//
// Inbound data is delivered on a per-port goroutine, in arrival order, to
// every started input of the port in the order the inputs were bound.
package virtualmidi

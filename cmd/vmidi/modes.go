package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"github.com/shaban/virtualmidi"
	"github.com/shaban/virtualmidi/devices"
)

// startLoopback binds an output and an input on name and echoes every
// inbound message to the output.
func startLoopback(reg *virtualmidi.Registry, name string, opts []virtualmidi.BindOption, log logrus.FieldLogger) (*virtualmidi.Input, *virtualmidi.Output, error) {
	out, err := reg.BindOutput(name, opts...)
	if err != nil {
		return nil, nil, err
	}
	in, err := reg.BindInput(name, virtualmidi.ReceiverFunc(func(_ *virtualmidi.Input, msg midi.Message) {
		if err := out.SendMessage(msg); err != nil {
			log.WithError(err).WithField("port", name).Warn("echo failed")
		}
	}), opts...)
	if err != nil {
		out.Close()
		return nil, nil, err
	}
	in.Start()
	return in, out, nil
}

// startMonitor binds an input on name that logs each inbound message.
func startMonitor(reg *virtualmidi.Registry, name string, opts []virtualmidi.BindOption, log logrus.FieldLogger) (*virtualmidi.Input, error) {
	in, err := reg.BindInput(name, virtualmidi.ReceiverFunc(func(_ *virtualmidi.Input, msg midi.Message) {
		log.WithFields(logrus.Fields{
			"port": name,
			"size": len(msg),
		}).Info(msg.String())
	}), opts...)
	if err != nil {
		return nil, err
	}
	in.Start()
	return in, nil
}

// probe writes the system MIDI devices to w and, when name is set, whether a
// port of that name is visible.
func probe(w io.Writer, name string) error {
	all, err := devices.GetMIDI()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "🎹 %d MIDI devices\n", len(all))
	for _, d := range all {
		dir := ""
		if d.CanInput() {
			dir += "in"
		}
		if d.CanOutput() {
			if dir != "" {
				dir += "/"
			}
			dir += "out"
		}
		fmt.Fprintf(w, "  %2d. %-32s %-10s %s\n", d.ID, d.Name, d.Interface, dir)
	}
	if name != "" {
		readable, writable := all.Visibility(name)
		fmt.Fprintf(w, "\n%q readable=%t writable=%t\n", name, readable, writable)
	}
	return nil
}

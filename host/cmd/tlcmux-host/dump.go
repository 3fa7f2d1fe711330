package main

import (
	"errors"
	"fmt"
	"io"

	"tlcmux/host/trace"
)

// dumpTrace prints every event of a trace file, one per line
func dumpTrace(w io.Writer, path string) error {
	r, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var session string
	n := 0
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if ev.Session != session {
			session = ev.Session
			fmt.Fprintf(w, "session %s started %s\n", session, ev.Timestamp.Format("2006-01-02 15:04:05.000"))
		}
		fmt.Fprintln(w, ev)
		n++
	}
	fmt.Fprintf(w, "%d events\n", n)
	return nil
}

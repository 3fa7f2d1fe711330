package sim

import (
	"fmt"

	"tlcmux/protocol"
)

// Handler executes one command. args holds the request bytes after the
// command identifier; the handler decodes its own arguments and returns
// the response bytes that precede the echo.
type Handler func(args protocol.InputBuffer) ([]byte, error)

// Command is a registered command
type Command struct {
	ID      byte
	Name    string
	Handler Handler
}

// registry maps command identifiers to handlers
type registry struct {
	commands map[byte]*Command
}

func newRegistry() *registry {
	return &registry{commands: make(map[byte]*Command)}
}

// register adds a command; a second registration of the same id replaces the first
func (r *registry) register(id byte, handler Handler) {
	r.commands[id] = &Command{
		ID:      id,
		Name:    protocol.CommandName(id),
		Handler: handler,
	}
}

// dispatch calls the handler for id
func (r *registry) dispatch(id byte, args protocol.InputBuffer) ([]byte, error) {
	cmd, ok := r.commands[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command 0x%02x", protocol.ErrProtocol, id)
	}
	return cmd.Handler(args)
}

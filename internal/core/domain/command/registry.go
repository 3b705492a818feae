package command

import (
	"errors"
	"kbfit/internal/core/port"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

type Registry struct {
	commands map[string]port.Command
}

func (r *Registry) Register(handler port.Command) {
	if r.commands == nil {
		r.commands = make(map[string]port.Command)
	}

	log.Info().Str("handler", handler.GetCommand()).Msg("adding command handler to registry")
	r.commands[handler.GetCommand()] = handler
}

func (r *Registry) Get(command string) (port.Command, error) {
	log.Debug().Str("command", command).Msg("fetching command handler from registry")

	if r.commands == nil {
		return nil, errors.New("can't fetch command, registry not initialized")
	}

	handler, ok := r.commands[command]
	if !ok {
		return nil, errors.New("command not found")
	}

	return handler, nil
}

// ListCommands returns the registered commands in lexical order.
func (r *Registry) ListCommands() []string {
	keys := make([]string, 0, len(r.commands))
	for k := range r.commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

func ParseCommandArgs(args string) string {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

// ParseCommand returns the lowercased first word, without a trailing @botname.
func ParseCommand(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}

	command, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(command)
}

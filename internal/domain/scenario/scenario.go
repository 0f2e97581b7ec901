package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
)

// Op names a simulator command.
type Op string

const (
	OpProcess Op = "process"
	OpChannel Op = "channel"
	OpAcquire Op = "acquire"
	OpRelease Op = "release"
	OpSend    Op = "send"
	OpStep    Op = "step"
	OpKill    Op = "kill"
	OpReset   Op = "reset"
	OpPause   Op = "pause"
	OpResume  Op = "resume"
	OpDetect  Op = "detect"
)

var ErrUnknownFormat = errors.New("unknown scenario format")

// Scenario is a scripted sequence of commands.
type Scenario struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps" toml:"steps"`
}

// Step is one command. Which fields matter depends on Op:
//
//	process: name, priority
//	channel: type, bufferSize, name
//	acquire: pid, channel, lock
//	release: pid (owner), lock ("C1:L", or a bare name plus channel)
//	send:    from, to, channel, payload
//	kill:    pid
//
// Expect, when set on acquire, release or kill, is the boolean result the
// command must return.
type Step struct {
	Op         Op     `json:"op" yaml:"op" toml:"op"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Priority   int    `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	BufferSize *int   `json:"bufferSize,omitempty" yaml:"bufferSize,omitempty" toml:"bufferSize,omitempty"`
	PID        string `json:"pid,omitempty" yaml:"pid,omitempty" toml:"pid,omitempty"`
	From       string `json:"from,omitempty" yaml:"from,omitempty" toml:"from,omitempty"`
	To         string `json:"to,omitempty" yaml:"to,omitempty" toml:"to,omitempty"`
	Channel    string `json:"channel,omitempty" yaml:"channel,omitempty" toml:"channel,omitempty"`
	Lock       string `json:"lock,omitempty" yaml:"lock,omitempty" toml:"lock,omitempty"`
	Payload    any    `json:"payload,omitempty" yaml:"payload,omitempty" toml:"payload,omitempty"`
	Expect     *bool  `json:"expect,omitempty" yaml:"expect,omitempty" toml:"expect,omitempty"`
}

// Format is a scenario file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Load reads, decodes and validates a scenario file.
func Load(path string) (*Scenario, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte, format Format) (*Scenario, error) {
	var sc Scenario
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &sc)
	case FormatTOML:
		err = toml.Unmarshal(data, &sc)
	case FormatJSON:
		err = sonic.Unmarshal(data, &sc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s scenario: %w", format, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate reports every malformed step.
func (sc *Scenario) Validate() error {
	var err error
	if len(sc.Steps) == 0 {
		err = multierr.Append(err, errors.New("scenario has no steps"))
	}
	for i, st := range sc.Steps {
		if stepErr := st.validate(); stepErr != nil {
			err = multierr.Append(err, fmt.Errorf("step %d (%s): %w", i+1, st.Op, stepErr))
		}
	}
	return err
}

type field struct{ name, value string }

// need reports each empty field, in argument order.
func need(fields ...field) error {
	var err error
	for _, f := range fields {
		if f.value == "" {
			err = multierr.Append(err, fmt.Errorf("missing %s", f.name))
		}
	}
	return err
}

func (st Step) validate() error {
	switch st.Op {
	case OpProcess, OpStep, OpReset, OpPause, OpResume, OpDetect:
		return nil
	case OpChannel:
		if st.BufferSize != nil && *st.BufferSize < 0 {
			return fmt.Errorf("negative bufferSize %d", *st.BufferSize)
		}
		return nil
	case OpAcquire:
		return need(field{"pid", st.PID}, field{"channel", st.Channel}, field{"lock", st.Lock})
	case OpRelease:
		return need(field{"pid", st.PID}, field{"lock", st.Lock})
	case OpSend:
		return need(field{"channel", st.Channel})
	case OpKill:
		return need(field{"pid", st.PID})
	case "":
		return errors.New("missing op")
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

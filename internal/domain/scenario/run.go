package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
)

// ErrExpectation marks a step whose result differed from its expect value.
var ErrExpectation = errors.New("expectation failed")

// Detection records the cycles found by one step or detect.
type Detection struct {
	Step   int         `json:"step"`
	Cycles [][]sim.PID `json:"cycles"`
}

// Report summarizes a run.
type Report struct {
	Scenario   string      `json:"scenario"`
	Applied    int         `json:"applied"`
	Detections []Detection `json:"detections"`
}

// Deadlocked reports whether any step found a cycle.
func (r *Report) Deadlocked() bool {
	return len(r.Detections) > 0
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	defaultBufferSize int
}

// WithDefaultBufferSize sets the capacity of channels that omit bufferSize.
func WithDefaultBufferSize(n int) RunOption {
	return func(c *runConfig) {
		if n >= 0 {
			c.defaultBufferSize = n
		}
	}
}

// Run applies the steps in order. It stops at the first failed expectation,
// command error, or when ctx is done; the report covers the steps applied
// so far.
func Run(ctx context.Context, s *sim.Simulator, sc *Scenario, opts ...RunOption) (*Report, error) {
	cfg := runConfig{defaultBufferSize: sim.DefaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &Report{Scenario: sc.Name, Detections: []Detection{}}

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return r, err
		}

		n := i + 1
		var (
			got     bool
			checked bool
			err     error
		)
		switch st.Op {
		case OpProcess:
			priority := st.Priority
			if priority == 0 {
				priority = 1
			}
			name := st.Name
			if name == "" {
				name = fmt.Sprintf("proc-%d", n)
			}
			s.CreateProcess(name, priority)
		case OpChannel:
			size := cfg.defaultBufferSize
			if st.BufferSize != nil {
				size = *st.BufferSize
			}
			_, err = s.CreateChannel(sim.ChannelType(st.Type), size, st.Name)
		case OpAcquire:
			got, checked = s.AcquireLock(sim.PID(st.PID), sim.CID(st.Channel), st.Lock), true
		case OpRelease:
			got, checked = s.ForceReleaseLock(sim.PID(st.PID), lockName(st)), true
		case OpSend:
			err = s.SendMessage(sim.PID(st.From), sim.PID(st.To), sim.CID(st.Channel), st.Payload)
		case OpStep:
			r.record(n, s.Step())
		case OpDetect:
			r.record(n, s.DetectDeadlocks())
		case OpKill:
			got, checked = s.KillProcess(sim.PID(st.PID)), true
		case OpReset:
			s.Reset()
		case OpPause:
			s.Pause()
		case OpResume:
			s.Resume()
		default:
			err = fmt.Errorf("unknown op %q", st.Op)
		}
		if err != nil {
			return r, fmt.Errorf("step %d (%s): %w", n, st.Op, err)
		}
		r.Applied++

		if st.Expect != nil && checked && got != *st.Expect {
			return r, fmt.Errorf("step %d (%s): %w: got %t, want %t", n, st.Op, ErrExpectation, got, *st.Expect)
		}
	}
	return r, nil
}

func (r *Report) record(step int, cycles [][]sim.PID) {
	if len(cycles) > 0 {
		r.Detections = append(r.Detections, Detection{Step: step, Cycles: cycles})
	}
}

// lockName accepts either a full "C1:L" name or a bare name plus channel.
func lockName(st Step) string {
	if st.Channel != "" && !strings.Contains(st.Lock, ":") {
		return sim.LockID{Channel: sim.CID(st.Channel), Name: st.Lock}.String()
	}
	return st.Lock
}

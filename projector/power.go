package projector

import (
	"context"
	"fmt"

	"github.com/jvc-remote/go-jvc/command"
)

// PowerState is the value of a power read.
type PowerState uint8

const (
	// PowerUnknown is a power value outside the command table.
	PowerUnknown PowerState = iota
	PowerStandby
	PowerLampOn
	PowerCooling
	PowerReserved
	PowerEmergency
)

// ParsePowerState maps a decoded power value to a PowerState.
func ParsePowerState(s string) PowerState {
	switch s {
	case command.PowerStandby:
		return PowerStandby
	case command.PowerLampOn:
		return PowerLampOn
	case command.PowerCooling:
		return PowerCooling
	case command.PowerReserved:
		return PowerReserved
	case command.PowerEmergency:
		return PowerEmergency
	default:
		return PowerUnknown
	}
}

func (s PowerState) String() string {
	switch s {
	case PowerStandby:
		return command.PowerStandby
	case PowerLampOn:
		return command.PowerLampOn
	case PowerCooling:
		return command.PowerCooling
	case PowerReserved:
		return command.PowerReserved
	case PowerEmergency:
		return command.PowerEmergency
	default:
		return "unknown"
	}
}

// OnState collapses a PowerState for callers that only care whether the
// projector is running.
type OnState uint8

const (
	OnStateOff OnState = iota
	OnStateOn
	OnStateEmergency
)

func (o OnState) String() string {
	switch o {
	case OnStateOn:
		return "on"
	case OnStateEmergency:
		return "emergency"
	default:
		return "off"
	}
}

// IsOn reports whether o is OnStateOn.
func (o OnState) IsOn() bool { return o == OnStateOn }

// OnState returns the collapsed state; ok is false for PowerUnknown.
// Cooling and reserved count as on: the lamp is still lit or warming.
func (s PowerState) OnState() (state OnState, ok bool) {
	switch s {
	case PowerStandby:
		return OnStateOff, true
	case PowerLampOn, PowerCooling, PowerReserved:
		return OnStateOn, true
	case PowerEmergency:
		return OnStateEmergency, true
	default:
		return OnStateOff, false
	}
}

var (
	cmdPowerOn  = command.Power + command.Separator + "on"
	cmdPowerOff = command.Power + command.Separator + "off"
)

// PowerOn turns the projector on.
func (p *Projector) PowerOn(ctx context.Context) error {
	_, err := p.Send(ctx, cmdPowerOn)
	return err
}

// PowerOff puts the projector into standby.
func (p *Projector) PowerOff(ctx context.Context) error {
	_, err := p.Send(ctx, cmdPowerOff)
	return err
}

// PowerState reads the power state. A value outside the command table is
// returned as PowerUnknown with ErrUnmappedPowerState.
func (p *Projector) PowerState(ctx context.Context) (PowerState, error) {
	v, err := p.Command(ctx, command.Power)
	if err != nil {
		return PowerUnknown, err
	}

	st := ParsePowerState(v)
	if st == PowerUnknown {
		return st, fmt.Errorf("%w: %q", ErrUnmappedPowerState, v)
	}

	return st, nil
}

// IsOn reads the power state and collapses it to an OnState.
func (p *Projector) IsOn(ctx context.Context) (OnState, error) {
	st, err := p.PowerState(ctx)
	if err != nil {
		return OnStateOff, err
	}

	on, _ := st.OnState()

	return on, nil
}

// MACAddress reads the projector's MAC address as reported by the device.
func (p *Projector) MACAddress(ctx context.Context) (string, error) {
	return p.Command(ctx, command.MACAddress)
}

// Model reads the projector's model code.
func (p *Projector) Model(ctx context.Context) (string, error) {
	return p.Command(ctx, command.ModelInfo)
}

// Ping sends the null command, which the projector acknowledges without
// side effects.
func (p *Projector) Ping(ctx context.Context) error {
	_, err := p.Send(ctx, command.Null)
	return err
}

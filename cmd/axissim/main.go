// Command axissim runs one simulated axis locally and drives it through
// a startup sequence, logging every state transition to stdout. It
// exists for exercising axis.Axis without a board attached.
package main

import (
	"context"
	"log"
	"time"

	"github.com/nasa-jpl/axisctl/axis"
	"github.com/nasa-jpl/axisctl/boardio"
	"github.com/nasa-jpl/axisctl/hw"
	"github.com/nasa-jpl/axisctl/simhw"
)

func main() {
	board := boardio.NewBoardContext()
	board.SetBrakeResistorArmed(true)
	board.SetVBusVoltage(24)

	enc := simhw.NewEncoder(8192, false)
	minEndstop := &simhw.EndstopState{}
	me := &hw.Endstop{Enabled: true, PhysicalEndstop: true, MinMsHoming: 50}
	me.Bind(minEndstop)

	a := axis.New(axis.Collaborators{
		Motor:      &simhw.Motor{},
		Encoder:    enc,
		Sensorless: simhw.Sensorless{},
		Controller: simhw.NewController(2),
		Trajectory: &simhw.Trajectory{},
		GPIO:       simhw.NewGPIO(),
		Board:      board,
		MinEndstop: me,
	}, axis.Config{
		StartupMotorCalibration:         true,
		StartupEncoderOffsetCalibration: true,
		StartupClosedLoopControl:        true,
		StartupHoming:                   true,
	}, axis.HWConfig{TickRateHz: 8000})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go (&boardio.SimTickSource{Rate: 8000}).Start(ctx, a.Signal())

	go func() {
		last := axis.State(-1)
		for ctx.Err() == nil {
			if cur := a.CurrentState(); cur != last {
				log.Println("axissim: current_state ->", cur)
				last = cur
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	// let homing's find-min phase settle by asserting the simulated
	// switch shortly after startup begins.
	go func() {
		time.Sleep(200 * time.Millisecond)
		minEndstop.Set(true)
	}()

	a.RequestState(axis.StartupSequence)
	a.Run(ctx)

	log.Println("axissim: final current_state:", a.CurrentState(), "error:", a.Error())
}

package boardio

import (
	"context"
	"testing"
	"time"

	"github.com/nasa-jpl/axisctl/scheduler"
)

func TestBoardContextDefaultsToDisarmed(t *testing.T) {
	b := NewBoardContext()
	if b.BrakeResistorArmed() {
		t.Fatal("a freshly booted BoardContext should have the brake resistor disarmed")
	}
	if _, ok := b.ADCRaw(0); ok {
		t.Fatal("a freshly booted BoardContext should have no recorded ADC samples")
	}
}

func TestBoardContextVBusVoltageRoundTrips(t *testing.T) {
	b := NewBoardContext()
	b.SetVBusVoltage(24.125)
	if got := b.VBusVoltage(); got != 24.125 {
		t.Fatalf("VBusVoltage() = %v, want 24.125", got)
	}
}

func TestBoardContextADCRawPerChannel(t *testing.T) {
	b := NewBoardContext()
	b.SetADCRaw(1, 100)
	b.SetADCRaw(2, 200)

	if code, ok := b.ADCRaw(1); !ok || code != 100 {
		t.Fatalf("ADCRaw(1) = (%d, %v), want (100, true)", code, ok)
	}
	if code, ok := b.ADCRaw(2); !ok || code != 200 {
		t.Fatalf("ADCRaw(2) = (%d, %v), want (200, true)", code, ok)
	}
}

func TestThermistorReadCelsiusUnavailableWithoutSample(t *testing.T) {
	b := NewBoardContext()
	th := NewThermistor(b, 0, []float64{0, 1})
	if _, ok := th.ReadCelsius(); ok {
		t.Fatal("ReadCelsius should report unavailable before any ADC sample is recorded")
	}
}

func TestThermistorReadCelsiusEvaluatesPolynomial(t *testing.T) {
	b := NewBoardContext()
	b.SetADCRaw(0, 10)
	// celsius = 2*x^2 + 3*x + 1, x = 10 -> 231
	th := NewThermistor(b, 0, []float64{1, 3, 2})
	got, ok := th.ReadCelsius()
	if !ok {
		t.Fatal("ReadCelsius should succeed once a sample is recorded")
	}
	if got != 231 {
		t.Fatalf("ReadCelsius() = %v, want 231", got)
	}
}

func TestMissingTickSourceNeverSends(t *testing.T) {
	sig := scheduler.NewSignal()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		(MissingTickSource{}).Start(ctx, sig)
		close(done)
	}()

	ok, _ := sig.Wait(ctx, 20*time.Millisecond)
	if ok {
		t.Fatal("MissingTickSource should never deliver a signal")
	}
	<-done
}

func TestSimTickSourceDeliversSignal(t *testing.T) {
	sig := scheduler.NewSignal()
	src := &SimTickSource{Rate: 1000}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	go src.Start(ctx, sig)

	ok, err := sig.Wait(context.Background(), 100*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Wait() = (%v, %v), want (true, nil) once the sim tick source is running", ok, err)
	}
}

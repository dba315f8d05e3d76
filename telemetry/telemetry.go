// Package telemetry exposes an axis.Axis over HTTP using generichttp's
// RouteTable-binding idiom: a small set of typed get/set handlers bound
// to goji patterns, returning generichttp.HumanPayload-shaped JSON.
package telemetry

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nasa-jpl/axisctl/axis"
	"github.com/nasa-jpl/axisctl/generichttp"
	"goji.io/pat"
)

// HTTPAxis wraps an axis.Axis in an HTTP interface exposing its external
// surface: current_state (read-only), requested_state (read-write),
// error (read-only), homing_state (read-only), loop_counter (read-only),
// and config (read-write, whole-struct).
type HTTPAxis struct {
	Axis *axis.Axis
	rt   generichttp.RouteTable
}

// NewHTTPAxis builds the route table for a up front, rather than lazily
// building routes on first RT() call.
func NewHTTPAxis(a *axis.Axis) *HTTPAxis {
	h := &HTTPAxis{Axis: a}
	h.rt = generichttp.RouteTable{
		pat.Get("/current-state"):   h.getCurrentState(),
		pat.Get("/requested-state"): h.getRequestedState(),
		pat.Post("/requested-state"): h.setRequestedState(),
		pat.Get("/error"):           h.getError(),
		pat.Get("/homing-state"):    h.getHomingState(),
		pat.Get("/loop-counter"):    h.getLoopCounter(),
		pat.Get("/thread-valid"):    h.getThreadValid(),
		pat.Get("/config"):          h.getConfig(),
		pat.Post("/config"):         h.setConfig(),
	}
	return h
}

// RT satisfies generichttp.HTTPer so an HTTPAxis can be mounted the same
// way any other device's route table is mounted.
func (h *HTTPAxis) RT() generichttp.RouteTable { return h.rt }

func (h *HTTPAxis) getCurrentState() http.HandlerFunc {
	return generichttp.GetString(func() (string, error) {
		return h.Axis.CurrentState().String(), nil
	})
}

// requestedStateByName maps human-readable state names onto the State
// type for POSTs to requested-state; axisctl's CLI sends these names
// rather than raw ints.
var requestedStateByName = map[string]axis.State{
	"Idle":                    axis.Idle,
	"StartupSequence":         axis.StartupSequence,
	"FullCalibrationSequence": axis.FullCalibrationSequence,
	"MotorCalibration":        axis.MotorCalibration,
	"EncoderIndexSearch":      axis.EncoderIndexSearch,
	"EncoderOffsetCalibration": axis.EncoderOffsetCalibration,
	"Homing":                  axis.Homing,
	"ClosedLoopControl":       axis.ClosedLoopControl,
	"SensorlessControl":       axis.SensorlessControl,
}

func (h *HTTPAxis) getRequestedState() http.HandlerFunc {
	return generichttp.GetString(func() (string, error) {
		return h.Axis.RequestedState().String(), nil
	})
}

func (h *HTTPAxis) setRequestedState() http.HandlerFunc {
	return generichttp.SetString(func(name string) error {
		s, ok := requestedStateByName[name]
		if !ok {
			return errUnknownState(name)
		}
		h.Axis.RequestState(s)
		return nil
	})
}

type errUnknownState string

func (e errUnknownState) Error() string { return "unrecognized requested_state: " + string(e) }

func (h *HTTPAxis) getError() http.HandlerFunc {
	return generichttp.GetString(func() (string, error) {
		return h.Axis.Error().String(), nil
	})
}

func (h *HTTPAxis) getHomingState() http.HandlerFunc {
	return generichttp.GetString(func() (string, error) {
		return h.Axis.HomingStateValue().String(), nil
	})
}

func (h *HTTPAxis) getLoopCounter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(struct {
			LoopCounter string `json:"loop_counter"`
		}{strconv.FormatUint(h.Axis.LoopCounter(), 10)})
	}
}

func (h *HTTPAxis) getThreadValid() http.HandlerFunc {
	return generichttp.GetBool(func() (bool, error) {
		return h.Axis.ThreadValid(), nil
	})
}

func (h *HTTPAxis) getConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(h.Axis.Config())
	}
}

func (h *HTTPAxis) setConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg axis.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
		h.Axis.SetConfig(cfg)
		w.WriteHeader(http.StatusOK)
	}
}

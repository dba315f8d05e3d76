// Command axisctl is an interactive client for axisd's telemetry
// surface: it requests a state transition, then shows a spinner until
// current_state settles (or an error accumulates), mirroring the
// calibration/homing wait a bench operator would otherwise do by
// polling curl in a loop.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/theckman/yacspin"
)

func usage() {
	fmt.Println(`axisctl: talk to a running axisd

Usage:
	axisctl <addr> <axis> <command> [args]

Commands:
	state                 print current_state, requested_state, and error
	request <state-name>  request a state transition and wait for it to settle
	config                print the axis's current config as JSON
`)
}

type axisSnapshot struct {
	CurrentState   string
	RequestedState string
	Error          string
	HomingState    string
}

func fetchString(base string, route string) (string, error) {
	resp, err := http.Get(base + route)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var out struct {
		Str string `json:"str"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	return out.Str, nil
}

func snapshot(base string) (axisSnapshot, error) {
	var s axisSnapshot
	var err error
	if s.CurrentState, err = fetchString(base, "/current-state"); err != nil {
		return s, err
	}
	if s.RequestedState, err = fetchString(base, "/requested-state"); err != nil {
		return s, err
	}
	if s.Error, err = fetchString(base, "/error"); err != nil {
		return s, err
	}
	if s.HomingState, err = fetchString(base, "/homing-state"); err != nil {
		return s, err
	}
	return s, nil
}

func printState(s axisSnapshot) {
	errColor := color.New(color.FgGreen)
	if s.Error != "None" {
		errColor = color.New(color.FgRed, color.Bold)
	}
	fmt.Printf("current_state:   %s\n", s.CurrentState)
	fmt.Printf("requested_state: %s\n", s.RequestedState)
	fmt.Printf("homing_state:    %s\n", s.HomingState)
	errColor.Printf("error:           %s\n", s.Error)
}

func requestState(base, name string) error {
	body, _ := json.Marshal(struct {
		Str string `json:"str"`
	}{name})
	resp, err := http.Post(base+"/requested-state", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := ioutil.ReadAll(resp.Body)
		return fmt.Errorf("axisd rejected requested_state=%s: %s", name, string(b))
	}

	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          fmt.Sprintf(" waiting for %s to settle", name),
		SuffixAutoColon: true,
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}
	spinner, err := yacspin.New(cfg)
	if err != nil {
		return err
	}
	spinner.Start()

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		s, err := snapshot(base)
		if err != nil {
			spinner.StopFailMessage(err.Error())
			spinner.StopFail()
			return err
		}
		if s.Error != "None" {
			spinner.StopFailMessage(s.Error)
			spinner.StopFail()
			printState(s)
			return nil
		}
		if s.RequestedState == "Undefined" && s.CurrentState == "Idle" {
			spinner.Stop()
			printState(s)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	spinner.StopFailMessage("timed out waiting for the axis to settle")
	spinner.StopFail()
	return nil
}

func main() {
	args := os.Args[1:]
	if len(args) < 3 {
		usage()
		os.Exit(1)
	}
	base := strings.TrimSuffix(args[0], "/") + "/axis/" + args[1]
	cmd := args[2]

	switch cmd {
	case "state":
		s, err := snapshot(base)
		if err != nil {
			log.Fatal(err)
		}
		printState(s)
	case "request":
		if len(args) < 4 {
			usage()
			os.Exit(1)
		}
		if err := requestState(base, args[3]); err != nil {
			log.Fatal(err)
		}
	case "config":
		resp, err := http.Get(base + "/config")
		if err != nil {
			log.Fatal(err)
		}
		defer resp.Body.Close()
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		os.Stdout.Write(buf.Bytes())
		fmt.Println()
	default:
		usage()
		os.Exit(1)
	}
}

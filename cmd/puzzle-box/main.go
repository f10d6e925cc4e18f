// Command puzzle-box runs the escape-room puzzle box: it polls the touch
// sensor and code buttons, drives the buzzer and indicator LED, and publishes
// game events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/sweeney/puzzle-box/internal/game"
	"github.com/sweeney/puzzle-box/internal/hardware"
	"github.com/sweeney/puzzle-box/internal/mqtt"
	"github.com/sweeney/puzzle-box/internal/status"
	"github.com/sweeney/puzzle-box/internal/web"
)

// defaultEnvFile is where pi-helper writes the network state.
const defaultEnvFile = "/run/pi-helper.env"

type options struct {
	poll       time.Duration
	broker     string
	heartbeat  time.Duration
	pinTouch   int
	pinButtons [game.NumButtons]int
	pinBuzzer  int
	pwmChip    string
	pwmPeriod  int
	adcPath    string
	httpAddr   string
	envFile    string
	printState bool
}

func main() {
	var o options
	flag.DurationVar(&o.poll, "poll", 10*time.Millisecond, "Input polling interval")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.IntVar(&o.pinTouch, "pin-touch", hardware.DefaultPinTouch, "BCM pin number for the touch sensor")
	flag.IntVar(&o.pinButtons[0], "pin-button0", hardware.DefaultPinButton0, "BCM pin number for button 0")
	flag.IntVar(&o.pinButtons[1], "pin-button1", hardware.DefaultPinButton1, "BCM pin number for button 1")
	flag.IntVar(&o.pinButtons[2], "pin-button2", hardware.DefaultPinButton2, "BCM pin number for button 2")
	flag.IntVar(&o.pinBuzzer, "pin-buzzer", hardware.DefaultPinBuzzer, "BCM pin number for the buzzer")
	flag.StringVar(&o.pwmChip, "pwm-chip", hardware.DefaultPWMChip, "sysfs PWM chip driving the RGB LED")
	flag.IntVar(&o.pwmPeriod, "pwm-period", hardware.DefaultPWMPeriodNs, "PWM period in nanoseconds")
	flag.StringVar(&o.adcPath, "adc", hardware.DefaultADCPath, "sysfs IIO file for the pulse sensor")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&o.envFile, "env-file", defaultEnvFile, "pi-helper environment file (empty to skip)")
	flag.BoolVar(&o.printState, "print-state", false, "Print current input levels and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	fs := afero.NewOsFs()
	adc := hardware.NewADC(fs, o.adcPath)

	// Initialize GPIO
	reader, err := hardware.NewRealReader(o.pinTouch, o.pinButtons)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if o.printState {
		sample, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Println(describeSample(sample, adc))
		return nil
	}

	buzzer, err := hardware.NewBuzzer(o.pinBuzzer)
	if err != nil {
		return fmt.Errorf("init buzzer: %w", err)
	}
	defer buzzer.Close()

	led, err := hardware.NewPWMLED(fs, o.pwmChip, hardware.DefaultPWMChannels, o.pwmPeriod)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer led.Close()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(o.broker)
	defer publisher.Close()

	startTime := time.Now()
	panel := hardware.NewPanel(buzzer, led, publisher)
	session := game.NewSession(panel, adc, startTime)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(startTime, status.Config{
		PollMs:      o.poll.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
	})
	loadEnvFile(o.envFile)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: poll=%v broker=%s heartbeat=%v puzzle=%v code=%v",
		o.poll, o.broker, o.heartbeat, game.PuzzleTimeLimit, game.CodeTimeLimit)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, session, publisher, publisher, tracker, o.heartbeat, o.envFile, time.Now, ticker.C, sigCh)
}

func runLoop(reader hardware.Reader, session *game.Session, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, envFile string, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			sample, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			events := session.Tick(t, sample.Touch, sample.Buttons)

			for _, event := range events {
				log.Printf("event: %s (state=%s step=%d round=%s)", event.Type, event.State, event.Step, event.Round)
				if tracker != nil {
					tracker.RecordEvent(event)
				}
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(gameStatus(session, t))
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if hbData := session.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v started=%d successes=%d failures=%d",
					hbData.Uptime, hbData.Counts.Started, hbData.Counts.Successes, hbData.Counts.Failures)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					loadEnvFile(envFile)
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func gameStatus(session *game.Session, now time.Time) status.Game {
	return status.Game{
		State:     session.State(),
		Round:     session.Round(),
		Step:      session.Step(),
		Presses:   session.Presses(),
		Remaining: session.Remaining(now),
		Counts:    session.CountsSnapshot(),
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// loadEnvFile imports the pi-helper file into the process environment,
// replacing stale values. A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Overload(path); err != nil && !os.IsNotExist(err) {
		log.Printf("env file %s: %v", path, err)
	}
}

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func describeSample(sample hardware.Sample, aux game.AuxSource) string {
	line := fmt.Sprintf("TOUCH: %s", levelString(sample.Touch))
	for i, pressed := range sample.Buttons {
		line += fmt.Sprintf(", B%d: %s", i, levelString(pressed))
	}
	if raw, err := aux.ReadAux(); err != nil {
		line += ", AUX: unavailable"
	} else {
		line += fmt.Sprintf(", AUX: %d (%d bpm)", raw, game.PulseFromRaw(raw))
	}
	return line
}

func levelString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/environment"
	"github.com/binkynet/LedWorker/pkg/logging"
	"github.com/binkynet/LedWorker/pkg/mqtt"
	"github.com/binkynet/LedWorker/pkg/server"
	"github.com/binkynet/LedWorker/pkg/service/bridge"
	"github.com/binkynet/LedWorker/pkg/service/requests"
	"github.com/binkynet/LedWorker/pkg/service/worker"
)

const (
	projectName = "BinkyNet LED Worker"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
	maskAny        = errors.WithStack
)

func main() {
	var levelFlag string
	var configPath string
	var showVersion bool
	var bridgeType, mode, redPin, greenPin, bluePin string
	var frequency, maxDuty int
	var i2cBus string
	var i2cAddress int
	var serverHost string
	var serverPort int
	var mqttBroker, mqttTopic string
	var initialEffect string

	defaults := model.DefaultConfiguration()
	pflag.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	pflag.StringVarP(&configPath, "config", "c", "", "Path of YAML configuration file")
	pflag.BoolVar(&showVersion, "version", false, "Show version and exit")
	pflag.StringVarP(&bridgeType, "bridge", "b", string(defaults.Bridge), "Type of bridge to use (auto|periph|gpio|pca9685|virtual)")
	pflag.StringVarP(&mode, "mode", "m", string(defaults.Mode), "Type of LED driver (binary|pwm)")
	pflag.StringVar(&redPin, "red-pin", string(defaults.RedPin), "Pin of the red channel")
	pflag.StringVar(&greenPin, "green-pin", string(defaults.GreenPin), "Pin of the green channel")
	pflag.StringVar(&bluePin, "blue-pin", string(defaults.BluePin), "Pin of the blue channel")
	pflag.IntVar(&frequency, "frequency", defaults.Frequency, "PWM frequency in Hz")
	pflag.IntVar(&maxDuty, "max-duty", defaults.MaxDuty, "Highest PWM duty cycle value")
	pflag.StringVar(&i2cBus, "i2c-bus", defaults.I2CBus, "I2C bus of the PCA9685 (empty for the first bus)")
	pflag.IntVar(&i2cAddress, "i2c-address", defaults.I2CAddress, "I2C address of the PCA9685")
	pflag.StringVar(&serverHost, "host", defaults.Host, "Host address the HTTP server will listen on")
	pflag.IntVar(&serverPort, "port", defaults.Port, "Port the HTTP server will listen on (0 to disable)")
	pflag.StringVar(&mqttBroker, "mqtt-broker", "", "Address (host:port) of the MQTT broker")
	pflag.StringVar(&mqttTopic, "mqtt-topic", defaults.MQTTTopic, "Prefix of all MQTT topics")
	pflag.StringVarP(&initialEffect, "effect", "e", "", "Effect to start with (e.g. demo, rainbow)")
	pflag.Parse()

	if showVersion {
		fmt.Printf("%s version %s build %s\n", projectName, projectVersion, projectBuild)
		return
	}

	// Load configuration; flags that are set override file & environment
	conf, err := model.LoadConfiguration(configPath)
	if err != nil {
		Exitf("Failed to load configuration: %v\n", err)
	}
	flags := pflag.CommandLine
	if flags.Changed("bridge") {
		conf.Bridge = model.BridgeType(bridgeType)
	}
	if flags.Changed("mode") {
		conf.Mode = model.DriverMode(mode)
	}
	if flags.Changed("red-pin") {
		conf.RedPin = model.Pin(redPin)
	}
	if flags.Changed("green-pin") {
		conf.GreenPin = model.Pin(greenPin)
	}
	if flags.Changed("blue-pin") {
		conf.BluePin = model.Pin(bluePin)
	}
	if flags.Changed("frequency") {
		conf.Frequency = frequency
	}
	if flags.Changed("max-duty") {
		conf.MaxDuty = maxDuty
	}
	if flags.Changed("i2c-bus") {
		conf.I2CBus = i2cBus
	}
	if flags.Changed("i2c-address") {
		conf.I2CAddress = i2cAddress
	}
	if flags.Changed("host") {
		conf.Host = serverHost
	}
	if flags.Changed("port") {
		conf.Port = serverPort
	}
	if flags.Changed("mqtt-broker") {
		conf.MQTTBroker = mqttBroker
	}
	if flags.Changed("mqtt-topic") {
		conf.MQTTTopic = mqttTopic
	}
	if flags.Changed("effect") {
		conf.InitialEffect = model.EffectType(initialEffect)
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prepare logging
	mqttLogWriter := logging.NewMQTTWriter(ctx)
	logger := zerolog.New(logging.NewMultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, mqttLogWriter)).
		With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(levelFlag); err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	} else {
		logger = logger.Level(level)
	}

	if conf.Bridge == model.BridgeTypeAuto {
		conf.Bridge = environment.AutoDetectBridgeType(logger)
	}
	if err := conf.Validate(); err != nil {
		Exitf("Invalid configuration: %v\n", err)
	}

	br, err := newBridge(ctx, conf, logger)
	if err != nil {
		Exitf("Failed to initialize %s bridge: %v\n", conf.Bridge, err)
	}
	defer br.Close()

	rs := requests.NewService(logger)
	svc, err := worker.NewService(worker.Config{
		LEDConfiguration: conf,
	}, worker.Dependencies{
		Log:      logger,
		Bridge:   br,
		Requests: rs,
	})
	if err != nil {
		br.Close()
		Exitf("Failed to initialize worker: %v\n", err)
	}
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	logger.Info().
		Str("mode", string(conf.Mode)).
		Str("bridge", string(conf.Bridge)).
		Str("red", string(conf.RedPin)).
		Str("green", string(conf.GreenPin)).
		Str("blue", string(conf.BluePin)).
		Msg("LED worker configured")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	// abort turns off & releases the LED before exiting.
	// Run releases all outputs when it returns, also for a canceled context.
	abort := func(message string, args ...interface{}) {
		cancel()
		g.Wait()
		rs.Close()
		br.Close()
		Exitf(message, args...)
	}
	if conf.Port != 0 {
		httpServer, err := server.New(server.Config{
			Host:           conf.Host,
			HTTPPort:       conf.Port,
			ProgramVersion: projectVersion,
		}, logger, svc)
		if err != nil {
			abort("Failed to initialize Server: %v\n", err)
		}
		g.Go(func() error { return httpServer.Run(ctx) })
	}
	if conf.MQTTBroker != "" {
		mqttSvc, err := mqtt.NewService(mqtt.Config{
			BrokerAddress: conf.MQTTBroker,
			ClientID:      conf.MQTTClientID,
			UserName:      conf.MQTTUserName,
			Password:      conf.MQTTPassword,
			TopicPrefix:   conf.MQTTTopic,
		}, mqtt.Dependencies{
			Log:      logger,
			Requests: rs,
			States:   svc,
		})
		if err != nil {
			abort("Failed to initialize MQTT: %v\n", err)
		}
		mqttLogWriter.SetDestination(mqttSvc.Topic(mqtt.TopicLog), mqttSvc)
		mqttLogWriter.Enable(true)
		g.Go(func() error { return mqttSvc.Run(ctx) })
	}
	err = g.Wait()
	rs.Close()
	if err != nil {
		// Worker has released the LED by now
		br.Close()
		Exitf("Service run failed: %v\n", err)
	}
}

// newBridge creates the bridge of the given type.
func newBridge(ctx context.Context, conf model.LEDConfiguration, log zerolog.Logger) (bridge.API, error) {
	switch conf.Bridge {
	case model.BridgeTypePeriph:
		br, err := bridge.NewPeriphBridge(log)
		return br, maskAny(err)
	case model.BridgeTypeGPIO:
		br, err := bridge.NewGPIOBridge(log)
		return br, maskAny(err)
	case model.BridgeTypePCA9685:
		bus, err := bridge.OpenI2CBus(conf.I2CBus)
		if err != nil {
			return nil, maskAny(err)
		}
		br, err := bridge.NewPCA9685Bridge(ctx, log, bus, uint16(conf.I2CAddress), conf.Frequency)
		if err != nil {
			bus.Close()
			return nil, maskAny(err)
		}
		return br, nil
	case model.BridgeTypeVirtual:
		return bridge.NewVirtualBridge(), nil
	default:
		return nil, errors.Wrapf(model.ValidationError, "unknown bridge type '%s'", conf.Bridge)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}

package messaging

import (
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by messaging.driver.
const (
	DriverNATS  = "nats"
	DriverKafka = "kafka"
	DriverNoop  = "noop"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the settings of every driver; only the selected
// driver's section is read.
type FactoryOptions struct {
	Kafka KafkaConfig
	NATS  NATSConfig
}

var drivers = map[string]func(FactoryOptions) (Messaging, error){
	DriverKafka: func(o FactoryOptions) (Messaging, error) { return NewKafka(o.Kafka) },
	DriverNATS:  func(o FactoryOptions) (Messaging, error) { return NewNATS(o.NATS) },
	DriverNoop:  func(FactoryOptions) (Messaging, error) { return NewNoop(), nil },
	"":          func(FactoryOptions) (Messaging, error) { return NewNoop(), nil },
}

// NewFromDriver builds the publisher named by driver. Empty means noop.
func NewFromDriver(driver string, opts FactoryOptions) (Messaging, error) {
	build, ok := drivers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	return build(opts)
}

// Package mqtt provides MQTT client connectivity for the glowstate
// event surface.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The snapshot manager publishes a JSON event after every capture or
// restore batch, and the service publishes a retained status message
// so consumers can tell a silent service from a crashed one:
//
//	glowstate/event/capture   – capture batch completed
//	glowstate/event/restore   – restore batch completed
//	glowstate/system/status   – retained online/offline + LWT
//
// The event surface is one-directional: glowstate never acts on
// received messages, subscriptions exist for observation tooling.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Watch all batch events
//	err = client.Subscribe(mqtt.Topics{}.AllEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("%s: %s", topic, payload)
//	        return nil
//	    })
package mqtt

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/aurorelabs/glowstate/internal/device"
)

// LAN protocol defaults. Devices listen for commands on the command
// port and address replies to the response port on the sender's host.
const (
	DefaultCommandPort  = 4003
	DefaultResponsePort = 4002

	// multicastScanAddr is where a scan broadcast is sent; devices on
	// the local network answer with their identity.
	multicastScanAddr = "239.255.255.250:4001"
)

// lanMessage is the envelope every LAN datagram uses, both directions.
type lanMessage struct {
	Msg lanBody `json:"msg"`
}

type lanBody struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data"`
}

// lanStatus is the devStatus reply payload. Brightness is a pointer so
// a reply that omits the field decodes as absent rather than zero.
type lanStatus struct {
	OnOff      int  `json:"onOff"`
	Brightness *int `json:"brightness"`
	Color      struct {
		R uint8 `json:"r"`
		G uint8 `json:"g"`
		B uint8 `json:"b"`
	} `json:"color"`
	ColorTemInKelvin int `json:"colorTemInKelvin"`
}

// lanScanReply is a device's answer to a scan broadcast.
type lanScanReply struct {
	IP     string `json:"ip"`
	Device string `json:"device"`
	SKU    string `json:"sku"`
}

// LANClient talks UDP JSON directly to devices on the local network.
// It is the fast path: no vendor backend, no rate limit, single-digit
// millisecond round trips.
//
// Set commands are fire-and-forget on the wire; only state queries and
// scans produce replies. One socket is shared for all traffic and a
// lock serialises query exchanges so replies cannot be misattributed.
//
// Thread Safety: safe for concurrent use.
type LANClient struct {
	conn        net.PacketConn
	commandPort int
	timeout     time.Duration
	mu          sync.Mutex // serialises request/reply exchanges
	logger      Logger
}

// NewLANClient opens the shared UDP socket on responsePort.
// A responsePort of 0 binds an ephemeral port, which only works with
// devices that reply to the datagram's source address.
func NewLANClient(responsePort, commandPort int, timeout time.Duration) (*LANClient, error) {
	if commandPort == 0 {
		commandPort = DefaultCommandPort
	}

	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", responsePort))
	if err != nil {
		return nil, fmt.Errorf("binding LAN socket: %w", err)
	}

	return &LANClient{
		conn:        conn,
		commandPort: commandPort,
		timeout:     timeout,
		logger:      noopLogger{},
	}, nil
}

// SetLogger sets the logger for the LAN client.
func (c *LANClient) SetLogger(logger Logger) {
	c.logger = logger
}

// Close releases the UDP socket.
func (c *LANClient) Close() error {
	return c.conn.Close()
}

// QueryState reads a device's current state over the LAN.
func (c *LANClient) QueryState(ctx context.Context, addr string) (device.State, error) {
	reply, err := c.exchange(ctx, addr, "devStatus", struct{}{})
	if err != nil {
		return device.State{}, err
	}

	var status lanStatus
	if err := json.Unmarshal(reply.Msg.Data, &status); err != nil {
		return device.State{}, fmt.Errorf("decoding devStatus: %w", err)
	}

	state := device.State{
		Brightness: status.Brightness,
		Raw:        map[string]any{"devStatus": json.RawMessage(reply.Msg.Data)},
	}
	if status.OnOff == 1 {
		state.Power = device.PowerOn
	} else {
		state.Power = device.PowerOff
	}
	if status.ColorTemInKelvin != 0 {
		k := status.ColorTemInKelvin
		state.ColorTempK = &k
	} else {
		packed := device.Color{R: status.Color.R, G: status.Color.G, B: status.Color.B}.Packed()
		state.ColorPacked = &packed
	}

	return state, nil
}

// SetPower switches a device on or off over the LAN.
func (c *LANClient) SetPower(ctx context.Context, addr string, on bool) error {
	value := 0
	if on {
		value = 1
	}
	return c.command(ctx, addr, "turn", map[string]int{"value": value})
}

// SetBrightness sets a device's brightness over the LAN.
func (c *LANClient) SetBrightness(ctx context.Context, addr string, level int) error {
	return c.command(ctx, addr, "brightness", map[string]int{"value": level})
}

// SetColor sets a device's RGB color over the LAN. A color temperature
// of 0 in the colorwc payload means "use the RGB channels".
func (c *LANClient) SetColor(ctx context.Context, addr string, color device.Color) error {
	return c.command(ctx, addr, "colorwc", map[string]any{
		"color":            map[string]uint8{"r": color.R, "g": color.G, "b": color.B},
		"colorTemInKelvin": 0,
	})
}

// SetColorTemperature sets a device's white temperature over the LAN.
func (c *LANClient) SetColorTemperature(ctx context.Context, addr string, kelvin int) error {
	return c.command(ctx, addr, "colorwc", map[string]any{
		"color":            map[string]uint8{"r": 0, "g": 0, "b": 0},
		"colorTemInKelvin": kelvin,
	})
}

// Scan broadcasts a discovery request and collects replies until the
// timeout elapses. It returns device id → LAN address.
func (c *LANClient) Scan(ctx context.Context, timeout time.Duration) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	maddr, err := net.ResolveUDPAddr("udp4", multicastScanAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving scan address: %w", err)
	}

	payload, err := encodeLAN("scan", map[string]string{"account_topic": "reserve"})
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.WriteTo(payload, maddr); err != nil {
		return nil, fmt.Errorf("sending scan broadcast: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("setting scan deadline: %w", err)
	}

	found := make(map[string]string)
	buf := make([]byte, 4096)
	for {
		n, _, err := c.conn.ReadFrom(buf)
		if err != nil {
			// Deadline expiry ends the collection window.
			break
		}

		var msg lanMessage
		if err := json.Unmarshal(buf[:n], &msg); err != nil || msg.Msg.Cmd != "scan" {
			continue
		}
		var reply lanScanReply
		if err := json.Unmarshal(msg.Msg.Data, &reply); err != nil || reply.Device == "" {
			continue
		}
		found[reply.Device] = reply.IP
	}

	c.logger.Info("LAN scan complete", "found", len(found))
	return found, nil
}

// command sends one fire-and-forget datagram to a device.
func (c *LANClient) command(ctx context.Context, addr, cmd string, data any) error {
	if addr == "" {
		return ErrNoAddress
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(addr, fmt.Sprintf("%d", c.commandPort)))
	if err != nil {
		return fmt.Errorf("resolving device address: %w", err)
	}

	payload, err := encodeLAN(cmd, data)
	if err != nil {
		return err
	}
	if _, err := c.conn.WriteTo(payload, target); err != nil {
		return fmt.Errorf("sending %s: %w", cmd, err)
	}

	c.logger.Debug("LAN command sent", "addr", addr, "cmd", cmd)
	return nil
}

// exchange sends a datagram and waits for the device's reply.
func (c *LANClient) exchange(ctx context.Context, addr, cmd string, data any) (*lanMessage, error) {
	if addr == "" {
		return nil, ErrNoAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	target, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(addr, fmt.Sprintf("%d", c.commandPort)))
	if err != nil {
		return nil, fmt.Errorf("resolving device address: %w", err)
	}

	payload, err := encodeLAN(cmd, data)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.WriteTo(payload, target); err != nil {
		return nil, fmt.Errorf("sending %s: %w", cmd, err)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("setting read deadline: %w", err)
	}

	buf := make([]byte, 4096)
	for {
		n, from, err := c.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, fmt.Errorf("%w: %s %s", ErrTimeout, addr, cmd)
			}
			return nil, fmt.Errorf("reading reply: %w", err)
		}

		// Replies from other devices on the shared socket are stale
		// scan answers or misdirected traffic.
		if host, _, err := net.SplitHostPort(from.String()); err == nil && host != addr {
			continue
		}

		var msg lanMessage
		if err := json.Unmarshal(buf[:n], &msg); err != nil || msg.Msg.Cmd != cmd {
			continue
		}
		return &msg, nil
	}
}

// encodeLAN wraps a command and payload in the datagram envelope.
func encodeLAN(cmd string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s payload: %w", cmd, err)
	}
	payload, err := json.Marshal(lanMessage{Msg: lanBody{Cmd: cmd, Data: raw}})
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", cmd, err)
	}
	return payload, nil
}

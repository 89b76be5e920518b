package display

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Surface receives every rendered frame.
type Surface interface {
	Show(index int, img *image.RGBA) error
	Close() error
}

// NopSurface discards frames.
type NopSurface struct{}

func (NopSurface) Show(int, *image.RGBA) error { return nil }
func (NopSurface) Close() error                { return nil }

// PNGDirSurface keeps Dir/current.png in sync with the displayed frame.
type PNGDirSurface struct {
	Dir string
}

func NewPNGDirSurface(dir string) (*PNGDirSurface, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &PNGDirSurface{Dir: dir}, nil
}

func (s *PNGDirSurface) Show(index int, img *image.RGBA) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}

	// Write then rename so readers never see a partial file.
	tmp := filepath.Join(s.Dir, ".current.png.tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.Dir, "current.png"))
}

func (s *PNGDirSurface) Close() error { return nil }

// Packet is one displayed frame on the wire.
type Packet struct {
	Index int
	Image *image.RGBA
}

// MarshalBinary encodes the packet as little-endian width, height and
// frame index (uint16 each) followed by RGB triples in row order.
func (p *Packet) MarshalBinary() ([]byte, error) {
	b := p.Image.Rect
	if b.Dx() > 0xffff || b.Dy() > 0xffff || p.Index > 0xffff {
		return nil, fmt.Errorf("frame %d (%dx%d) does not fit the packet header", p.Index, b.Dx(), b.Dy())
	}

	data := make([]byte, 6, 6+b.Dx()*b.Dy()*3)
	binary.LittleEndian.PutUint16(data[0:], uint16(b.Dx()))
	binary.LittleEndian.PutUint16(data[2:], uint16(b.Dy()))
	binary.LittleEndian.PutUint16(data[4:], uint16(p.Index))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := p.Image.RGBAAt(x, y)
			data = append(data, c.R, c.G, c.B)
		}
	}
	return data, nil
}

// Publisher is the part of mqtt.Client the surface needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSurface streams displayed frames to a broker.
type MQTTSurface struct {
	client  Publisher
	topic   string
	qos     byte
	timeout time.Duration
	log     *slog.Logger

	disconnect func()
}

func NewMQTTSurface(client Publisher, topic string, qos byte, log *slog.Logger) *MQTTSurface {
	if log == nil {
		log = slog.Default()
	}
	return &MQTTSurface{client: client, topic: topic, qos: qos, timeout: 2 * time.Second, log: log}
}

// DialMQTT connects to broker and returns a surface publishing on topic.
func DialMQTT(broker, clientID, topic string, qos byte, log *slog.Logger) (*MQTTSurface, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true)
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "broker", broker, "error", err)
	}

	client := mqtt.NewClient(opts)
	log.Info("connecting to mqtt broker", "broker", broker)

	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	s := NewMQTTSurface(client, topic, qos, log)
	s.disconnect = func() { client.Disconnect(250) }
	return s, nil
}

func (s *MQTTSurface) Show(index int, img *image.RGBA) error {
	payload, err := (&Packet{Index: index, Image: img}).MarshalBinary()
	if err != nil {
		return err
	}

	token := s.client.Publish(s.topic, s.qos, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	s.log.Debug("frame published", "topic", s.topic, "index", index, "size", len(payload))
	return nil
}

func (s *MQTTSurface) Close() error {
	if s.disconnect != nil {
		s.disconnect()
	}
	return nil
}

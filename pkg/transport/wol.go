package transport

import (
	"fmt"
	"net"
	"strconv"
)

// magicPacket builds a Wake-on-LAN frame: six 0xFF bytes followed by
// the target MAC repeated sixteen times.
func magicPacket(mac string) ([]byte, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("invalid MAC address %q: %w", mac, err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("invalid MAC address %q: need 6 bytes, got %d", mac, len(hw))
	}

	packet := make([]byte, 0, 102)
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, hw...)
	}
	return packet, nil
}

// SendMagicPacket wakes a TV by broadcasting a WOL frame over UDP.
func SendMagicPacket(mac, broadcastIP string, port int) error {
	packet, err := magicPacket(mac)
	if err != nil {
		return err
	}

	conn, err := net.Dial("udp", net.JoinHostPort(broadcastIP, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("open WOL socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		return fmt.Errorf("send WOL packet: %w", err)
	}
	return nil
}

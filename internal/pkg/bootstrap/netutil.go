package bootstrap

import (
	"net"

	"github.com/pkg/errors"
)

// GetOutboundIP 通过一次 UDP "拨号" 拿到本机对外通信使用的 IP，不会真正发送数据包
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", errors.Wrap(err, "dial udp")
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", errors.New("unexpected local address type")
	}
	return addr.IP.String(), nil
}

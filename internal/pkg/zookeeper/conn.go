package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

// Conn 包装 zk.Conn，方便以后挂载统一的日志与重连策略
type Conn struct {
	*zk.Conn
}

// Connect 连接 ZooKeeper 集群，并等待会话建立
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	if len(servers) == 0 {
		return nil, errors.New("no zookeeper servers configured")
	}
	c, events, err := zk.Connect(servers, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, errors.Wrap(err, "connect zookeeper")
	}

	deadline := time.After(sessionTimeout)
	for {
		select {
		case ev := <-events:
			if ev.State == zk.StateHasSession {
				return &Conn{Conn: c}, nil
			}
		case <-deadline:
			c.Close()
			return nil, errors.New("timeout waiting for zookeeper session")
		}
	}
}

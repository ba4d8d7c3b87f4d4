// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-zookeeper/zk"
)

const (
	lockRoot   = "/bazaar_locks" // 所有分布式锁的根节点
	lockPrefix = "lock-"
)

// ErrLockTimeout ctx 到期前没有拿到锁
var ErrLockTimeout = errors.New("timeout waiting for lock")

// DistributedLock 基于临时顺序节点的公平锁
type DistributedLock struct {
	conn     *Conn
	path     string // 例如 /bazaar_locks/payment-method-migration
	lockNode string // 成功创建后自己的节点路径
}

// NewDistributedLock 创建一个分布式锁实例，必要时创建父节点
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	lockPath := lockRoot + "/" + resourceID
	for _, p := range []string{lockRoot, lockPath} {
		if err := ensureNode(conn, p); err != nil {
			return nil, err
		}
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

func ensureNode(conn *Conn, path string) error {
	exists, _, err := conn.Exists(path)
	if err != nil {
		return fmt.Errorf("check node %s: %w", path, err)
	}
	if exists {
		return nil
	}
	_, err = conn.Create(path, nil, 0, zk.WorldACL(zk.PermAll))
	if err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return fmt.Errorf("create node %s: %w", path, err)
	}
	return nil
}

// sequenceOf 取出节点名末尾的 10 位序号。
// protected 节点的名字带有 "_c_<guid>-" 前缀，不能直接按名字排序。
func sequenceOf(node string) string {
	if len(node) < 10 {
		return node
	}
	return node[len(node)-10:]
}

// Lock 阻塞直到拿到锁或 ctx 结束
func (l *DistributedLock) Lock(ctx context.Context) error {
	// 1. 创建临时顺序节点
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/"+lockPrefix, nil, zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath
	myNodeName := strings.TrimPrefix(nodePath, l.path+"/")

	for {
		// 2. 获取所有子节点并按序号排序
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			l.release()
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		sort.Slice(children, func(i, j int) bool {
			return sequenceOf(children[i]) < sequenceOf(children[j])
		})

		// 3. 自己是最小节点则获得锁
		idx := -1
		for i, child := range children {
			if child == myNodeName {
				idx = i
				break
			}
		}
		if idx < 0 {
			// 会话过期导致节点丢失
			l.lockNode = ""
			return errors.New("lock node disappeared, session may have expired")
		}
		if idx == 0 {
			return nil
		}

		// 4. 只监听前一个节点，避免羊群效应
		prevNodePath := l.path + "/" + children[idx-1]
		exists, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			l.release()
			return fmt.Errorf("failed to watch previous node: %w", err)
		}
		if !exists {
			continue
		}

		select {
		case <-eventChan:
			// 不论是删除还是其它事件都重新检查一次
		case <-ctx.Done():
			l.release()
			return ErrLockTimeout
		}
	}
}

// Unlock 释放锁
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	return l.release()
}

func (l *DistributedLock) release() error {
	err := l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
	if err != nil && !errors.Is(err, zk.ErrNoNode) {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	return nil
}

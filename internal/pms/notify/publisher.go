package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/nats-io/nats.go"
)

// Publisher 外部消息通道
type Publisher interface {
	Publish(n *entity.Notification) error
}

// NATSPublisher 把通知发布到 <prefix>.<recipient_id>
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher 连接 NATS
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("tnh-pms"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	if prefix == "" {
		prefix = "pms.notifications"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// Subject 某个接收人的主题
func (p *NATSPublisher) Subject(recipientID uint64) string {
	return fmt.Sprintf("%s.%d", p.prefix, recipientID)
}

// Publish 发布一条通知
func (p *NATSPublisher) Publish(n *entity.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return p.conn.Publish(p.Subject(n.RecipientID), data)
}

// Close 排空并关闭连接
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

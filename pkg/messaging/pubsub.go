package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/go-story-kit/pkg/domain"

	"cloud.google.com/go/pubsub"
)

// PubSubPublisher は Cloud Pub/Sub へメッセージを送信します。
type PubSubPublisher struct {
	client *pubsub.Client
	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubPublisher は ADC で認証した Pub/Sub クライアントを作成します。
func NewPubSubPublisher(ctx context.Context, projectID string) (*PubSubPublisher, error) {
	if projectID == "" {
		return nil, fmt.Errorf("プロジェクトIDは必須です")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("Pub/Sub クライアントの初期化に失敗しました: %w", err)
	}
	return &PubSubPublisher{client: client, topics: make(map[string]*pubsub.Topic)}, nil
}

// Publish はメッセージを送信し、サーバーが採番したメッセージ ID を返すまで待ちます。
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, msg Message) (string, error) {
	t := p.topic(topic)
	res := t.Publish(ctx, &pubsub.Message{Data: msg.Data, Attributes: msg.Attributes})
	id, err := res.Get(ctx)
	if err != nil {
		return "", domain.NewCollaboratorError(domain.CollaboratorChannel, "publish "+topic, err)
	}
	return id, nil
}

func (p *PubSubPublisher) topic(name string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return t
	}
	t := p.client.Topic(name)
	p.topics[name] = t
	return t
}

// Close は送信待ちのメッセージを流し切ってからクライアントを閉じます。
func (p *PubSubPublisher) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.mu.Unlock()
	return p.client.Close()
}

// LogPublisher はメッセージを送信せずログに記録するだけの Publisher です。
// プロジェクトを指定しないローカル実行で使います。
type LogPublisher struct {
	mu  sync.Mutex
	seq int
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, msg Message) (string, error) {
	p.mu.Lock()
	p.seq++
	id := fmt.Sprintf("local-%d", p.seq)
	p.mu.Unlock()

	slog.InfoContext(ctx, "Message recorded locally (not sent)",
		"topic", topic,
		"message_id", id,
		"bytes", len(msg.Data),
		"correlation_id", msg.CorrelationID(),
	)
	return id, nil
}

package messaging

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AttrCorrelationID は同じアイデア行から派生したメッセージを結びつける属性名です。
const AttrCorrelationID = "correlation_id"

// ErrMalformedEnvelope はプッシュ配信の本文が解釈できないことを示します。
var ErrMalformedEnvelope = errors.New("malformed push envelope")

// Message は送受信されるメッセージです。
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// CorrelationID はメッセージ属性から相関 ID を返します。
func (m Message) CorrelationID() string {
	return m.Attributes[AttrCorrelationID]
}

// Publisher は名前付きトピックへメッセージを1回だけ送信します（再送なし）。
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) (string, error)
}

// pushEnvelope は Pub/Sub プッシュサブスクリプションのリクエスト本文です。
type pushEnvelope struct {
	Message struct {
		Data       string            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
		// MessageIDSnake はプッシュ配信が messageId と併せて送る snake_case の別名です。
		MessageIDSnake string `json:"message_id,omitempty"`
		PublishTime    string `json:"publishTime,omitempty"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DecodePush はプッシュ配信の本文から Message を取り出します。data は base64 で復号します。
func DecodePush(body []byte) (Message, error) {
	var env pushEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if strings.TrimSpace(env.Message.Data) == "" {
		return Message{}, fmt.Errorf("%w: message.data is empty", ErrMalformedEnvelope)
	}
	data, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	id := env.Message.MessageID
	if id == "" {
		id = env.Message.MessageIDSnake
	}
	return Message{ID: id, Data: data, Attributes: env.Message.Attributes}, nil
}

// EncodePush は Message をプッシュ配信と同じ形式に変換します。ローカル実行やテストで使います。
func EncodePush(msg Message, subscription string) ([]byte, error) {
	var env pushEnvelope
	env.Message.Data = base64.StdEncoding.EncodeToString(msg.Data)
	env.Message.Attributes = msg.Attributes
	env.Message.MessageID = msg.ID
	env.Subscription = subscription
	return json.Marshal(env)
}

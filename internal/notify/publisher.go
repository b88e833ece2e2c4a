package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// collaboratorAddedQueue は共同編集者追加イベントの発行先キュー名。
const collaboratorAddedQueue = "collaborator.added"

// Notifier は共同編集者追加イベントの発行インターフェース。
// サービス層はこのインターフェースにのみ依存し、AMQP未設定の環境では
// nilを渡して通知を無効化できる。
type Notifier interface {
	// CollaboratorAdded はイベントを発行する。
	// 発行失敗は呼び出し側でログに記録し、処理は継続する。
	CollaboratorAdded(ctx context.Context, event CollaboratorAddedEvent) error
}

// AMQPPublisher はRabbitMQへイベントを発行するNotifierの実装。
// 接続とチャネルは起動時に1度だけ確立し、プロセス終了まで使い回す。
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewAMQPPublisher はブローカーへ接続し、発行先キューを宣言して
// AMQPPublisherを生成する。キュー宣言は冪等で、メッセージは永続化される。
func NewAMQPPublisher(amqpURL string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial message broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		collaboratorAddedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: ch,
		logger:  logger,
	}, nil
}

// CollaboratorAdded はイベントをJSONで発行する。メッセージは永続化指定。
func (p *AMQPPublisher) CollaboratorAdded(ctx context.Context, event CollaboratorAddedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",                     // default exchange
		collaboratorAddedQueue, // routing key = queue name
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("collaborator added event published",
		slog.String("book_id", event.BookID),
		slog.String("collaborator_id", event.CollaboratorID),
	)
	return nil
}

// Close はチャネルと接続を閉じる。
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Notifier = (*AMQPPublisher)(nil)

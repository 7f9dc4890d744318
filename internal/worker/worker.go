package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/payment"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/sms"
	"github.com/cradoe/splitsy/internal/smtp"
	"github.com/cradoe/splitsy/internal/stream"
)

const (
	// contributionChargeGroupID is used by workers that charge newly created contributions
	contributionChargeGroupID = "contribution-charge-group"

	// poolFundedGroupID is used by workers that announce pools reaching their target
	poolFundedGroupID = "pool-funded-group"

	// splitNotifyGroupID is used by workers that text pay links to split participants
	splitNotifyGroupID = "split-notify-group"
)

type ContributionSettler interface {
	Settle(c *models.Contribution, status, reference, failureReason string) (bool, error)
}

type ContributionObserver interface {
	ContributionProcessed(status string)
}

// Our workers typically need access to repositories and the event stream.
// Each one consumes a single topic until Ctx is cancelled.
type Worker struct {
	KafkaStream      *stream.KafkaStream
	Ctx              context.Context
	Helper           *helper.HelperRepository
	Logger           *slog.Logger
	UserRepo         repository.UserRepository
	GroupRepo        repository.GroupRepository
	PoolRepo         repository.PoolRepository
	ContributionRepo repository.ContributionRepository
	SplitRepo        repository.SplitRepository
	Settler          ContributionSettler
	Payments         payment.Provider
	Sms              sms.Sender
	Mailer           smtp.MailerInterface
	Metrics          ContributionObserver
}

func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream:      wk.KafkaStream,
		Ctx:              wk.Ctx,
		Helper:           wk.Helper,
		Logger:           wk.Logger,
		UserRepo:         wk.UserRepo,
		GroupRepo:        wk.GroupRepo,
		PoolRepo:         wk.PoolRepo,
		ContributionRepo: wk.ContributionRepo,
		SplitRepo:        wk.SplitRepo,
		Settler:          wk.Settler,
		Payments:         wk.Payments,
		Sms:              wk.Sms,
		Mailer:           wk.Mailer,
		Metrics:          wk.Metrics,
	}
}

// Start runs every worker in its own goroutine, tracked by the helper's WaitGroup.
func (wk *Worker) Start() {
	workers := []struct {
		groupID string
		topic   string
		handle  func([]byte) error
	}{
		{contributionChargeGroupID, stream.ContributionChargeTopic, wk.handleContributionCharge},
		{poolFundedGroupID, stream.PoolFundedTopic, wk.handlePoolFunded},
		{splitNotifyGroupID, stream.SplitNotifyTopic, wk.handleSplitNotify},
	}

	for _, w := range workers {
		wk.Helper.WG.Add(1)
		go func() {
			defer wk.Helper.WG.Done()
			wk.consume(w.groupID, w.topic, w.handle)
		}()
	}
}

// consume polls topic until the context ends. A message whose handler fails is
// logged and skipped; handlers are written so a redelivery is harmless.
func (wk *Worker) consume(groupID, topic string, handle func([]byte) error) {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: groupID,
		Topic:   topic,
	})
	if err != nil {
		wk.Logger.Error("create consumer", "topic", topic, "error", err)
		return
	}
	defer consumer.Close()

	wk.Logger.Info("worker started", "topic", topic, "group", groupID)

	for {
		select {
		case <-wk.Ctx.Done():
			wk.Logger.Info("worker stopping", "topic", topic)
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				err := handle(e.Value)
				if err != nil {
					wk.Logger.Error("handle message", "topic", topic, "partition", e.TopicPartition.String(), "error", err)
				}
			case kafka.Error:
				wk.Logger.Warn("consumer error", "topic", topic, "error", e)
			}
		}
	}
}

func decode[T any](message []byte) (*T, error) {
	var event T
	if err := json.Unmarshal(message, &event); err != nil {
		return nil, fmt.Errorf("decode %T: %w", event, err)
	}

	return &event, nil
}

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"whchecker-backend/internal/bootstrap"
	"whchecker-backend/internal/queue"
	"whchecker-backend/internal/shared/config"
	"whchecker-backend/internal/shared/metrics"
	"whchecker-backend/internal/shared/telemetry"
	"whchecker-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 120
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()
	if err := telemetry.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer telemetry.Close()

	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := max(1, cfg.WorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	sqsClient, err := queue.NewSQSAPI(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{SkipLocalQueue: true})
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue":       queueURL,
		"concurrency": concurrency,
		"visibility":  visibilitySeconds,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(context.WithoutCancel(ctx), sqsClient, queueURL, app.Processor, m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.Close(closeCtx)
}

type sqsAPI interface {
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage deletes the message when it succeeded or can never succeed;
// anything else is left for SQS to redeliver.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, processor workerproc.Processor, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, decoded)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.message.unrecoverable", fields)
		metrics.IncQueueMessages(true)
		if workerproc.Unrecoverable(err) {
			deleteMessage(ctx, client, queueURL, msg, decoded)
		}
		return
	}

	telemetry.Debug("worker.message.received", baseFields(msg, decoded))

	ctxWithParsed := workerproc.WithParsedMessage(ctx, decoded)
	if err := workerproc.HandleMessage(ctxWithParsed, processor, body); err != nil {
		fields := baseFields(msg, decoded)
		var procErr workerproc.ErrProcess
		if errors.As(err, &procErr) && procErr.Err != nil {
			fields["error"] = procErr.Err.Error()
		} else {
			fields["error"] = err.Error()
		}
		telemetry.Error("worker.message.failed", fields)
		metrics.IncQueueMessages(true)
		return
	}

	metrics.IncQueueMessages(false)
	if deleteMessage(ctx, client, queueURL, msg, decoded) {
		telemetry.Debug("worker.message.completed", baseFields(msg, decoded))
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, decoded queue.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, decoded)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.message.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, decoded)
		fields["error"] = err.Error()
		telemetry.Error("worker.message.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, decoded queue.Message) map[string]any {
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if decoded.Channel != "" {
		fields["channel"] = decoded.Channel
		fields["ts"] = decoded.TS
	}
	if strings.TrimSpace(decoded.RequestID) != "" {
		fields["request_id"] = decoded.RequestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

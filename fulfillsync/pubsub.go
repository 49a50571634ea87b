package fulfillsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"github.com/mschmoyer/schmo-store-front-sub003/utils"
)

// PublishSyncRun hands a queued run to the sync topic for asynchronous
// execution. Retried runs go through here; manual runs execute inline.
func PublishSyncRun(ctx context.Context, runId uint, storeId string, integrationId uint) error {
	topicName := strings.TrimSpace(os.Getenv("FULFILLHUB_SYNC_TOPIC"))
	if topicName == "" {
		topicName = "fulfillhub-sync"
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(topicName)
	if envBoolDefault("FULFILLHUB_SYNC_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	payload := SyncPubSubPayload{
		RunId:         runId,
		StoreId:       storeId,
		IntegrationId: integrationId,
	}
	data, _ := json.Marshal(payload)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// PubSubPushHandler accepts push deliveries from the sync subscription.
// It always answers 204 so that malformed messages are dropped instead of
// redelivered forever.
func PubSubPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !envBoolDefault("ENABLE_FULFILLHUB_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload SyncPubSubPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}
		if payload.RunId == 0 || payload.StoreId == "" {
			c.Status(204)
			return
		}

		_ = processSyncRun(c.Request.Context(), payload)
		c.Status(204)
	}
}

// processSyncRun executes one queued run delivered over Pub/Sub. Runs that
// already reached a terminal status are acknowledged without work, which
// makes redelivery harmless.
func processSyncRun(ctx context.Context, payload SyncPubSubPayload) error {
	if payload.RunId == 0 || payload.StoreId == "" {
		return errors.New("invalid payload")
	}

	ctx = utils.SetStoreIdInContext(ctx, payload.StoreId)
	db := config.GetDB().WithContext(ctx)

	var run models.IntegrationSyncRun
	if err := db.Where("id = ? AND store_id = ?", payload.RunId, payload.StoreId).Take(&run).Error; err != nil {
		return err
	}
	if run.Status == models.SyncRunStatusSuccess || run.Status == models.SyncRunStatusFailed || run.Status == models.SyncRunStatusPartial {
		return nil
	}

	var integration models.Integration
	if err := db.Where("id = ? AND store_id = ?", run.IntegrationId, payload.StoreId).Take(&integration).Error; err != nil {
		return err
	}
	if integration.Status != models.IntegrationStatusConnected {
		return utils.ErrIntegrationNotConfigured
	}

	_, err := executeSyncRun(ctx, config.GetDB(), &run, &integration)
	if err != nil {
		config.LogError(config.GetLogger(), "pubsub.go", "processSyncRun", "execute run", payload.RunId, err)
	}
	return err
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

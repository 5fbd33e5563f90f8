package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-chat-platform-be/internal/constant"
	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/repository/implementation"
	"ai-chat-platform-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	require.NoError(t, database.Migrate(gormDB))

	sqlDB, _ := gormDB.DB()
	assert.NoError(t, sqlDB.Ping())

	ctx := context.Background()
	conversationRepo := implementation.NewConversationRepository(gormDB)
	jobRepo := implementation.NewJobRepository(gormDB)
	quotaRepo := implementation.NewQuotaRepository(gormDB)

	ownerId := uuid.New()

	t.Run("Conversation round trip", func(t *testing.T) {
		now := time.Now()
		conversation := &entity.Conversation{
			Id:           uuid.New(),
			OwnerId:      ownerId,
			Title:        "Integration conversation",
			Messages:     make([]entity.ChatMessage, 0),
			LastActivity: now,
			CreatedAt:    now,
		}
		conversation.Append(constant.ChatMessageRoleUser, "hello from the test", now)

		require.NoError(t, conversationRepo.Save(ctx, conversation))

		loaded, err := conversationRepo.FindByOwnerAndId(ctx, ownerId, conversation.Id)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "Integration conversation", loaded.Title)
		require.Len(t, loaded.Messages, 1)
		assert.Equal(t, "hello from the test", loaded.Messages[0].Content)

		deleted, err := conversationRepo.DeleteByOwnerAndId(ctx, ownerId, conversation.Id)
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("Job state transitions", func(t *testing.T) {
		job := &entity.Job{
			Id:             uuid.New(),
			OwnerId:        ownerId,
			ConversationId: uuid.New(),
			Message:        "integration job",
			MaxAttempts:    3,
			State:          entity.JobStateQueued,
			CreatedAt:      time.Now(),
		}
		require.NoError(t, jobRepo.Create(ctx, job))

		now := time.Now()
		job.State = entity.JobStateCompleted
		job.Attempts = 1
		job.Result = "done"
		job.UpdatedAt = &now
		require.NoError(t, jobRepo.Update(ctx, job))

		loaded, err := jobRepo.FindOne(ctx, job.Id)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, entity.JobStateCompleted, loaded.State)
		assert.Equal(t, "done", loaded.Result)
	})

	t.Run("Quota conditional increment", func(t *testing.T) {
		userId := uuid.New()
		require.NoError(t, quotaRepo.Create(ctx, &entity.QuotaRecord{
			UserId:    userId,
			Tier:      constant.SubscriptionTierBasic,
			ResetDate: time.Now(),
		}))

		for i := 0; i < 2; i++ {
			consumed, count, err := quotaRepo.ConsumeIfBelow(ctx, userId, 2)
			require.NoError(t, err)
			assert.True(t, consumed)
			assert.Equal(t, i+1, count)
		}

		consumed, count, err := quotaRepo.ConsumeIfBelow(ctx, userId, 2)
		require.NoError(t, err)
		assert.False(t, consumed)
		assert.Equal(t, 2, count)
	})
}

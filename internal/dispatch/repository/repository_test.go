package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/database/dbtest"
	"github.com/festy23/reviewdesk/internal/dispatch/model"
)

func TestRepository_SaveReplacesSettings(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := New(db, zap.NewNop().Sugar())

	_, err := repo.GetActive(ctx)
	assert.ErrorIs(t, err, model.ErrSettingsNotFound)

	require.NoError(t, repo.Save(ctx, &model.EmailSettings{
		SMTPHost: "smtp.one.test", SMTPPort: 587, EmailAddress: "a@one.test", AppPassword: "p1",
	}))
	require.NoError(t, repo.Save(ctx, &model.EmailSettings{
		SMTPHost: "smtp.two.test", SMTPPort: 465, EmailAddress: "b@two.test", AppPassword: "p2",
	}))

	got, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "smtp.two.test", got.SMTPHost)
	assert.True(t, got.IsActive)

	var count int64
	require.NoError(t, db.Model(&model.EmailSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

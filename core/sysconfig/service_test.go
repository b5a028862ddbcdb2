package sysconfig_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core/sysconfig"
	"github.com/trezcool/mansa/storage/database/inmem"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := sysconfig.NewService(inmemdb.NewSysconfigRepository(inmemdb.Open()))

	conf, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, conf.AllowRegistration)
	assert.False(t, conf.RequireApproval)
	assert.Equal(t, []string{}, conf.BannedWords)

	words, err := svc.SetBannedWords(ctx, sysconfig.BannedWords{Words: []string{" Spam ", "spam", "", "scam"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"spam", "scam"}, words)

	yes, msg := true, "  back soon "
	conf, err = svc.Update(ctx, sysconfig.UpdateConfig{RequireApproval: &yes, MaintenanceMessage: &msg})
	require.NoError(t, err)
	assert.True(t, conf.RequireApproval)
	assert.Equal(t, "back soon", conf.MaintenanceMessage)
	assert.Equal(t, []string{"spam", "scam"}, conf.BannedWords, "untouched fields are kept")

	allowed, requireApproval, err := svc.RegistrationPolicy(ctx)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.True(t, requireApproval)
}

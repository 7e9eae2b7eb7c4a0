package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-roster-backend/internal/config"
	"github.com/Marga-Ghale/ora-roster-backend/internal/repository"
	"github.com/Marga-Ghale/ora-roster-backend/internal/service"
)

func TestSeedData(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, config.ParseEnv(cfg))

	services := service.NewServices(&service.ServiceDeps{
		Config: cfg,
		Repos:  &repository.Repositories{RosterRepo: repository.NewMemoryRosterRepository()},
	})

	SeedData(services)
	SeedData(services)

	ctx := context.Background()
	active, err := services.Roster.ListActive(ctx, DevChannelID)
	require.NoError(t, err)
	assert.Len(t, active, 2, "second run is skipped")

	siege, err := services.Roster.Get(ctx, "dev-siege")
	require.NoError(t, err)
	assert.Len(t, siege.Siege.Attending, 3)
	assert.Equal(t, []string{"dane"}, siege.Siege.Declined)

	run, err := services.Roster.Get(ctx, "dev-dungeon")
	require.NoError(t, err)
	assert.Equal(t, []string{"guildmaster", "aria", "borin"}, run.Dungeon.Participants)
	assert.Len(t, run.Dungeon.Drops, 1)
	require.NoError(t, run.Validate())
}

// internal/seed/seed.go
package seed

import (
	"context"
	"log"
	"time"

	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/service"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// DevChannelID is the channel the development rosters are posted in.
const DevChannelID = "dev-guild-events"

var devMembers = []string{"guildmaster", "aria", "borin", "cass", "dane"}

// SeedData creates a sample siege and dungeon run for local development.
// It does nothing when the dev channel already has active rosters.
func SeedData(services *service.Services) {
	ctx := context.Background()

	existing, err := services.Roster.ListActive(ctx, DevChannelID)
	if err != nil {
		log.Printf("[Seed] ⚠️  Could not check existing rosters: %v", err)
		return
	}
	if len(existing) > 0 {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] 🌱 Creating development rosters...")

	// Events start tomorrow so the expiry sweep leaves them alone.
	date := time.Now().Add(24 * time.Hour).Format("2006-01-02")
	leader := devMembers[0]

	siege, err := services.Roster.CreateSiege(ctx, leader, service.CreateSiegeInput{
		ID:        "dev-siege",
		ChannelID: DevChannelID,
		Date:      date,
		Time:      "20:00",
		Tier:      "3",
	})
	if err != nil {
		log.Printf("[Seed] ❌ Failed to create siege: %v", err)
		return
	}

	run, err := services.Roster.CreateDungeonRun(ctx, leader, service.CreateDungeonInput{
		ID:        "dev-dungeon",
		ChannelID: DevChannelID,
		Dungeon:   "Sunken Crypt",
		PartySize: types.PartySizeSmall,
		Date:      date,
		Time:      "21:30",
		Notes:     "Bring potions.",
	})
	if err != nil {
		log.Printf("[Seed] ❌ Failed to create dungeon run: %v", err)
		return
	}

	siegeIntents := []roster.Intent{
		roster.SelectRole{UserID: "aria", Role: types.JobBlade},
		roster.SelectRole{UserID: "borin", Role: types.JobKnight},
		roster.SelectRole{UserID: "cass", Role: types.JobRingmaster},
		roster.SetAttendance{UserID: "dane", Attending: false},
	}
	dungeonIntents := []roster.Intent{
		roster.SelectRole{UserID: leader, Role: types.JobKnight},
		roster.SelectRole{UserID: "aria", Role: types.JobBlade},
		roster.Join{UserID: "borin"},
		roster.RecordDrop{UserID: "aria", Text: "Crypt Keeper's Ring"},
	}
	apply(ctx, services, siege.ID, siegeIntents)
	apply(ctx, services, run.ID, dungeonIntents)

	log.Printf("✅ Created siege %s and dungeon run %s in channel %s", siege.ID, run.ID, DevChannelID)

	for _, member := range devMembers {
		token, err := services.Auth.GenerateToken(member)
		if err != nil {
			continue
		}
		log.Printf("   └─ dev token for %s: %s", member, token)
	}
}

func apply(ctx context.Context, services *service.Services, rosterID string, intents []roster.Intent) {
	for _, in := range intents {
		if _, err := services.Roster.Submit(ctx, rosterID, in); err != nil {
			log.Printf("[Seed] ⚠️  %s on %s failed: %v", in.Name(), rosterID, err)
		}
	}
}

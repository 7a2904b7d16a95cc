package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-forum-api/internal/config"
	"github.com/noah-isme/gema-forum-api/internal/database"
	"github.com/noah-isme/gema-forum-api/internal/fixtures"
	"github.com/noah-isme/gema-forum-api/internal/repository"
	"github.com/noah-isme/gema-forum-api/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert channels and users from a fixtures file",
	Long: `Upsert channels (by slug) and users (by name) from a YAML fixtures file.

Example:
  forumctl seed --file fixtures.yaml`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var fixturesPath string

func init() {
	seedCmd.Flags().StringVarP(&fixturesPath, "file", "f", "fixtures.yaml", "YAML fixtures file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	file, err := fixtures.Load(fixturesPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; channel cache will expire on its own")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	channels := repository.NewChannelRepository(db)
	cache := service.NewChannelService(channels, redisClient, cfg.ChannelsCacheTTL, logger)

	seeder := service.NewTrustedSeedService(
		channels,
		repository.NewUserRepository(db),
		cache,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	channelCount, err := seeder.SeedChannels(ctx, "", file.Channels)
	if err != nil {
		return fmt.Errorf("seed channels: %w", err)
	}
	userCount, err := seeder.SeedUsers(ctx, "", file.Users)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d channels and %d users\n", channelCount, userCount)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"photo-mapper/api"
	"photo-mapper/config"
	"photo-mapper/model"
	"photo-mapper/storage"
)

func newUserCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var password string
	addCmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db := storage.NewMongoPhotoDB(logger)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
				return err
			}
			defer db.Close(context.Background())
			if err := db.EnsureIndexes(ctx); err != nil {
				return err
			}

			user, err := newUser(args[0], password)
			if err != nil {
				return err
			}
			if err := db.CreateUser(ctx, user); err != nil {
				return err
			}
			logger.Info("user created", zap.String("username", user.Username), zap.String("id", user.ID.Hex()))
			fmt.Fprintln(cmd.OutOrStdout(), user.ID.Hex())
			return nil
		},
	}
	addCmd.Flags().StringVar(&password, "password", "", "password for the new account (required)")
	addCmd.MarkFlagRequired("password")

	userCmd.AddCommand(addCmd)
	return userCmd
}

func newUser(username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	hash, err := api.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &model.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

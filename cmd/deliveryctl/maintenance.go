package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"tasty-burger-backend/internal/config"
	"tasty-burger-backend/internal/repository"
	"tasty-burger-backend/internal/service"
)

func migrateWishlistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-wishlists",
		Short: "Reescribe las wishlists con el formato viejo [{product}] como lista de ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger()

			return withDB(cmd.Context(), cfg, func(db *mongo.Database) error {
				users := service.NewUserService(
					repository.NewMongoUserRepository(db),
					repository.NewMongoOrderRepository(db),
					repository.NewMongoProductRepository(db),
					logger,
				)
				n, err := users.MigrateWishlists(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("migrated %d wishlists\n", n)
				return nil
			})
		},
	}
}

func ensureIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Crea los índices de orders y users",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			return withDB(cmd.Context(), cfg, func(db *mongo.Database) error {
				if err := repository.EnsureIndexes(cmd.Context(), db); err != nil {
					return err
				}
				fmt.Println("indexes ok")
				return nil
			})
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/triviadb"
)

// NewCategoriesCmd prints the remote category list, handy for picking a
// category ID for quiz criteria.
func NewCategoriesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the question categories offered by the remote service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCategories(cmd.Context(), *configPath)
		},
	}
}

func listCategories(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client := triviadb.New(cfg.Trivia.BaseURL, config.Duration(cfg.Trivia.Timeout, 15*time.Second))
	categories, err := client.ListCategories(ctx)
	if err != nil {
		return err
	}

	for _, category := range categories {
		fmt.Printf("%4d  %s\n", category.ID, category.Name)
	}
	return nil
}

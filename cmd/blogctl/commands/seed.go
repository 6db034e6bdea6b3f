package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog/internal/models"
	"blog/internal/repositories"
	"blog/internal/services"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
)

var (
	// seed flags
	seedAuthor string
	seedCount  int
)

// seedCmd fills the database with demo posts
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo posts",
	Long: `Create fake posts owned by an existing user. Intended for development only.

Examples:
  blogctl seed --author admin --count 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer repositories.Close(db)

		users := repositories.NewGORMUserRepository(db)
		posts := repositories.NewGORMPostRepository(db)
		n, err := seedPosts(cmd.Context(), services.NewPostService(posts, users, nil, nil), users, seedAuthor, seedCount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d posts for %s\n", n, seedAuthor)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedAuthor, "author", "a", "", "Username owning the seeded posts")
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", 10, "Number of posts to create")
	_ = seedCmd.MarkFlagRequired("author")
}

// fakePost builds a post input whose content passes the editor's length checks.
func fakePost() services.PostInput {
	return services.PostInput{
		Title:   gofakeit.Sentence(5),
		Excerpt: gofakeit.Sentence(15),
		Content: gofakeit.Paragraph(3, 5, 12, "\n\n"),
	}
}

func seedPosts(ctx context.Context, svc *services.PostService, users repositories.UserRepository, author string, count int) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	user, err := users.GetByUsername(ctx, author)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return 0, fmt.Errorf("user %q does not exist; run create-admin first", author)
		}
		return 0, err
	}

	gofakeit.Seed(time.Now().UnixNano())
	created := 0
	for i := 0; i < count; i++ {
		in := fakePost()
		_, err := svc.CreatePost(ctx, user.ID, in)
		if errors.Is(err, models.ErrSlugTaken) {
			in.Slug = services.DeriveSlug(in.Title) + "-" + gofakeit.Numerify("####")
			_, err = svc.CreatePost(ctx, user.ID, in)
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed post %d: %w", i+1, err)
		}
		created++
	}
	return created, nil
}

package commands

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"blog/internal/repositories"
	"blog/internal/services"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestCreateAdmin(t *testing.T) {
	users := repositories.NewMemoryUserRepository()
	out := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	require.NoError(t, createAdmin(cmd, users, "admin", "s3cret-pass"))
	assert.Contains(t, out.String(), "Created admin admin")

	user, err := users.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))

	err = createAdmin(cmd, users, "admin", "other")
	assert.EqualError(t, err, `user "admin" already exists`)
}

func TestHashPasswordCommand(t *testing.T) {
	out := new(bytes.Buffer)
	hashPasswordCmd.SetOut(out)
	require.NoError(t, hashPasswordCmd.RunE(hashPasswordCmd, []string{"hunter2"}))

	hashed := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashed), []byte("hunter2")))
}

func TestFakePostPassesEditorChecks(t *testing.T) {
	for i := 0; i < 20; i++ {
		in := fakePost()
		assert.GreaterOrEqual(t, utf8.RuneCountInString(in.Title), 3)
		assert.GreaterOrEqual(t, utf8.RuneCountInString(in.Excerpt), 10)
		assert.GreaterOrEqual(t, utf8.RuneCountInString(in.Content), 100)
	}
}

func TestSeedPosts(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewMemoryUserRepository()
	posts := repositories.NewMemoryPostRepository(users)
	svc := services.NewPostService(posts, users, nil, nil)

	_, err := seedPosts(ctx, svc, users, "ghost", 3)
	assert.ErrorContains(t, err, "does not exist")

	require.NoError(t, createAdmin(&cobra.Command{}, users, "admin", "pw"))
	n, err := seedPosts(ctx, svc, users, "admin", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	all, err := posts.List(ctx, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, p := range all {
		require.NotNil(t, p.Author)
		assert.Equal(t, "admin", p.Author.Username)
	}
}

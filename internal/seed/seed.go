// Package seed fills a development database with fake users, groups, posts,
// comments and follow edges.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backend-yatube/internal/db"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

type Options struct {
	Users           int
	Groups          int
	PostsPerUser    int
	CommentsPerPost int
	// Seed makes runs reproducible; zero picks a random seed.
	Seed     int64
	Password string
}

type Result struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Factory builds entities and persists them through db.
type Factory struct {
	db    db.Querier
	faker *gofakeit.Faker
	opts  Options
}

func NewFactory(q db.Querier, opts Options) *Factory {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Password == "" {
		opts.Password = "password"
	}
	return &Factory{db: q, faker: gofakeit.New(opts.Seed), opts: opts}
}

func (f *Factory) Run(ctx context.Context) (Result, error) {
	var res Result

	hash, err := bcrypt.GenerateFromPassword([]byte(f.opts.Password), bcrypt.MinCost)
	if err != nil {
		return res, err
	}

	users := make([]int64, 0, f.opts.Users)
	for i := 0; i < f.opts.Users; i++ {
		id, err := f.createUser(ctx, i, string(hash))
		if err != nil {
			return res, err
		}
		users = append(users, id)
	}
	res.Users = len(users)

	groups := make([]int64, 0, f.opts.Groups)
	for i := 0; i < f.opts.Groups; i++ {
		id, err := f.createGroup(ctx, i)
		if err != nil {
			return res, err
		}
		groups = append(groups, id)
	}
	res.Groups = len(groups)

	for _, author := range users {
		for i := 0; i < f.opts.PostsPerUser; i++ {
			var group any
			if len(groups) > 0 && f.faker.Bool() {
				group = groups[f.faker.IntRange(0, len(groups)-1)]
			}
			postID, err := f.createPost(ctx, author, group)
			if err != nil {
				return res, err
			}
			res.Posts++

			for j := 0; j < f.opts.CommentsPerPost; j++ {
				commenter := users[f.faker.IntRange(0, len(users)-1)]
				if err := f.createComment(ctx, postID, commenter); err != nil {
					return res, err
				}
				res.Comments++
			}
		}
	}

	// every user follows the next one round the ring
	if len(users) > 1 {
		for i, user := range users {
			author := users[(i+1)%len(users)]
			if _, err := f.db.Exec(ctx, `
				INSERT INTO follows (user_id, author_id)
				VALUES ($1,$2)
				ON CONFLICT (user_id, author_id) DO NOTHING
			`, user, author); err != nil {
				return res, fmt.Errorf("seed follow: %w", err)
			}
			res.Follows++
		}
	}
	return res, nil
}

func (f *Factory) createUser(ctx context.Context, i int, hash string) (int64, error) {
	username := fmt.Sprintf("%s%d", slugWord(f.faker.FirstName(), "user"), i)
	var id int64
	err := f.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1,$2,$3)
		ON CONFLICT (username) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`, username, username+"@"+f.faker.DomainName(), hash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("seed user: %w", err)
	}
	return id, nil
}

func (f *Factory) createGroup(ctx context.Context, i int) (int64, error) {
	word := slugWord(f.faker.Word(), "group")
	slug := fmt.Sprintf("%s-%d", word, i)
	if len(slug) > 20 {
		slug = slug[len(slug)-20:]
	}
	var id int64
	err := f.db.QueryRow(ctx, `
		INSERT INTO groups (title, slug, description)
		VALUES ($1,$2,$3)
		ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title
		RETURNING id
	`, strings.ToUpper(word[:1])+word[1:], slug, f.faker.Sentence(8)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("seed group: %w", err)
	}
	return id, nil
}

func (f *Factory) createPost(ctx context.Context, author int64, group any) (int64, error) {
	pubDate := time.Now().Add(-time.Duration(f.faker.IntRange(0, 90*24*60)) * time.Minute)
	var id int64
	err := f.db.QueryRow(ctx, `
		INSERT INTO posts (text, author_id, group_id, pub_date)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, f.faker.Paragraph(1, 3, 12, " "), author, group, pubDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("seed post: %w", err)
	}
	return id, nil
}

func (f *Factory) createComment(ctx context.Context, postID, author int64) error {
	text := f.faker.Sentence(10)
	if len([]rune(text)) > 400 {
		text = string([]rune(text)[:400])
	}
	_, err := f.db.Exec(ctx, `
		INSERT INTO comments (post_id, author_id, text)
		VALUES ($1,$2,$3)
	`, postID, author, text)
	if err != nil {
		return fmt.Errorf("seed comment: %w", err)
	}
	return nil
}

// slugWord lowercases s and drops everything outside [a-z0-9].
func slugWord(s, fallback string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return -1
	}, s)
	if s == "" {
		return fallback
	}
	return s
}

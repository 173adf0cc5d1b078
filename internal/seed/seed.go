package seed

import (
	"errors"
	"fmt"
	"time"

	"snapcircle/internal/middleware"
	"snapcircle/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	PhotosPerUser  int
	FriendsPerUser int
	PendingRatio   float64 // share of friendships left unaccepted, 0..1
	SkipBcrypt     bool
	DryRun         bool
	MaxDays        int
	BatchSize      int
	RandSeed       int64
}

// DefaultOptions returns the options used by the seed command when no flags
// are given.
func DefaultOptions() Options {
	return Options{
		NumUsers:       25,
		PhotosPerUser:  4,
		FriendsPerUser: 3,
		PendingRatio:   0.25,
		MaxDays:        90,
		BatchSize:      100,
	}
}

// Seeder fills a database with generated users, friendships, photos and
// conversations.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder. Zero-valued options fall back to DefaultOptions.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	defaults := DefaultOptions()
	if opts.MaxDays <= 0 {
		opts.MaxDays = defaults.MaxDays
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaults.BatchSize
	}
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// seededTables lists tables in dependency order, children first.
var seededTables = []string{
	"photo_likes",
	"comments",
	"photos",
	"messages",
	"conversation_participants",
	"conversations",
	"friendships",
	"users",
}

// ClearAll removes every seeded row.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		middleware.Logger.Info("[dry-run] skipping ClearAll")
		return nil
	}
	middleware.Logger.Info("clearing existing data")

	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE photo_likes, comments, photos, messages, conversation_participants, conversations, friendships, users RESTART IDENTITY CASCADE`).Error
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run seeds a full social graph according to the seeder options.
func (s *Seeder) Run() error {
	middleware.Logger.Info("starting database seeding",
		"users", s.opts.NumUsers,
		"photos_per_user", s.opts.PhotosPerUser,
		"dry_run", s.opts.DryRun,
	)

	users, err := s.SeedSocialMesh(s.opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	photos, err := s.SeedEngagement(users, s.opts.PhotosPerUser)
	if err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}
	conversations, err := s.SeedConversations(users)
	if err != nil {
		return fmt.Errorf("failed to seed conversations: %w", err)
	}

	middleware.Logger.Info("database seeding completed",
		"users", len(users),
		"photos", len(photos),
		"conversations", conversations,
	)
	return nil
}

// SeedSocialMesh creates n users and wires each to FriendsPerUser others.
// Edges always point from the lower index to the higher one so no pair gets
// two rows; a PendingRatio share of them stays unaccepted.
func (s *Seeder) SeedSocialMesh(n int) ([]*models.User, error) {
	if n <= 0 {
		return nil, errors.New("number of users must be positive")
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, u)
	}

	perUser := s.opts.FriendsPerUser
	if perUser >= n {
		perUser = n - 1
	}
	seen := make(map[[2]int]bool)
	edges := 0
	for i := range users {
		for k := 0; k < perUser; k++ {
			j := s.factory.rng.Intn(n)
			if j == i {
				continue
			}
			lo, hi := min(i, j), max(i, j)
			if seen[[2]int{lo, hi}] {
				continue
			}
			seen[[2]int{lo, hi}] = true

			accepted := s.factory.rng.Float64() >= s.opts.PendingRatio
			if _, err := s.factory.CreateFriendship(users[lo], users[hi], accepted); err != nil {
				return nil, fmt.Errorf("create friendship: %w", err)
			}
			edges++
		}
	}

	middleware.Logger.Info("seeded social mesh", "users", len(users), "friendships", edges)
	return users, nil
}

// SeedEngagement gives every user perUser photos, then has random users like
// and comment on them.
func (s *Seeder) SeedEngagement(users []*models.User, perUser int) ([]*models.Photo, error) {
	if len(users) == 0 || perUser <= 0 {
		return nil, nil
	}

	photos := make([]*models.Photo, 0, len(users)*perUser)
	for _, u := range users {
		for i := 0; i < perUser; i++ {
			photos = append(photos, s.factory.BuildPhoto(u))
		}
	}
	if err := s.factory.CreatePhotosBatch(photos); err != nil {
		return nil, fmt.Errorf("create photos: %w", err)
	}

	likes, comments := 0, 0
	for _, p := range photos {
		for _, u := range users {
			if s.factory.rng.Float64() < 0.3 {
				if err := s.factory.CreateLike(u, p); err != nil {
					return nil, fmt.Errorf("create like: %w", err)
				}
				likes++
			}
		}
		for c := s.factory.rng.Intn(4); c > 0; c-- {
			author := users[s.factory.rng.Intn(len(users))]
			if _, err := s.factory.CreateComment(author, p); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			comments++
		}
	}

	middleware.Logger.Info("seeded engagement", "photos", len(photos), "likes", likes, "comments", comments)
	return photos, nil
}

// SeedConversations opens a direct conversation between consecutive users
// and fills it with a short exchange. It returns how many were created.
func (s *Seeder) SeedConversations(users []*models.User) (int, error) {
	created := 0
	for i := 0; i+1 < len(users); i += 2 {
		a, b := users[i], users[i+1]
		conv, err := s.factory.CreateConversation("", a, b)
		if err != nil {
			return created, fmt.Errorf("create conversation: %w", err)
		}
		base := s.factory.pastTime()
		count := 2 + s.factory.rng.Intn(5)
		for m := 0; m < count; m++ {
			sender := a
			if m%2 == 1 {
				sender = b
			}
			at := base.Add(time.Duration(m) * 7 * time.Minute)
			if _, err := s.factory.CreateMessage(conv, sender, func(msg *models.Message) {
				msg.CreatedAt = at
			}); err != nil {
				return created, fmt.Errorf("create message: %w", err)
			}
		}
		created++
	}
	return created, nil
}

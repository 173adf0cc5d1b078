// Package seed provides helpers to create demo and fixture data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"snapcircle/internal/middleware"
	"snapcircle/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every generated user gets.
const DefaultPassword = "SnapCircle!2024"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db           *gorm.DB
	opts         Options
	rng          *rand.Rand
	faker        *gofakeit.Faker
	passwordHash string // hashed once per factory
	nextID       uint   // synthetic IDs in DryRun mode
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A non-zero
// opts.RandSeed makes the generated data reproducible.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seedValue := opts.RandSeed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(seedValue)), // #nosec G404: acceptable for seeding
		faker:  gofakeit.New(seedValue),
		nextID: 1000,
	}
}

func (f *Factory) hashedPassword() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	if f.passwordHash == "" {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		f.passwordHash = string(hashed)
	}
	return f.passwordHash
}

// pastTime returns a time within the last opts.MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// BuildUser constructs a sample `models.User` without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := strings.ToLower(fmt.Sprintf("%s_%d", f.faker.Username(), f.faker.Number(100, 9999)))
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@%s", username, f.faker.DomainName()),
		Password: f.hashedPassword(),
		Bio:      f.faker.Sentence(10),
		Location: f.faker.City(),
		Website:  f.faker.URL(),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		middleware.Logger.Debug("[dry-run] CreateUser", "username", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPhoto constructs a photo for owner without persisting it. Useful for batching.
func (f *Factory) BuildPhoto(owner *models.User, overrides ...func(*models.Photo)) *models.Photo {
	photo := &models.Photo{
		UserID:    owner.ID,
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", f.faker.UUID()),
		Caption:   f.faker.Sentence(f.rng.Intn(12) + 3),
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(photo)
	}
	return photo
}

// CreatePhoto constructs and persists a sample `models.Photo` owned by owner.
func (f *Factory) CreatePhoto(owner *models.User, overrides ...func(*models.Photo)) (*models.Photo, error) {
	photo := f.BuildPhoto(owner, overrides...)
	if err := f.CreatePhotosBatch([]*models.Photo{photo}); err != nil {
		return nil, err
	}
	return photo, nil
}

// CreatePhotosBatch persists multiple photos in a single DB call when possible.
func (f *Factory) CreatePhotosBatch(photos []*models.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range photos {
			f.nextID++
			p.ID = f.nextID
		}
		middleware.Logger.Debug("[dry-run] CreatePhotosBatch", "photos", len(photos))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.Omit("User").CreateInBatches(photos, batch).Error
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided photo authored by the provided user.
func (f *Factory) CreateComment(author *models.User, photo *models.Photo, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PhotoID:   photo.ID,
		UserID:    author.ID,
		Text:      f.faker.Sentence(f.rng.Intn(10) + 2),
		CreatedAt: photo.CreatedAt.Add(time.Duration(f.rng.Intn(72*60)) * time.Minute),
	}
	if now := time.Now(); comment.CreatedAt.After(now) {
		comment.CreatedAt = now
	}
	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.Omit("User").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike adds user to the photo's like-set. Liking twice is a no-op.
func (f *Factory) CreateLike(user *models.User, photo *models.Photo) error {
	if f.opts.DryRun {
		return nil
	}
	like := &models.PhotoLike{PhotoID: photo.ID, UserID: user.ID}
	return f.db.Where(like).FirstOrCreate(like).Error
}

// CreateFriendship persists a requester→addressee edge, accepted or pending.
func (f *Factory) CreateFriendship(requester, addressee *models.User, accepted bool) (*models.Friendship, error) {
	friendship := &models.Friendship{
		RequesterID: requester.ID,
		AddresseeID: addressee.ID,
		Accepted:    accepted,
	}
	if f.opts.DryRun {
		f.nextID++
		friendship.ID = f.nextID
		return friendship, nil
	}
	if err := f.db.Omit("Requester", "Addressee").Create(friendship).Error; err != nil {
		return nil, err
	}
	return friendship, nil
}

// CreateConversation persists a conversation with the given members. Two
// members make a direct conversation carrying the pair's direct key.
func (f *Factory) CreateConversation(name string, members ...*models.User) (*models.Conversation, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("conversation needs at least 2 members, got %d", len(members))
	}

	conv := &models.Conversation{
		Name:      name,
		IsGroup:   len(members) > 2,
		CreatedBy: members[0].ID,
	}
	if !conv.IsGroup {
		key := models.DirectKeyFor(members[0].ID, members[1].ID)
		conv.DirectKey = &key
	}

	if f.opts.DryRun {
		f.nextID++
		conv.ID = f.nextID
		return conv, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants").Create(conv).Error; err != nil {
			return err
		}
		rows := make([]models.ConversationParticipant, 0, len(members))
		for _, m := range members {
			rows = append(rows, models.ConversationParticipant{ConversationID: conv.ID, UserID: m.ID})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// CreateMessage constructs and persists a sample `models.Message` in the
// provided conversation from the provided sender, bumping the
// conversation's updated_at to the message time.
func (f *Factory) CreateMessage(conv *models.Conversation, sender *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	message := &models.Message{
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Content:        f.faker.Sentence(f.rng.Intn(12) + 2),
		CreatedAt:      time.Now(),
	}
	for _, override := range overrides {
		override(message)
	}

	if f.opts.DryRun {
		f.nextID++
		message.ID = f.nextID
		return message, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sender").Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			UpdateColumn("updated_at", message.CreatedAt).Error
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

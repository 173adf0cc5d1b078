package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"snapcircle/internal/middleware"
	"snapcircle/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed scenarios/*.yml
var builtinScenarios embed.FS

// DemoScenario is the name of the built-in scenario used when the configured
// scenario path is "demo".
const DemoScenario = "demo"

// Scenario is a hand-written fixture graph loaded from YAML.
type Scenario struct {
	Name          string                 `yaml:"name"`
	Users         []ScenarioUser         `yaml:"users"`
	Friendships   []ScenarioFriendship   `yaml:"friendships"`
	Photos        []ScenarioPhoto        `yaml:"photos"`
	Conversations []ScenarioConversation `yaml:"conversations"`
}

// ScenarioUser describes one user. Email defaults to username@snapcircle.dev.
type ScenarioUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Bio      string `yaml:"bio"`
	Location string `yaml:"location"`
	Website  string `yaml:"website"`
}

// ScenarioFriendship is a request edge; Accepted turns it into a friendship.
type ScenarioFriendship struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Accepted bool   `yaml:"accepted"`
}

// ScenarioPhoto is a photo with its like-set and comment thread.
type ScenarioPhoto struct {
	Owner    string            `yaml:"owner"`
	ImageURL string            `yaml:"image_url"`
	Caption  string            `yaml:"caption"`
	LikedBy  []string          `yaml:"liked_by"`
	Comments []ScenarioComment `yaml:"comments"`
}

// ScenarioComment is one comment, in thread order.
type ScenarioComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// ScenarioConversation lists members and an ordered message history.
type ScenarioConversation struct {
	Name     string            `yaml:"name"`
	Members  []string          `yaml:"members"`
	Messages []ScenarioMessage `yaml:"messages"`
}

// ScenarioMessage is one message, in send order.
type ScenarioMessage struct {
	From string `yaml:"from"`
	Text string `yaml:"text"`
}

// ErrScenarioApplied is returned by Apply when the scenario's users already exist.
var ErrScenarioApplied = errors.New("scenario already applied")

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenarioFile reads a scenario from disk. The name "demo" resolves to
// the embedded demo scenario.
func LoadScenarioFile(path string) (*Scenario, error) {
	var (
		data []byte
		err  error
	)
	if path == DemoScenario {
		data, err = builtinScenarios.ReadFile("scenarios/" + DemoScenario + ".yml")
	} else {
		data, err = os.ReadFile(path) // #nosec G304: operator-supplied fixture path
	}
	if err != nil {
		return nil, fmt.Errorf("read scenario %q: %w", path, err)
	}
	return ParseScenario(data)
}

// Validate checks that every reference in the scenario resolves to a
// declared user and that no relationship is declared twice.
func (sc *Scenario) Validate() error {
	if len(sc.Users) == 0 {
		return errors.New("scenario declares no users")
	}

	known := make(map[string]bool, len(sc.Users))
	for i, u := range sc.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
		if known[name] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, name)
		}
		known[name] = true
	}
	ref := func(where, name string) error {
		if !known[name] {
			return fmt.Errorf("%s: unknown user %q", where, name)
		}
		return nil
	}

	pairs := make(map[string]bool)
	for i, f := range sc.Friendships {
		where := fmt.Sprintf("friendships[%d]", i)
		if err := ref(where, f.From); err != nil {
			return err
		}
		if err := ref(where, f.To); err != nil {
			return err
		}
		if f.From == f.To {
			return fmt.Errorf("%s: user cannot befriend themselves", where)
		}
		key := pairKey(f.From, f.To)
		if pairs[key] {
			return fmt.Errorf("%s: %s and %s are already linked", where, f.From, f.To)
		}
		pairs[key] = true
	}

	for i, p := range sc.Photos {
		where := fmt.Sprintf("photos[%d]", i)
		if err := ref(where, p.Owner); err != nil {
			return err
		}
		if strings.TrimSpace(p.ImageURL) == "" {
			return fmt.Errorf("%s: image_url is required", where)
		}
		for _, liker := range p.LikedBy {
			if err := ref(where+".liked_by", liker); err != nil {
				return err
			}
		}
		for j, c := range p.Comments {
			cw := fmt.Sprintf("%s.comments[%d]", where, j)
			if err := ref(cw, c.Author); err != nil {
				return err
			}
			if strings.TrimSpace(c.Text) == "" {
				return fmt.Errorf("%s: text is required", cw)
			}
		}
	}

	directs := make(map[string]bool)
	for i, c := range sc.Conversations {
		where := fmt.Sprintf("conversations[%d]", i)
		if len(c.Members) < 2 {
			return fmt.Errorf("%s: at least 2 members required", where)
		}
		members := make(map[string]bool, len(c.Members))
		for _, m := range c.Members {
			if err := ref(where, m); err != nil {
				return err
			}
			if members[m] {
				return fmt.Errorf("%s: member %q listed twice", where, m)
			}
			members[m] = true
		}
		if len(c.Members) == 2 {
			key := pairKey(c.Members[0], c.Members[1])
			if directs[key] {
				return fmt.Errorf("%s: direct conversation between %s and %s already declared", where, c.Members[0], c.Members[1])
			}
			directs[key] = true
		}
		for j, m := range c.Messages {
			mw := fmt.Sprintf("%s.messages[%d]", where, j)
			if !members[m.From] {
				return fmt.Errorf("%s: sender %q is not a member", mw, m.From)
			}
			if strings.TrimSpace(m.Text) == "" {
				return fmt.Errorf("%s: text is required", mw)
			}
		}
	}
	return nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Apply writes the scenario in a single transaction. If the first declared
// user already exists the scenario is treated as applied and
// ErrScenarioApplied is returned without writing anything.
func (sc *Scenario) Apply(ctx context.Context, db *gorm.DB, opts Options) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", sc.Users[0].Username).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("check scenario state: %w", err)
	}
	if existing > 0 {
		return ErrScenarioApplied
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f := NewFactory(tx, opts)
		users := make(map[string]*models.User, len(sc.Users))
		for _, su := range sc.Users {
			u, err := f.CreateUser(func(u *models.User) {
				u.Username = su.Username
				u.Email = su.Email
				if u.Email == "" {
					u.Email = su.Username + "@snapcircle.dev"
				}
				u.Bio = su.Bio
				u.Location = su.Location
				u.Website = su.Website
			})
			if err != nil {
				return fmt.Errorf("create user %s: %w", su.Username, err)
			}
			users[su.Username] = u
		}

		for _, fr := range sc.Friendships {
			if _, err := f.CreateFriendship(users[fr.From], users[fr.To], fr.Accepted); err != nil {
				return fmt.Errorf("create friendship %s->%s: %w", fr.From, fr.To, err)
			}
		}

		// timestamps are spaced so listing order follows declaration order
		start := time.Now().Add(-time.Duration(len(sc.Photos)+len(sc.Conversations)+1) * time.Hour)
		for i, sp := range sc.Photos {
			takenAt := start.Add(time.Duration(i) * time.Hour)
			photo, err := f.CreatePhoto(users[sp.Owner], func(p *models.Photo) {
				p.ImageURL = sp.ImageURL
				p.Caption = sp.Caption
				p.CreatedAt = takenAt
			})
			if err != nil {
				return fmt.Errorf("create photo for %s: %w", sp.Owner, err)
			}
			for _, liker := range sp.LikedBy {
				if err := f.CreateLike(users[liker], photo); err != nil {
					return fmt.Errorf("like photo %d: %w", photo.ID, err)
				}
			}
			for j, cm := range sp.Comments {
				text, at := cm.Text, takenAt.Add(time.Duration(j+1)*time.Minute)
				if _, err := f.CreateComment(users[cm.Author], photo, func(c *models.Comment) {
					c.Text = text
					c.CreatedAt = at
				}); err != nil {
					return fmt.Errorf("comment on photo %d: %w", photo.ID, err)
				}
			}
		}

		convStart := start.Add(time.Duration(len(sc.Photos)) * time.Hour)
		for i, scv := range sc.Conversations {
			members := make([]*models.User, 0, len(scv.Members))
			for _, m := range scv.Members {
				members = append(members, users[m])
			}
			conv, err := f.CreateConversation(scv.Name, members...)
			if err != nil {
				return fmt.Errorf("create conversation %d: %w", i, err)
			}
			for j, sm := range scv.Messages {
				text := sm.Text
				at := convStart.Add(time.Duration(i)*time.Hour + time.Duration(j)*time.Minute)
				if _, err := f.CreateMessage(conv, users[sm.From], func(m *models.Message) {
					m.Content = text
					m.CreatedAt = at
				}); err != nil {
					return fmt.Errorf("create message in conversation %d: %w", conv.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("applied seed scenario",
		"scenario", sc.Name,
		"users", len(sc.Users),
		"photos", len(sc.Photos),
		"conversations", len(sc.Conversations),
	)
	return nil
}

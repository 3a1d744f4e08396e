package twin

import (
	"crypto/rand"
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/stagerank/internal/domain/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial state of a twin.
type Seed struct {
	Venues []VenueSeed          `yaml:"venues"`
	Levels []model.ScoutLevel   `yaml:"levels"`
	Tags   model.FeedbackTags   `yaml:"tags"`
	Tokens map[string]TokenSeed `yaml:"tokens"`
}

// VenueSeed is one venue with tonight's running order.
type VenueSeed struct {
	Name       string          `yaml:"name"`
	Performers []PerformerSeed `yaml:"performers"`
}

// PerformerSeed describes a performer and the ratings they already hold.
// History is everything before tonight; Tonight counts toward both scopes.
type PerformerSeed struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Bio        string    `yaml:"bio"`
	SocialLink string    `yaml:"social_link"`
	SetTime    string    `yaml:"set_time"`
	History    TallySeed `yaml:"history"`
	Tonight    TallySeed `yaml:"tonight"`
}

// TallySeed is a pre-aggregated block of ratings.
type TallySeed struct {
	Ratings  int     `yaml:"ratings"`
	Average  float64 `yaml:"average"`
	Comments int     `yaml:"comments"`
}

// TokenSeed maps a login token to the identity it verifies as.
type TokenSeed struct {
	Email     string `yaml:"email"`
	Venue     string `yaml:"venue"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// DefaultSeed returns the built-in seed.
func DefaultSeed() Seed {
	s, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("twin: built-in seed: %v", err))
	}
	return s
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and checks a YAML seed. Performers without an id get a
// generated one.
func ParseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if err := s.normalize(); err != nil {
		return Seed{}, err
	}
	return s, nil
}

func (s *Seed) normalize() error {
	seen := map[string]struct{}{}
	for vi := range s.Venues {
		v := &s.Venues[vi]
		v.Name = strings.TrimSpace(v.Name)
		if v.Name == "" {
			return fmt.Errorf("%w: venue %d has no name", ErrInvalidSeed, vi)
		}
		for pi := range v.Performers {
			p := &v.Performers[pi]
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if _, dup := seen[p.ID]; dup {
				return fmt.Errorf("%w: duplicate performer id %q", ErrInvalidSeed, p.ID)
			}
			seen[p.ID] = struct{}{}
			for _, t := range []TallySeed{p.History, p.Tonight} {
				if t.Ratings < 0 || t.Comments < 0 || t.Average < 0 || t.Average > 5 || (t.Ratings == 0 && t.Average != 0) {
					return fmt.Errorf("%w: performer %q has an invalid tally", ErrInvalidSeed, p.ID)
				}
			}
		}
	}
	return nil
}

var (
	firstNames = []string{"Ada", "Bea", "Cal", "Dev", "Eli", "Fay", "Gus", "Hal", "Ivy", "Jo", "Kit", "Lou"}
	lastNames  = []string{"Marsh", "North", "Okoro", "Price", "Quill", "Reyes", "Stone", "Tran", "Ueda", "Vance"}
	acts       = []string{"acoustic covers", "original songs", "blues guitar", "jazz standards", "folk", "piano ballads"}
)

const randomDivisor = 1000000

// Generate builds a seed of perVenue random performers for each venue, on top
// of the built-in levels, tags and tokens.
func Generate(venues []string, perVenue int) Seed {
	base := DefaultSeed()
	s := Seed{Levels: base.Levels, Tags: base.Tags, Tokens: make(map[string]TokenSeed, len(base.Tokens))}
	for k, v := range base.Tokens {
		s.Tokens[k] = v
	}
	for _, venue := range venues {
		vs := VenueSeed{Name: venue}
		for i := 0; i < perVenue; i++ {
			vs.Performers = append(vs.Performers, generatePerformer(i))
		}
		s.Venues = append(s.Venues, vs)
	}
	return s
}

// AddRaters registers perVenue login tokens for every venue, named by
// RaterToken. Existing tokens are kept.
func (s *Seed) AddRaters(perVenue int) {
	if s.Tokens == nil {
		s.Tokens = make(map[string]TokenSeed)
	}
	for vi, v := range s.Venues {
		for n := 1; n <= perVenue; n++ {
			s.Tokens[RaterToken(vi, n)] = TokenSeed{
				Email:     fmt.Sprintf("rater-%d-%d@example.com", vi+1, n),
				Venue:     v.Name,
				FirstName: "Rater",
				LastName:  fmt.Sprintf("%d-%d", vi+1, n),
			}
		}
	}
}

// RaterToken names the nth generated login token of the venue at index vi.
func RaterToken(vi, n int) string {
	return fmt.Sprintf("rater-%d-%d", vi+1, n)
}

func generatePerformer(slot int) PerformerSeed {
	name := pick(firstNames) + " " + pick(lastNames)
	history := TallySeed{Ratings: randomInt(40)}
	if history.Ratings > 0 {
		history.Average = variedAverage()
		history.Comments = randomInt(history.Ratings + 1)
	}
	return PerformerSeed{
		ID:      uuid.NewString(),
		Name:    name,
		Bio:     name + " plays " + pick(acts) + ".",
		SetTime: fmt.Sprintf("%02d:%02d", 19+slot/4, (slot%4)*15),
		History: history,
	}
}

// variedAverage draws a star average from a few performer bands so that
// generated rosters have a spread of strong and weak acts.
func variedAverage() float64 {
	switch randomInt(4) {
	case 0:
		return 4 + randomFloat()
	case 1:
		return 2 + randomFloat()*2
	case 2:
		return 1 + randomFloat()
	default:
		return 1 + randomFloat()*4
	}
}

func randomFloat() float64 {
	return float64(randomInt(randomDivisor)) / randomDivisor
}

func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func pick(options []string) string {
	return options[randomInt(len(options))]
}

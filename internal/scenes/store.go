// Package scenes holds the ordered, user-editable scene collection.
package scenes

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidecast/config"
	"slidecast/internal/domain"
)

// Store is the single owner of a session's scenes. All operations are
// serialized; callers never see internal slices.
type Store struct {
	mu         sync.Mutex
	scenes     []domain.Scene
	generation uint64
	rng        *rand.Rand
	newID      func() string
}

// Option configures a Store.
type Option func(*Store)

// WithRand sets the source used to pick seeded gradients.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithIDFunc overrides scene id generation.
func WithIDFunc(f func() string) Option {
	return func(s *Store) {
		if f != nil {
			s.newID = f
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type roleTemplate struct {
	title     string
	narration string
}

var roleTemplates = map[string]roleTemplate{
	"Hook":             {"Why %s matters", "What if you could turn %s into a finished video in minutes?"},
	"Overview":         {"%s at a glance", "Here is the big picture of %s: the idea, the workflow and the result."},
	"Asset Generation": {"Generating the assets", "We draft the script and the visuals for %s automatically, one scene at a time."},
	"Assembly":         {"Putting it together", "Every scene about %s is timed, styled and stitched into one narrated sequence."},
	"Deployment":       {"Shipping it", "The finished %s video is rendered and published straight to your channel."},
	"Call-to-Action":   {"Your turn", "Try it with your own %s story today."},
}

// Seed replaces the store contents with one scene per narrative role.
func (s *Store) Seed(topic string) []domain.Scene {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = config.DefaultTopic
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := make([]domain.Scene, 0, len(config.NarrativeRoles))
	for _, role := range config.NarrativeRoles {
		tpl := roleTemplates[role]
		title := tpl.title
		if strings.Contains(title, "%s") {
			title = fmt.Sprintf(title, topic)
		}
		seeded = append(seeded, domain.Scene{
			ID:        s.newID(),
			Title:     title,
			Narration: fmt.Sprintf(tpl.narration, topic),
			Duration:  config.DefaultSceneDuration,
			Gradient:  s.randomGradientLocked(),
			Emphasis:  role,
		})
	}

	s.scenes = seeded
	s.generation++
	return cloneScenes(seeded)
}

// Add appends a scene. An empty ID is assigned; an empty gradient is picked from the palette.
func (s *Store) Add(scene domain.Scene) (domain.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scene.ID == "" {
		scene.ID = s.newID()
	}
	if s.indexLocked(scene.ID) >= 0 {
		return domain.Scene{}, fmt.Errorf("%w: %s", domain.ErrDuplicateScene, scene.ID)
	}
	if scene.Gradient == (domain.Gradient{}) {
		scene.Gradient = s.randomGradientLocked()
	} else if !scene.Gradient.Valid() {
		return domain.Scene{}, domain.ErrInvalidGradient
	}

	s.scenes = append(s.scenes, scene)
	s.generation++
	return scene, nil
}

// Update merges patch into the scene with the given id.
func (s *Store) Update(id string, patch domain.ScenePatch) (domain.Scene, error) {
	if patch.Gradient != nil && !patch.Gradient.Valid() {
		return domain.Scene{}, domain.ErrInvalidGradient
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Scene{}, fmt.Errorf("%w: %s", domain.ErrSceneNotFound, id)
	}
	s.scenes[idx] = patch.Apply(s.scenes[idx])
	s.generation++
	return s.scenes[idx], nil
}

// Remove deletes the scene with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrSceneNotFound, id)
	}
	s.scenes = append(s.scenes[:idx], s.scenes[idx+1:]...)
	s.generation++
	return nil
}

// Duplicate inserts a copy of the scene right after it. A missing id is a no-op
// and reports false.
func (s *Store) Duplicate(id string) (domain.Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Scene{}, false
	}

	clone := s.scenes[idx]
	clone.ID = s.newID()
	clone.Title = clone.Title + " (copy)"

	s.scenes = append(s.scenes, domain.Scene{})
	copy(s.scenes[idx+2:], s.scenes[idx+1:])
	s.scenes[idx+1] = clone
	s.generation++
	return clone, true
}

// Move places the scene at index, clamped to the valid range.
func (s *Store) Move(id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.indexLocked(id)
	if from < 0 {
		return fmt.Errorf("%w: %s", domain.ErrSceneNotFound, id)
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.scenes)-1 {
		index = len(s.scenes) - 1
	}
	if from == index {
		return nil
	}

	scene := s.scenes[from]
	s.scenes = append(s.scenes[:from], s.scenes[from+1:]...)
	s.scenes = append(s.scenes[:index], append([]domain.Scene{scene}, s.scenes[index:]...)...)
	s.generation++
	return nil
}

// Get returns the scene with the given id.
func (s *Store) Get(id string) (domain.Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Scene{}, false
	}
	return s.scenes[idx], true
}

// List returns the scenes in presentation order.
func (s *Store) List() []domain.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneScenes(s.scenes)
}

// Snapshot returns the scenes together with the generation they belong to.
func (s *Store) Snapshot() ([]domain.Scene, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneScenes(s.scenes), s.generation
}

// Len returns the number of scenes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scenes)
}

// Generation increments on every successful mutation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// TotalRuntime returns the runtime in seconds with every scene floored at the minimum duration.
func (s *Store) TotalRuntime() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TotalRuntime(s.scenes)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.scenes {
		if s.scenes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) randomGradientLocked() domain.Gradient {
	return domain.Gradient(config.Palette[s.rng.Intn(len(config.Palette))])
}

// TotalRuntime sums scene durations, counting anything below the floor as the floor.
func TotalRuntime(scenes []domain.Scene) int {
	total := 0
	for _, sc := range scenes {
		total += max(sc.Duration, config.MinSceneDuration)
	}
	return total
}

// ClampDuration forces d into the allowed scene duration range.
func ClampDuration(d int) int {
	return min(max(d, config.MinSceneDuration), config.MaxSceneDuration)
}

func cloneScenes(in []domain.Scene) []domain.Scene {
	if in == nil {
		return []domain.Scene{}
	}
	out := make([]domain.Scene, len(in))
	copy(out, in)
	return out
}
